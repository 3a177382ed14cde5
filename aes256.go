package entropy8

// AES-256 block cipher per FIPS 197: 14 rounds, 60-word expanded key.
// Implemented from the standard for the same reason as sha256.go; the tests
// check the FIPS 197 appendix C.3 vector and cross-check crypto/aes.

const (
	aesKeySize    = 32
	aesBlockSize  = 16
	aesRounds     = 14
	aesExpKeySize = 60
)

var aesSbox = [256]byte{
	0x63, 0x7c, 0x77, 0x7b, 0xf2, 0x6b, 0x6f, 0xc5, 0x30, 0x01, 0x67, 0x2b, 0xfe, 0xd7, 0xab, 0x76,
	0xca, 0x82, 0xc9, 0x7d, 0xfa, 0x59, 0x47, 0xf0, 0xad, 0xd4, 0xa2, 0xaf, 0x9c, 0xa4, 0x72, 0xc0,
	0xb7, 0xfd, 0x93, 0x26, 0x36, 0x3f, 0xf7, 0xcc, 0x34, 0xa5, 0xe5, 0xf1, 0x71, 0xd8, 0x31, 0x15,
	0x04, 0xc7, 0x23, 0xc3, 0x18, 0x96, 0x05, 0x9a, 0x07, 0x12, 0x80, 0xe2, 0xeb, 0x27, 0xb2, 0x75,
	0x09, 0x83, 0x2c, 0x1a, 0x1b, 0x6e, 0x5a, 0xa0, 0x52, 0x3b, 0xd6, 0xb3, 0x29, 0xe3, 0x2f, 0x84,
	0x53, 0xd1, 0x00, 0xed, 0x20, 0xfc, 0xb1, 0x5b, 0x6a, 0xcb, 0xbe, 0x39, 0x4a, 0x4c, 0x58, 0xcf,
	0xd0, 0xef, 0xaa, 0xfb, 0x43, 0x4d, 0x33, 0x85, 0x45, 0xf9, 0x02, 0x7f, 0x50, 0x3c, 0x9f, 0xa8,
	0x51, 0xa3, 0x40, 0x8f, 0x92, 0x9d, 0x38, 0xf5, 0xbc, 0xb6, 0xda, 0x21, 0x10, 0xff, 0xf3, 0xd2,
	0xcd, 0x0c, 0x13, 0xec, 0x5f, 0x97, 0x44, 0x17, 0xc4, 0xa7, 0x7e, 0x3d, 0x64, 0x5d, 0x19, 0x73,
	0x60, 0x81, 0x4f, 0xdc, 0x22, 0x2a, 0x90, 0x88, 0x46, 0xee, 0xb8, 0x14, 0xde, 0x5e, 0x0b, 0xdb,
	0xe0, 0x32, 0x3a, 0x0a, 0x49, 0x06, 0x24, 0x5c, 0xc2, 0xd3, 0xac, 0x62, 0x91, 0x95, 0xe4, 0x79,
	0xe7, 0xc8, 0x37, 0x6d, 0x8d, 0xd5, 0x4e, 0xa9, 0x6c, 0x56, 0xf4, 0xea, 0x65, 0x7a, 0xae, 0x08,
	0xba, 0x78, 0x25, 0x2e, 0x1c, 0xa6, 0xb4, 0xc6, 0xe8, 0xdd, 0x74, 0x1f, 0x4b, 0xbd, 0x8b, 0x8a,
	0x70, 0x3e, 0xb5, 0x66, 0x48, 0x03, 0xf6, 0x0e, 0x61, 0x35, 0x57, 0xb9, 0x86, 0xc1, 0x1d, 0x9e,
	0xe1, 0xf8, 0x98, 0x11, 0x69, 0xd9, 0x8e, 0x94, 0x9b, 0x1e, 0x87, 0xe9, 0xce, 0x55, 0x28, 0xdf,
	0x8c, 0xa1, 0x89, 0x0d, 0xbf, 0xe6, 0x42, 0x68, 0x41, 0x99, 0x2d, 0x0f, 0xb0, 0x54, 0xbb, 0x16,
}

var aesInvSbox = [256]byte{
	0x52, 0x09, 0x6a, 0xd5, 0x30, 0x36, 0xa5, 0x38, 0xbf, 0x40, 0xa3, 0x9e, 0x81, 0xf3, 0xd7, 0xfb,
	0x7c, 0xe3, 0x39, 0x82, 0x9b, 0x2f, 0xff, 0x87, 0x34, 0x8e, 0x43, 0x44, 0xc4, 0xde, 0xe9, 0xcb,
	0x54, 0x7b, 0x94, 0x32, 0xa6, 0xc2, 0x23, 0x3d, 0xee, 0x4c, 0x95, 0x0b, 0x42, 0xfa, 0xc3, 0x4e,
	0x08, 0x2e, 0xa1, 0x66, 0x28, 0xd9, 0x24, 0xb2, 0x76, 0x5b, 0xa2, 0x49, 0x6d, 0x8b, 0xd1, 0x25,
	0x72, 0xf8, 0xf6, 0x64, 0x86, 0x68, 0x98, 0x16, 0xd4, 0xa4, 0x5c, 0xcc, 0x5d, 0x65, 0xb6, 0x92,
	0x6c, 0x70, 0x48, 0x50, 0xfd, 0xed, 0xb9, 0xda, 0x5e, 0x15, 0x46, 0x57, 0xa7, 0x8d, 0x9d, 0x84,
	0x90, 0xd8, 0xab, 0x00, 0x8c, 0xbc, 0xd3, 0x0a, 0xf7, 0xe4, 0x58, 0x05, 0xb8, 0xb3, 0x45, 0x06,
	0xd0, 0x2c, 0x1e, 0x8f, 0xca, 0x3f, 0x0f, 0x02, 0xc1, 0xaf, 0xbd, 0x03, 0x01, 0x13, 0x8a, 0x6b,
	0x3a, 0x91, 0x11, 0x41, 0x4f, 0x67, 0xdc, 0xea, 0x97, 0xf2, 0xcf, 0xce, 0xf0, 0xb4, 0xe6, 0x73,
	0x96, 0xac, 0x74, 0x22, 0xe7, 0xad, 0x35, 0x85, 0xe2, 0xf9, 0x37, 0xe8, 0x1c, 0x75, 0xdf, 0x6e,
	0x47, 0xf1, 0x1a, 0x71, 0x1d, 0x29, 0xc5, 0x89, 0x6f, 0xb7, 0x62, 0x0e, 0xaa, 0x18, 0xbe, 0x1b,
	0xfc, 0x56, 0x3e, 0x4b, 0xc6, 0xd2, 0x79, 0x20, 0x9a, 0xdb, 0xc0, 0xfe, 0x78, 0xcd, 0x5a, 0xf4,
	0x1f, 0xdd, 0xa8, 0x33, 0x88, 0x07, 0xc7, 0x31, 0xb1, 0x12, 0x10, 0x59, 0x27, 0x80, 0xec, 0x5f,
	0x60, 0x51, 0x7f, 0xa9, 0x19, 0xb5, 0x4a, 0x0d, 0x2d, 0xe5, 0x7a, 0x9f, 0x93, 0xc9, 0x9c, 0xef,
	0xa0, 0xe0, 0x3b, 0x4d, 0xae, 0x2a, 0xf5, 0xb0, 0xc8, 0xeb, 0xbb, 0x3c, 0x83, 0x53, 0x99, 0x61,
	0x17, 0x2b, 0x04, 0x7e, 0xba, 0x77, 0xd6, 0x26, 0xe1, 0x69, 0x14, 0x63, 0x55, 0x21, 0x0c, 0x7d,
}

var aesRcon = [11]byte{0x00, 0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80, 0x1b, 0x36}

type aesContext struct {
	rk [aesExpKeySize]uint32
}

func aesGetU32(p []byte) uint32 {
	return uint32(p[0])<<24 | uint32(p[1])<<16 | uint32(p[2])<<8 | uint32(p[3])
}

func aesSubWord(w uint32) uint32 {
	return uint32(aesSbox[w>>24])<<24 |
		uint32(aesSbox[(w>>16)&0xff])<<16 |
		uint32(aesSbox[(w>>8)&0xff])<<8 |
		uint32(aesSbox[w&0xff])
}

func aesRotWord(w uint32) uint32 {
	return w<<8 | w>>24
}

// xtime multiplies by 2 in GF(2^8) modulo the AES polynomial.
func xtime(x byte) byte {
	return (x << 1) ^ (((x >> 7) & 1) * 0x1b)
}

// newAESContext expands a 32-byte key into the 60-word round key schedule.
func newAESContext(key *[aesKeySize]byte) *aesContext {
	ctx := &aesContext{}
	for i := 0; i < 8; i++ {
		ctx.rk[i] = aesGetU32(key[4*i:])
	}
	for i := 8; i < aesExpKeySize; i++ {
		tmp := ctx.rk[i-1]
		if i%8 == 0 {
			tmp = aesSubWord(aesRotWord(tmp)) ^ uint32(aesRcon[i/8])<<24
		} else if i%8 == 4 {
			tmp = aesSubWord(tmp)
		}
		ctx.rk[i] = ctx.rk[i-8] ^ tmp
	}
	return ctx
}

func (ctx *aesContext) addRoundKey(s *[aesBlockSize]byte, round int) {
	for i := 0; i < 4; i++ {
		rk := ctx.rk[round*4+i]
		s[4*i] ^= byte(rk >> 24)
		s[4*i+1] ^= byte(rk >> 16)
		s[4*i+2] ^= byte(rk >> 8)
		s[4*i+3] ^= byte(rk)
	}
}

// encryptBlock transforms one 16-byte block in place.
func (ctx *aesContext) encryptBlock(s *[aesBlockSize]byte) {
	ctx.addRoundKey(s, 0)

	for r := 1; r <= aesRounds; r++ {
		// SubBytes
		for i := range s {
			s[i] = aesSbox[s[i]]
		}

		// ShiftRows
		var t [aesBlockSize]byte
		t[0], t[1], t[2], t[3] = s[0], s[5], s[10], s[15]
		t[4], t[5], t[6], t[7] = s[4], s[9], s[14], s[3]
		t[8], t[9], t[10], t[11] = s[8], s[13], s[2], s[7]
		t[12], t[13], t[14], t[15] = s[12], s[1], s[6], s[11]
		*s = t

		// MixColumns, skipped on the last round
		if r < aesRounds {
			for i := 0; i < 4; i++ {
				a, b, c, d := s[4*i], s[4*i+1], s[4*i+2], s[4*i+3]
				xa, xb, xc, xd := xtime(a), xtime(b), xtime(c), xtime(d)
				s[4*i] = xa ^ xb ^ b ^ c ^ d
				s[4*i+1] = a ^ xb ^ xc ^ c ^ d
				s[4*i+2] = a ^ b ^ xc ^ xd ^ d
				s[4*i+3] = xa ^ a ^ b ^ c ^ xd
			}
		}

		ctx.addRoundKey(s, r)
	}
}

// decryptBlock inverts encryptBlock.
func (ctx *aesContext) decryptBlock(s *[aesBlockSize]byte) {
	ctx.addRoundKey(s, aesRounds)

	for r := aesRounds - 1; r >= 0; r-- {
		// InvShiftRows
		var t [aesBlockSize]byte
		t[0], t[5], t[10], t[15] = s[0], s[1], s[2], s[3]
		t[4], t[9], t[14], t[3] = s[4], s[5], s[6], s[7]
		t[8], t[13], t[2], t[7] = s[8], s[9], s[10], s[11]
		t[12], t[1], t[6], t[11] = s[12], s[13], s[14], s[15]
		*s = t

		// InvSubBytes
		for i := range s {
			s[i] = aesInvSbox[s[i]]
		}

		ctx.addRoundKey(s, r)

		// InvMixColumns with the [14,11,13,9] matrix, skipped on round 0
		if r > 0 {
			for i := 0; i < 4; i++ {
				a, b, c, d := s[4*i], s[4*i+1], s[4*i+2], s[4*i+3]
				xa, x2a, x3a := xtime(a), xtime(xtime(a)), xtime(xtime(xtime(a)))
				xb, x2b, x3b := xtime(b), xtime(xtime(b)), xtime(xtime(xtime(b)))
				xc, x2c, x3c := xtime(c), xtime(xtime(c)), xtime(xtime(xtime(c)))
				xd, x2d, x3d := xtime(d), xtime(xtime(d)), xtime(xtime(xtime(d)))
				s[4*i] = (x3a ^ x2a ^ xa) ^ (x3b ^ xb ^ b) ^ (x3c ^ x2c ^ c) ^ (x3d ^ d)
				s[4*i+1] = (x3a ^ a) ^ (x3b ^ x2b ^ xb) ^ (x3c ^ xc ^ c) ^ (x3d ^ x2d ^ d)
				s[4*i+2] = (x3a ^ x2a ^ a) ^ (x3b ^ b) ^ (x3c ^ x2c ^ xc) ^ (x3d ^ xd ^ d)
				s[4*i+3] = (x3a ^ xa ^ a) ^ (x3b ^ x2b ^ b) ^ (x3c ^ c) ^ (x3d ^ x2d ^ xd)
			}
		}
	}
}
