package entropy8

import "math/bits"

// SHA-256 per FIPS 180-4, implemented from the standard so the derived-key
// path has no dependency on platform crypto. The tests check the FIPS 180-4
// vectors and cross-check streaming and one-shot digests against
// crypto/sha256.

const (
	sha256BlockSize  = 64
	sha256DigestSize = 32
)

var sha256K = [64]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5, 0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3, 0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc, 0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7, 0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13, 0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3, 0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5, 0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208, 0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

// sha256Digest is the streaming hash state: eight 32-bit words, a running
// byte count, and a partial-block buffer.
type sha256Digest struct {
	state [8]uint32
	count uint64
	buf   [sha256BlockSize]byte
}

func newSHA256() *sha256Digest {
	d := &sha256Digest{}
	d.reset()
	return d
}

func (d *sha256Digest) reset() {
	d.state = [8]uint32{
		0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
		0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
	}
	d.count = 0
}

func (d *sha256Digest) transform(block []byte) {
	var w [64]uint32
	for i := 0; i < 16; i++ {
		w[i] = uint32(block[4*i])<<24 | uint32(block[4*i+1])<<16 |
			uint32(block[4*i+2])<<8 | uint32(block[4*i+3])
	}
	for i := 16; i < 64; i++ {
		s0 := bits.RotateLeft32(w[i-15], -7) ^ bits.RotateLeft32(w[i-15], -18) ^ (w[i-15] >> 3)
		s1 := bits.RotateLeft32(w[i-2], -17) ^ bits.RotateLeft32(w[i-2], -19) ^ (w[i-2] >> 10)
		w[i] = s1 + w[i-7] + s0 + w[i-16]
	}

	a, b, c, dd := d.state[0], d.state[1], d.state[2], d.state[3]
	e, f, g, h := d.state[4], d.state[5], d.state[6], d.state[7]

	for i := 0; i < 64; i++ {
		bigS1 := bits.RotateLeft32(e, -6) ^ bits.RotateLeft32(e, -11) ^ bits.RotateLeft32(e, -25)
		ch := (e & f) ^ (^e & g)
		t1 := h + bigS1 + ch + sha256K[i] + w[i]
		bigS0 := bits.RotateLeft32(a, -2) ^ bits.RotateLeft32(a, -13) ^ bits.RotateLeft32(a, -22)
		maj := (a & b) ^ (a & c) ^ (b & c)
		t2 := bigS0 + maj
		h, g, f, e = g, f, e, dd+t1
		dd, c, b, a = c, b, a, t1+t2
	}

	d.state[0] += a
	d.state[1] += b
	d.state[2] += c
	d.state[3] += dd
	d.state[4] += e
	d.state[5] += f
	d.state[6] += g
	d.state[7] += h
}

// update absorbs p, buffering partial blocks so arbitrary feed sizes work.
func (d *sha256Digest) update(p []byte) {
	used := int(d.count % sha256BlockSize)
	d.count += uint64(len(p))

	if used > 0 {
		room := sha256BlockSize - used
		if len(p) < room {
			copy(d.buf[used:], p)
			return
		}
		copy(d.buf[used:], p[:room])
		d.transform(d.buf[:])
		p = p[room:]
	}

	for len(p) >= sha256BlockSize {
		d.transform(p[:sha256BlockSize])
		p = p[sha256BlockSize:]
	}

	if len(p) > 0 {
		copy(d.buf[:], p)
	}
}

// final applies the standard padding (0x80, zero fill, 64-bit big-endian bit
// length) and returns the digest. The state is consumed.
func (d *sha256Digest) final() [sha256DigestSize]byte {
	bitLen := d.count * 8
	used := int(d.count % sha256BlockSize)

	d.buf[used] = 0x80
	used++

	if used > 56 {
		for i := used; i < sha256BlockSize; i++ {
			d.buf[i] = 0
		}
		d.transform(d.buf[:])
		used = 0
	}
	for i := used; i < 56; i++ {
		d.buf[i] = 0
	}
	for i := 0; i < 8; i++ {
		d.buf[56+i] = byte(bitLen >> (56 - 8*i))
	}
	d.transform(d.buf[:])

	var digest [sha256DigestSize]byte
	for i, s := range d.state {
		digest[4*i] = byte(s >> 24)
		digest[4*i+1] = byte(s >> 16)
		digest[4*i+2] = byte(s >> 8)
		digest[4*i+3] = byte(s)
	}
	return digest
}

// sha256Sum is the one-shot form.
func sha256Sum(data []byte) [sha256DigestSize]byte {
	d := newSHA256()
	d.update(data)
	return d.final()
}

// hmacSHA256 computes HMAC per RFC 2104 with the SHA-256 block size of 64
// bytes. Keys longer than a block are first reduced by hashing.
func hmacSHA256(key, data []byte) [sha256DigestSize]byte {
	var keyHash [sha256DigestSize]byte
	if len(key) > sha256BlockSize {
		keyHash = sha256Sum(key)
		key = keyHash[:]
	}

	var ipad, opad [sha256BlockSize]byte
	for i := range ipad {
		ipad[i] = 0x36
		opad[i] = 0x5c
	}
	for i, k := range key {
		ipad[i] ^= k
		opad[i] ^= k
	}

	inner := newSHA256()
	inner.update(ipad[:])
	inner.update(data)
	innerSum := inner.final()

	outer := newSHA256()
	outer.update(opad[:])
	outer.update(innerSum[:])
	return outer.final()
}
