package entropy8

import "errors"

// CBC chaining with PKCS#7 padding. The pad is always present: an aligned
// input gains a full trailing block, so ciphertext length is
// (len(in)/16 + 1) * 16.

var errBadPadding = errors.New("invalid pkcs7 padding")

// cbcEncrypt pads in with PKCS#7 and encrypts it under key/iv. The result is
// a fresh slice whose length is a positive multiple of the block size.
func cbcEncrypt(key *[aesKeySize]byte, iv *[aesBlockSize]byte, in []byte) []byte {
	ctx := newAESContext(key)
	prev := *iv

	padVal := byte(aesBlockSize - len(in)%aesBlockSize)
	nblocks := len(in)/aesBlockSize + 1
	out := make([]byte, nblocks*aesBlockSize)

	for i := 0; i < nblocks; i++ {
		var block [aesBlockSize]byte
		for j := 0; j < aesBlockSize; j++ {
			idx := i*aesBlockSize + j
			b := padVal
			if idx < len(in) {
				b = in[idx]
			}
			block[j] = b ^ prev[j]
		}
		ctx.encryptBlock(&block)
		copy(out[i*aesBlockSize:], block[:])
		prev = block
	}
	return out
}

// cbcDecrypt reverses cbcEncrypt and validates the padding: the final byte p
// must satisfy 1 <= p <= 16 and the last p bytes must all equal p. Any
// deviation, including a ciphertext that is not a positive multiple of the
// block size, returns errBadPadding.
func cbcDecrypt(key *[aesKeySize]byte, iv *[aesBlockSize]byte, in []byte) ([]byte, error) {
	if len(in) == 0 || len(in)%aesBlockSize != 0 {
		return nil, errBadPadding
	}

	ctx := newAESContext(key)
	prev := *iv
	out := make([]byte, len(in))

	for i := 0; i < len(in); i += aesBlockSize {
		var block, cipherCopy [aesBlockSize]byte
		copy(block[:], in[i:])
		cipherCopy = block

		ctx.decryptBlock(&block)

		for j := 0; j < aesBlockSize; j++ {
			out[i+j] = block[j] ^ prev[j]
		}
		prev = cipherCopy
	}

	padVal := out[len(out)-1]
	if padVal == 0 || padVal > aesBlockSize {
		return nil, errBadPadding
	}
	for i := 0; i < int(padVal); i++ {
		if out[len(out)-1-i] != padVal {
			return nil, errBadPadding
		}
	}
	return out[:len(out)-int(padVal)], nil
}
