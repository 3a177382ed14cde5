package entropy8

import "errors"

// Payload cipher: the one-shot interface the archive uses to protect the
// whole payload. The blob layout is salt(16) || iv(16) || ciphertext, with
// ciphertext a positive multiple of the AES block size.

var errCipherTooShort = errors.New("encrypted blob too short")

// encryptPayload derives a key from the password with a fresh salt, encrypts
// plaintext under CBC+PKCS#7 with a fresh IV, and returns the blob. The
// derived key is zeroed before return.
func encryptPayload(password, plaintext []byte) ([]byte, error) {
	var salt [saltSize]byte
	var iv [ivSize]byte
	if err := randomBytes(salt[:]); err != nil {
		return nil, err
	}
	if err := randomBytes(iv[:]); err != nil {
		return nil, err
	}

	key := deriveKey(password, &salt)

	out := make([]byte, 0, saltSize+ivSize+(len(plaintext)/aesBlockSize+1)*aesBlockSize)
	out = append(out, salt[:]...)
	out = append(out, iv[:]...)
	out = append(out, cbcEncrypt(&key, &iv, plaintext)...)

	zeroKey(&key)
	return out, nil
}

// decryptPayload slices salt and IV off the blob, derives the key, and
// reverses the CBC layer. A wrong password is indistinguishable from
// corruption here; both fail padding validation.
func decryptPayload(password, blob []byte) ([]byte, error) {
	if len(blob) < saltSize+ivSize+aesBlockSize {
		return nil, errCipherTooShort
	}

	var salt [saltSize]byte
	var iv [ivSize]byte
	copy(salt[:], blob[:saltSize])
	copy(iv[:], blob[saltSize:saltSize+ivSize])

	key := deriveKey(password, &salt)
	plaintext, err := cbcDecrypt(&key, &iv, blob[saltSize+ivSize:])
	zeroKey(&key)
	return plaintext, err
}

func zeroKey(key *[keySize]byte) {
	for i := range key {
		key[i] = 0
	}
}
