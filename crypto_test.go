package entropy8

import (
	"bytes"
	"testing"
)

func TestPayloadCipherRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("100k-iteration KDF")
	}

	plaintext := []byte("directory plus data blocks, all of it")
	blob, err := encryptPayload([]byte("hunter2"), plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	// salt(16) || iv(16) || ciphertext, ciphertext a positive multiple of 16.
	ctLen := len(blob) - saltSize - ivSize
	if ctLen <= 0 || ctLen%aesBlockSize != 0 {
		t.Fatalf("ciphertext length %d not a positive multiple of %d", ctLen, aesBlockSize)
	}
	wantCT := (len(plaintext)/aesBlockSize + 1) * aesBlockSize
	if ctLen != wantCT {
		t.Fatalf("ciphertext length %d, want %d", ctLen, wantCT)
	}

	got, err := decryptPayload([]byte("hunter2"), blob)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatal("round trip mismatch")
	}
}

func TestPayloadCipherWrongPassword(t *testing.T) {
	if testing.Short() {
		t.Skip("100k-iteration KDF")
	}

	blob, err := encryptPayload([]byte("right"), []byte("secret payload"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := decryptPayload([]byte("wrong"), blob); err == nil {
		t.Fatal("wrong password accepted")
	}
}

func TestPayloadCipherFreshSaltAndIV(t *testing.T) {
	if testing.Short() {
		t.Skip("100k-iteration KDF")
	}

	a, err := encryptPayload([]byte("pw"), []byte("same plaintext"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	b, err := encryptPayload([]byte("pw"), []byte("same plaintext"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Equal(a[:saltSize], b[:saltSize]) {
		t.Error("salt reused across encryptions")
	}
	if bytes.Equal(a[saltSize:saltSize+ivSize], b[saltSize:saltSize+ivSize]) {
		t.Error("iv reused across encryptions")
	}
}

func TestDecryptPayloadTooShort(t *testing.T) {
	if _, err := decryptPayload([]byte("pw"), make([]byte, saltSize+ivSize)); err == nil {
		t.Fatal("blob without a ciphertext block accepted")
	}
}
