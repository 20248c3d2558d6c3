package context7

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
)

// ValidKey reports whether key is usable for client IP encryption:
// 64 hex characters, i.e. a 32-byte AES-256 key.
func ValidKey(key string) bool {
	if len(key) != 64 {
		return false
	}
	_, err := hex.DecodeString(key)
	return err == nil
}

// EncryptIP encrypts ip with AES-256-CBC under the hex key and returns
// "ivHex:cipherHex". The server expects this exact shape. On an
// unusable key or any encryption failure the plaintext ip is returned
// so the request still goes through.
func EncryptIP(key, ip string) string {
	if !ValidKey(key) {
		return ip
	}
	raw, err := hex.DecodeString(key)
	if err != nil {
		return ip
	}
	block, err := aes.NewCipher(raw)
	if err != nil {
		return ip
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return ip
	}

	padded := pkcs7Pad([]byte(ip), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(out)
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}
