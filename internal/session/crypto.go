package session

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
)

// EncryptPassword produces the AES-CBC, PKCS7-padded, base64 ciphertext the
// sign-in endpoint expects. Key and IV arrive as raw configuration strings;
// the key must be a valid AES length and the IV one block.
func EncryptPassword(plain, key, iv string) (string, error) {
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return "", fmt.Errorf("sign-in cipher: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return "", fmt.Errorf("sign-in iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	padded := pkcs7Pad([]byte(plain), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, []byte(iv)).CryptBlocks(out, padded)
	return base64.StdEncoding.EncodeToString(out), nil
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	pad := make([]byte, n)
	for i := range pad {
		pad[i] = byte(n)
	}
	return append(b, pad...)
}
