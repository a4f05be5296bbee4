package crypto

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeyLen)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestEncryptDecrypt(t *testing.T) {
	key := testKey(t)

	tests := []struct {
		name      string
		plaintext []byte
		aad       []byte
	}{
		{name: "short text", plaintext: []byte("Hello, World!")},
		{name: "with header", plaintext: []byte(`{"task":{}}`), aad: []byte("OPSB\x01\x03")},
		{name: "empty plaintext", plaintext: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypted, err := Encrypt(tt.plaintext, key, tt.aad)
			require.NoError(t, err)
			assert.Len(t, encrypted, NonceSize+len(tt.plaintext)+TagSize)

			decrypted, err := Decrypt(encrypted, key, tt.aad)
			require.NoError(t, err)
			assert.Equal(t, string(tt.plaintext), string(decrypted))
		})
	}
}

func TestEncrypt_UniqueNonce(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("same message")

	first, err := Encrypt(plaintext, key, nil)
	require.NoError(t, err)
	second, err := Encrypt(plaintext, key, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first[:NonceSize], second[:NonceSize], "nonce должен быть случайным")
	assert.NotEqual(t, first, second)
}

func TestEncrypt_InvalidKey(t *testing.T) {
	for _, size := range []int{0, 16, 64} {
		_, err := Encrypt([]byte("test"), make([]byte, size), nil)
		assert.ErrorIs(t, err, ErrInvalidKey)
	}
}

func TestDecrypt_Errors(t *testing.T) {
	key := testKey(t)
	aad := []byte("header")
	valid, err := Encrypt([]byte("test message"), key, aad)
	require.NoError(t, err)

	corrupted := append([]byte{}, valid...)
	corrupted[len(corrupted)-1] ^= 0xff

	tests := []struct {
		name      string
		wantErr   error
		encrypted []byte
		key       []byte
		aad       []byte
	}{
		{name: "too short", encrypted: make([]byte, NonceSize), key: key, aad: aad, wantErr: ErrDecrypt},
		{name: "invalid key length", encrypted: valid, key: make([]byte, 16), aad: aad, wantErr: ErrInvalidKey},
		{name: "wrong key", encrypted: valid, key: make([]byte, KeyLen), aad: aad, wantErr: ErrDecrypt},
		{name: "corrupted data", encrypted: corrupted, key: key, aad: aad, wantErr: ErrDecrypt},
		{name: "different header", encrypted: valid, key: key, aad: []byte("other"), wantErr: ErrDecrypt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decrypted, err := Decrypt(tt.encrypted, tt.key, tt.aad)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, decrypted)
		})
	}
}
