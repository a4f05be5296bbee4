package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastParams параметры Argon2id для тестов
var fastParams = KDFParams{Time: 1, Memory: 1024, Threads: 1}

func TestGenerateSalt(t *testing.T) {
	first, err := GenerateSalt()
	require.NoError(t, err)
	assert.Len(t, first, SaltSize)

	second, err := GenerateSalt()
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "соль должна быть случайной")
}

func TestDeriveKey(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	key, err := DeriveKey("correct horse", salt, fastParams)
	require.NoError(t, err)
	assert.Len(t, key, KeyLen)

	// детерминированность
	again, err := DeriveKey("correct horse", salt, fastParams)
	require.NoError(t, err)
	assert.Equal(t, key, again)

	other, err := DeriveKey("battery staple", salt, fastParams)
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	otherSalt, err := GenerateSalt()
	require.NoError(t, err)
	salted, err := DeriveKey("correct horse", otherSalt, fastParams)
	require.NoError(t, err)
	assert.NotEqual(t, key, salted)
}

func TestDeriveKey_Errors(t *testing.T) {
	salt := make([]byte, SaltSize)

	tests := []struct {
		name     string
		wantErr  error
		password string
		salt     []byte
		params   KDFParams
	}{
		{name: "empty password", password: "", salt: salt, params: fastParams, wantErr: ErrEmptyPassword},
		{name: "short salt", password: "pw", salt: make([]byte, 8), params: fastParams, wantErr: ErrInvalidSalt},
		{name: "zero time", password: "pw", salt: salt, params: KDFParams{Memory: 1024, Threads: 1}, wantErr: ErrInvalidParams},
		{name: "zero threads", password: "pw", salt: salt, params: KDFParams{Time: 1, Memory: 1024}, wantErr: ErrInvalidParams},
		{name: "too little memory", password: "pw", salt: salt, params: KDFParams{Time: 1, Memory: 8, Threads: 4}, wantErr: ErrInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := DeriveKey(tt.password, tt.salt, tt.params)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, key)
		})
	}
}

func TestDefaultKDFParams(t *testing.T) {
	assert.NoError(t, DefaultKDFParams().Validate())
}
