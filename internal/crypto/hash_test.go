package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksum(t *testing.T) {
	data := []byte(`{"task":{"ids":[],"entities":{}}}`)

	sum := Checksum(data)
	assert.Len(t, sum, ChecksumSize)
	assert.Equal(t, sum, Checksum(data))
	assert.NoError(t, VerifyChecksum(data, sum))

	assert.ErrorIs(t, VerifyChecksum([]byte("other"), sum), ErrChecksumMismatch)
	assert.ErrorIs(t, VerifyChecksum(data, sum[:8]), ErrChecksumMismatch)
}
