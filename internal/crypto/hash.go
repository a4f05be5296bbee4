package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
)

// ChecksumSize размер контрольной суммы SHA-256
const ChecksumSize = sha256.Size

// Checksum возвращает SHA-256 от data
func Checksum(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// VerifyChecksum сравнивает контрольную сумму data с sum
func VerifyChecksum(data, sum []byte) error {
	if subtle.ConstantTimeCompare(Checksum(data), sum) != 1 {
		return ErrChecksumMismatch
	}
	return nil
}
