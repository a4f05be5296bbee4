package boltdb

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"
)

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func seqFromKey(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

// encodeCompressed сериализует v в JSON и сжимает snappy.
// Используется для крупных значений: снапшоты, архивы, резервная копия.
func encodeCompressed(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal: %w", err)
	}
	return snappy.Encode(nil, data), nil
}

func decodeCompressed(data []byte, v any) error {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return fmt.Errorf("failed to decompress: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to unmarshal: %w", err)
	}
	return nil
}
