package processor

import (
	"github.com/golang/snappy"
)

// CompressPayload сжимает исходный текст запроса перед архивированием
func CompressPayload(data []byte) []byte {
	return snappy.Encode(nil, data)
}

// DecompressPayload распаковывает архивированный текст запроса
func DecompressPayload(data []byte) ([]byte, error) {
	decompressed, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, err
	}
	return decompressed, nil
}
