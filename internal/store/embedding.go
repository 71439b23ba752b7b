package store

import (
	"encoding/binary"
	"math"
)

// EncodeEmbedding converts a float32 vector to a little-endian byte slice,
// 4 bytes per dimension. Returns nil for an empty vector.
func EncodeEmbedding(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	data := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(data[i*4:i*4+4], math.Float32bits(f))
	}
	return data
}

// DecodeEmbedding converts a little-endian byte slice back to []float32.
// Each 4 bytes = one LE float32. Short trailing chunk → 0.0.
func DecodeEmbedding(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	n := len(data) / 4
	if len(data)%4 != 0 {
		n++ // include partial chunk as 0.0
	}
	result := make([]float32, n)
	for i := 0; i < len(data)/4; i++ {
		bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		result[i] = math.Float32frombits(bits)
	}
	return result
}
