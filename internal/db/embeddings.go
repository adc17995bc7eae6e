package db

import (
	"encoding/binary"
	"math"
)

// embeddingToBytes encodes a vector as little-endian float32s. A nil or
// empty vector is stored as NULL.
func embeddingToBytes(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	data := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(f))
	}
	return data
}

// bytesToEmbedding converts a little-endian byte slice to []float32.
// Each 4 bytes = one LE float32. Short trailing chunk → 0.0.
func bytesToEmbedding(data []byte) []float32 {
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

// CountNodesWithEmbeddings returns how many nodes of a run carry a vector.
func (d *DB) CountNodesWithEmbeddings(runID string) (int, error) {
	var count int
	err := d.conn.QueryRow("SELECT COUNT(*) FROM nodes WHERE run_id = ? AND embedding IS NOT NULL", runID).Scan(&count)
	return count, err
}
