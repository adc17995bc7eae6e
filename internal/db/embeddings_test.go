package db

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestBytesToEmbedding_KnownValues(t *testing.T) {
	// float32(1.0) in LE = 0x3F800000 = [0x00, 0x00, 0x80, 0x3F]
	// float32(-0.5) in LE = 0xBF000000 = [0x00, 0x00, 0x00, 0xBF]
	data := []byte{0x00, 0x00, 0x80, 0x3F, 0x00, 0x00, 0x00, 0xBF}

	result := bytesToEmbedding(data)
	if len(result) != 2 {
		t.Fatalf("expected 2 floats, got %d", len(result))
	}
	if result[0] != 1.0 {
		t.Errorf("expected 1.0, got %f", result[0])
	}
	if result[1] != -0.5 {
		t.Errorf("expected -0.5, got %f", result[1])
	}
}

func TestBytesToEmbedding_Empty(t *testing.T) {
	if result := bytesToEmbedding(nil); len(result) != 0 {
		t.Errorf("expected empty, got %d elements", len(result))
	}
	if result := bytesToEmbedding([]byte{}); len(result) != 0 {
		t.Errorf("expected empty, got %d elements", len(result))
	}
}

func TestBytesToEmbedding_ShortChunk(t *testing.T) {
	// 5 bytes = 1 full float + 1 byte leftover
	data := make([]byte, 5)
	binary.LittleEndian.PutUint32(data[0:4], math.Float32bits(2.5))
	data[4] = 0xFF

	result := bytesToEmbedding(data)
	if len(result) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(result))
	}
	if result[0] != 2.5 {
		t.Errorf("expected 2.5, got %f", result[0])
	}
	if result[1] != 0.0 {
		t.Errorf("trailing chunk should be 0.0, got %f", result[1])
	}
}

func TestEmbeddingToBytes_RoundTrip300Dim(t *testing.T) {
	v := make([]float32, 300)
	for i := range v {
		v[i] = float32(i)*0.01 - 1
	}
	data := embeddingToBytes(v)
	if len(data) != 1200 {
		t.Fatalf("expected 1200 bytes, got %d", len(data))
	}
	got := bytesToEmbedding(data)
	for i := range v {
		if math.Float32bits(got[i]) != math.Float32bits(v[i]) {
			t.Fatalf("dim %d: got %f, want %f", i, got[i], v[i])
		}
	}
}

func TestEmbeddingToBytes_EmptyIsNull(t *testing.T) {
	if embeddingToBytes(nil) != nil || embeddingToBytes([]float32{}) != nil {
		t.Error("empty vectors should encode to nil")
	}
}
