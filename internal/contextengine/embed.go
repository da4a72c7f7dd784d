package contextengine

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"strings"
)

// embedDim is the dimensionality of the local feature-hash embedding. It
// matches the MiniLM family so blobs stay compatible if a real sentence
// encoder replaces the hash later.
const embedDim = 384

// embedText produces a deterministic bag-of-words feature-hash embedding:
// each lowercased token hashes to a dimension, the vector is L2-normalized.
// Cheap, dependency-free, and stable across runs, which is what retrieval
// tests and a local-first bible need.
func embedText(text string) []float32 {
	vec := make([]float32, embedDim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,;:!?\"'()[]")
		if tok == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum32()
		// Sign bit from the hash keeps collisions from only accumulating.
		sign := float32(1)
		if sum&1 == 1 {
			sign = -1
		}
		vec[sum%embedDim] += sign
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

// cosine computes similarity between two normalized vectors.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// encodeVec serializes an embedding as little-endian float32s for sqlite.
func encodeVec(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVec(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
