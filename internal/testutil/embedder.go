package testutil

import (
	"context"
	"hash/fnv"
	"strings"
)

// HashEmbedder is a deterministic bag-of-words embedder for tests. Texts
// sharing words get close vectors.
type HashEmbedder struct {
	Dim   int
	Calls int
}

func (h *HashEmbedder) Embed(_ context.Context, text string, _ string) ([]float32, error) {
	h.Calls++
	dim := h.Dim
	if dim <= 0 {
		dim = 16
	}
	out := make([]float32, dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		f := fnv.New32a()
		_, _ = f.Write([]byte(word))
		out[f.Sum32()%uint32(dim)]++
	}
	out[0] += 0.01
	return out, nil
}

func (h *HashEmbedder) ModelName() string {
	return "hash"
}
