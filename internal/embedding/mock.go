package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
	"strings"
)

// MockProvider returns standard-normal vectors seeded from a SHA-256 of the
// text. Each call builds its own generator, so results do not depend on call
// order or concurrency.
type MockProvider struct {
	dims int
}

func NewMockProvider(dims int) *MockProvider {
	if dims <= 0 {
		dims = 1536
	}
	return &MockProvider{dims: dims}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	sum := sha256.Sum256([]byte(text))
	rng := rand.New(rand.NewPCG(binary.BigEndian.Uint64(sum[0:8]), binary.BigEndian.Uint64(sum[8:16])))
	out := make([]float64, m.dims)
	for i := range out {
		out[i] = rng.NormFloat64()
	}
	return out, nil
}
