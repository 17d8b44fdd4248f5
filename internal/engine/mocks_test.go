package engine

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tatianab/survival-run/internal/llm"
)

type mockNarrator struct {
	mock.Mock
}

func (m *mockNarrator) Generate(ctx context.Context, systemPrompt, userPrompt string, opts llm.GenerateOptions) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt, opts)
	return args.String(0), args.Error(1)
}

type mockImages struct {
	mock.Mock
}

func (m *mockImages) GenerateImage(ctx context.Context, prompt string, opts llm.ImageOptions) ([]byte, error) {
	args := m.Called(ctx, prompt, opts)
	var img []byte
	if v := args.Get(0); v != nil {
		img = v.([]byte)
	}
	return img, args.Error(1)
}

type fixedRand int

func (r fixedRand) IntN(n int) int { return int(r) % n }
