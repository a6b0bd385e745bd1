// Package ai implements the digest TextGenerator on top of Gemini via
// LangChainGo. The caller bounds every call with a context timeout; a hung
// or failing model never blocks a scheduler cycle.
package ai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// GeminiGenerator generates digest personalization notes.
type GeminiGenerator struct {
	llm llms.Model
}

// NewGeminiGenerator initializes the Gemini client once; the instance is
// reused for every call.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("googleai.New: %w", err)
	}
	return &GeminiGenerator{llm: llm}, nil
}

// Generate sends the prompt and returns the model's plain-text response.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp, nil
}
