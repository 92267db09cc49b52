// Package ai defines the remote model contracts used by the pipeline and the
// helpers that turn unreliable model output into typed values.
package ai

import "context"

// Request is a single text generation call.
type Request struct {
	SystemInstruction string
	UserPrompt        string
	MaxTokens         int
	Temperature       float64
}

// Generator is a text-in, text-out model.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Provider() string
	Model() string
}

// Embedder is a text-in, vector-out model with a fixed output dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbeddingModel() string
}
