// Package openai talks to OpenAI-compatible chat and embedding endpoints.
package openai

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/spigell/talentscore/internal/ai"
	"github.com/spigell/talentscore/internal/logger"
	"github.com/spigell/talentscore/internal/utils"
	"go.uber.org/zap"
)

const (
	// Provider is the provider name reported in logs.
	Provider = "openai"

	defaultModel          = "gpt-4o-mini"
	defaultEmbeddingModel = "text-embedding-3-small"
	defaultMaxLogLength   = 200
)

type chatAPI interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

type embeddingsAPI interface {
	New(ctx context.Context, body openai.EmbeddingNewParams, opts ...option.RequestOption) (*openai.CreateEmbeddingResponse, error)
}

// Options configures a Client. BaseURL selects any OpenAI-compatible endpoint.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	MaxLogLength   int
}

// Client implements ai.Generator and ai.Embedder with openai-go.
type Client struct {
	chat           chatAPI
	embeddings     embeddingsAPI
	model          string
	embeddingModel string
	maxLogLen      int
	logger         *zap.Logger
}

var (
	_ ai.Generator = (*Client)(nil)
	_ ai.Embedder  = (*Client)(nil)
)

// New builds a Client. The api key is required.
func New(opts Options, log *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(base))
	}

	client := openai.NewClient(requestOpts...)
	return newClient(client.Chat.Completions, client.Embeddings, opts, log), nil
}

func newClient(chat chatAPI, embeddings embeddingsAPI, opts Options, log *zap.Logger) *Client {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	embeddingModel := strings.TrimSpace(opts.EmbeddingModel)
	if embeddingModel == "" {
		embeddingModel = defaultEmbeddingModel
	}
	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Client{
		chat:           chat,
		embeddings:     embeddings,
		model:          model,
		embeddingModel: embeddingModel,
		maxLogLen:      maxLogLen,
		logger:         logger.WithCommonFields(log, Provider, model),
	}
}

func (c *Client) Provider() string { return Provider }

func (c *Client) Model() string { return c.model }

func (c *Client) EmbeddingModel() string { return c.embeddingModel }

// Generate runs one chat completion and returns the first choice's content.
func (c *Client) Generate(ctx context.Context, req ai.Request) (string, error) {
	prompt := strings.TrimSpace(req.UserPrompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system := strings.TrimSpace(req.SystemInstruction); system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Messages:    openai.F(messages),
		Model:       openai.F(openai.ChatModel(c.model)),
		Temperature: openai.F(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.F(int64(req.MaxTokens))
	}

	c.logger.Debug("openai chat completion request",
		zap.String("prompt_preview", utils.TruncateForLog(prompt, c.maxLogLen)),
	)

	resp, err := c.chat.New(ctx, params)
	if err != nil {
		return "", &ai.RemoteServiceError{Provider: Provider, Op: "chat completion", Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", &ai.MalformedResponseError{Err: errors.New("openai api returned no choices")}
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", &ai.MalformedResponseError{Err: errors.New("openai api returned empty content")}
	}

	c.logger.Debug("openai chat completion response",
		zap.String("response_preview", utils.TruncateForLog(content, c.maxLogLen)),
	)

	return content, nil
}

// Embed returns the embedding of text converted to float32.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("embedding input must not be empty")
	}

	resp, err := c.embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.F[openai.EmbeddingNewParamsInputUnion](shared.UnionString(text)),
		Model: openai.F(openai.EmbeddingModel(c.embeddingModel)),
	})
	if err != nil {
		return nil, &ai.RemoteServiceError{Provider: Provider, Op: "embeddings", Err: err}
	}
	if resp == nil || len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, &ai.MalformedResponseError{Err: errors.New("openai api returned no embedding")}
	}

	values := resp.Data[0].Embedding
	vector := make([]float32, len(values))
	for i, v := range values {
		vector[i] = float32(v)
	}

	return vector, nil
}
