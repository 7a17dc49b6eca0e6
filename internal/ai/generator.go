package ai

import (
	"context"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// Role tags a prompt turn.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Turn is one role-tagged text turn of a structured prompt.
type Turn struct {
	Role    Role
	Content string
}

// FragmentStream is a lazy, finite, non-restartable sequence of text
// fragments. Recv returns io.EOF when the sequence ends.
type FragmentStream interface {
	Recv() (string, error)
	Close() error
}

// Generator produces a fragment stream for a structured prompt.
type Generator interface {
	Stream(ctx context.Context, prompt []Turn) (FragmentStream, error)
}

// OpenAIGenerator streams chat completions from an OpenAI-compatible backend.
type OpenAIGenerator struct {
	client *openai.Client
	cfg    config.AIConfig
}

// NewOpenAIGenerator builds a generator from configuration. A custom BaseURL
// points the client at any OpenAI-compatible provider.
func NewOpenAIGenerator(cfg config.AIConfig) *OpenAIGenerator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}
}

// Stream opens a completion stream for the prompt.
func (g *OpenAIGenerator) Stream(ctx context.Context, prompt []Turn) (FragmentStream, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(prompt))
	for _, turn := range prompt {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}

	stream, err := g.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		Messages:    messages,
		Temperature: float32(g.cfg.Temperature),
		MaxTokens:   g.cfg.MaxTokens,
		TopP:        float32(g.cfg.TopP),
		Stream:      true,
	})
	if err != nil {
		return nil, err
	}
	return &openAIFragmentStream{stream: stream}, nil
}

type openAIFragmentStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openAIFragmentStream) Recv() (string, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", io.EOF
	}
	return resp.Choices[0].Delta.Content, nil
}

func (s *openAIFragmentStream) Close() error {
	return s.stream.Close()
}
