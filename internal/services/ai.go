package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrAIUnavailable is returned when the OpenAI integration is not configured.
	ErrAIUnavailable = errors.New("openai integration is not configured")
)

// ReasoningClient is the external reasoning-service collaborator. Each call
// is blocking I/O with a bounded timeout; any error routes the caller to its
// deterministic fallback.
type ReasoningClient interface {
	CompleteGeneration(ctx context.Context, prompt string) (string, error)
	CompleteGrading(ctx context.Context, prompt string) (string, error)
	CompleteHint(ctx context.Context, prompt string) (string, error)
}

// AIService implements ReasoningClient against any OpenAI-compatible chat
// completion endpoint.
type AIService struct {
	client *openai.Client
	model  string
}

func NewAIService(apiKey, model, apiEndpoint string) *AIService {
	if apiKey == "" {
		return &AIService{}
	}

	cfg := openai.DefaultConfig(apiKey)
	if apiEndpoint != "" {
		cfg.BaseURL = apiEndpoint
	}

	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (s *AIService) disabled() bool {
	return s.client == nil || s.model == ""
}

func (s *AIService) CompleteGeneration(ctx context.Context, prompt string) (string, error) {
	return s.complete(ctx, prompt, 4096, 0.4, 3*time.Minute)
}

// CompleteGrading is token-capped hard: the grading contract is a single
// CORRECT/INCORRECT verdict.
func (s *AIService) CompleteGrading(ctx context.Context, prompt string) (string, error) {
	return s.complete(ctx, prompt, 20, 0, 30*time.Second)
}

func (s *AIService) CompleteHint(ctx context.Context, prompt string) (string, error) {
	return s.complete(ctx, prompt, 200, 0.4, 30*time.Second)
}

func (s *AIService) complete(ctx context.Context, prompt string, maxTokens int, temperature float32, timeout time.Duration) (string, error) {
	if s.disabled() {
		return "", ErrAIUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("request chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
