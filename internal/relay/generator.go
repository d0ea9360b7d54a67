package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/scraper-sky/2d-scene-editor/internal/core/observability/log"
	"github.com/scraper-sky/2d-scene-editor/internal/core/prompt"
)

// Generator produces the model's reply text for a conversation.
type Generator interface {
	Generate(ctx context.Context, messages []prompt.Message) (string, error)
}

// OpenAIGenerator talks to an OpenAI-compatible chat completions endpoint.
type OpenAIGenerator struct {
	config ProviderConfig
	apiKey string
	client *http.Client
	logger log.Log
}

var _ Generator = (*OpenAIGenerator)(nil)

func NewOpenAIGenerator(config Config, logger log.Log) *OpenAIGenerator {
	return &OpenAIGenerator{
		config: config.Provider,
		apiKey: config.APIKey,
		client: &http.Client{Timeout: config.Provider.Timeout},
		logger: logger.With(log.String("component", "generator"), log.String("model", config.Provider.Model)),
	}
}

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []prompt.Message `json:"messages"`
	Temperature float64          `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message prompt.Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (g *OpenAIGenerator) Generate(ctx context.Context, messages []prompt.Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       g.config.Model,
		Messages:    messages,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProvider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", ErrProvider, err)
	}

	var out chatResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := http.StatusText(resp.StatusCode)
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			reason = out.Error.Message
		}
		return "", fmt.Errorf("%w: status %d: %s", ErrProvider, resp.StatusCode, reason)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: decode body: %w", ErrProvider, decodeErr)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", ErrProvider)
	}

	g.logger.Debug("Provider replied",
		log.Duration("elapsed", time.Since(start)),
		log.Int("chars", len(out.Choices[0].Message.Content)))
	return out.Choices[0].Message.Content, nil
}
