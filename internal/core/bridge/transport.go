package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/scraper-sky/2d-scene-editor/internal/core/observability/log"
)

// Transport delivers an edit request to the generation side and returns its
// answer. Implementations report every failure as a *TransportError.
type Transport interface {
	PushEdit(ctx context.Context, req EditRequest) (EditResponse, error)
}

// TransportConfig configures HTTPTransport.
type TransportConfig struct {
	// Endpoint is the relay's push URL, e.g. http://localhost:3001/push-ai.
	Endpoint string
	Timeout  time.Duration
	// MaxResponseSize caps how much of a response body is read.
	MaxResponseSize int64
}

func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Endpoint:        "http://localhost:3001/push-ai",
		Timeout:         90 * time.Second,
		MaxResponseSize: 4 * 1024 * 1024, // 4MB
	}
}

// HTTPTransport posts edit requests to the relay as JSON.
type HTTPTransport struct {
	config TransportConfig
	client *http.Client
	logger log.Log
}

var _ Transport = (*HTTPTransport)(nil)

func NewHTTPTransport(config TransportConfig, logger log.Log) *HTTPTransport {
	if config.MaxResponseSize <= 0 {
		config.MaxResponseSize = DefaultTransportConfig().MaxResponseSize
	}
	return &HTTPTransport{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger.With(log.String("component", "edit_transport")),
	}
}

func (t *HTTPTransport) PushEdit(ctx context.Context, req EditRequest) (EditResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return EditResponse{}, &TransportError{Err: fmt.Errorf("encode request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return EditResponse{}, &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		t.logger.Error("Relay request failed", log.String("endpoint", t.config.Endpoint), log.Error(err))
		return EditResponse{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, t.config.MaxResponseSize+1))
	if err != nil {
		return EditResponse{}, &TransportError{StatusCode: resp.StatusCode, Err: err}
	}
	if int64(len(raw)) > t.config.MaxResponseSize {
		return EditResponse{}, &TransportError{StatusCode: resp.StatusCode, Err: errors.New("response body too large")}
	}

	t.logger.Debug("Relay responded",
		log.Int("status", resp.StatusCode),
		log.Int("bytes", len(raw)),
		log.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure ErrorResponse
		if json.Unmarshal(raw, &failure) != nil || failure.Error == "" {
			failure.Error = strings.TrimSpace(string(raw))
		}
		return EditResponse{}, &TransportError{StatusCode: resp.StatusCode, Message: failure.Error}
	}

	var envelope struct {
		UpdatedJSON *string `json:"updatedJson"`
	}
	if err = json.Unmarshal(raw, &envelope); err != nil {
		return EditResponse{}, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if envelope.UpdatedJSON == nil {
		return EditResponse{}, &TransportError{StatusCode: resp.StatusCode, Err: errors.New("response has no updatedJson")}
	}
	return EditResponse{UpdatedJSON: *envelope.UpdatedJSON}, nil
}
