package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	anthropicService = "anthropic"
	anthropicVersion = "2023-06-01"

	defaultMaxTokens = 4096
)

// AnthropicAdapter calls the Anthropic messages REST endpoint. The pipeline
// uses it for diagram generation, where the raw text is Mermaid source
// rather than JSON.
type AnthropicAdapter struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	attempts int
	logger   *slog.Logger
}

// NewAnthropic creates an Anthropic adapter from the given configuration.
func NewAnthropic(cfg *Config, logger *slog.Logger) *AnthropicAdapter {
	return &AnthropicAdapter{
		apiKey:   cfg.AnthropicAPIKey,
		baseURL:  cfg.AnthropicBaseURL,
		client:   &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		attempts: cfg.MaxAttempts,
		logger:   logger.With("adapter", anthropicService),
	}
}

func (a *AnthropicAdapter) ServiceID() string { return anthropicService }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Invoke sends req to the messages endpoint, retrying rate limits and server
// errors with exponential backoff.
func (a *AnthropicAdapter) Invoke(ctx context.Context, req Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body := anthropicRequest{
		Model:     req.Model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.Prompt},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode anthropic request: %w", err)
	}

	start := time.Now()
	var lastErr error

	for attempt := 0; attempt < a.attempts; attempt++ {
		if attempt > 0 {
			if err := backoff(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		data, status, err := a.post(ctx, payload)
		if err != nil {
			lastErr = err
			a.logger.Warn("anthropic call failed",
				"model", req.Model,
				"attempt", attempt+1,
				"error", err)
			continue
		}
		if status != http.StatusOK {
			lastErr = &TransportError{Service: anthropicService, Status: status}
			a.logger.Warn("anthropic call rejected",
				"model", req.Model,
				"attempt", attempt+1,
				"status", status)
			if !retryable(status) {
				return nil, lastErr
			}
			continue
		}

		result, err := decodeAnthropic(data)
		if err != nil {
			return nil, err
		}
		result.Model = req.Model
		result.Latency = time.Since(start)
		return result, nil
	}

	if lastErr == nil {
		lastErr = &TransportError{Service: anthropicService, Err: ctx.Err()}
	}
	return nil, fmt.Errorf("anthropic call failed after %d attempts: %w", a.attempts, lastErr)
}

func (a *AnthropicAdapter) post(ctx context.Context, payload []byte) ([]byte, int, error) {
	url := fmt.Sprintf("%s/messages", a.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, &TransportError{Service: anthropicService, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, &TransportError{Service: anthropicService, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &TransportError{Service: anthropicService, Err: err}
	}

	return data, resp.StatusCode, nil
}

func decodeAnthropic(data []byte) (*Response, error) {
	var res anthropicResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, &TransportError{Service: anthropicService, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(res.Content) == 0 {
		return nil, &TransportError{Service: anthropicService, Err: fmt.Errorf("no content returned")}
	}

	var texts []string
	for _, block := range res.Content {
		if block.Type == "text" && block.Text != "" {
			texts = append(texts, block.Text)
		}
	}

	return &Response{
		RawText:   strings.Join(texts, "\n"),
		TokensIn:  res.Usage.InputTokens,
		TokensOut: res.Usage.OutputTokens,
		ServiceID: anthropicService,
	}, nil
}
