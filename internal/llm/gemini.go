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

const geminiService = "gemini"

// GeminiAdapter calls the Gemini generateContent REST endpoint.
type GeminiAdapter struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	attempts int
	logger   *slog.Logger
}

// NewGemini creates a Gemini adapter from the given configuration.
func NewGemini(cfg *Config, logger *slog.Logger) *GeminiAdapter {
	return &GeminiAdapter{
		apiKey:   cfg.GeminiAPIKey,
		baseURL:  cfg.GeminiBaseURL,
		client:   &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		attempts: cfg.MaxAttempts,
		logger:   logger.With("adapter", geminiService),
	}
}

func (a *GeminiAdapter) ServiceID() string { return geminiService }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
	MaxOutputTokens  int    `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata *geminiUsage `json:"usageMetadata"`
}

// Invoke sends req to Gemini, retrying rate limits and server errors with
// exponential backoff. The returned text concatenates all candidate parts.
func (a *GeminiAdapter) Invoke(ctx context.Context, req Request) (*Response, error) {
	body := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: req.Prompt}}, Role: "user"},
		},
	}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	if req.JSONResponse || req.MaxTokens > 0 {
		body.GenerationConfig = &geminiGenerationConfig{MaxOutputTokens: req.MaxTokens}
		if req.JSONResponse {
			body.GenerationConfig.ResponseMimeType = "application/json"
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", a.baseURL, req.Model, a.apiKey)

	start := time.Now()
	var lastErr error

	for attempt := 0; attempt < a.attempts; attempt++ {
		if attempt > 0 {
			if err := backoff(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		resp, status, err := a.post(ctx, url, payload)
		if err != nil {
			lastErr = err
			a.logger.Warn("gemini call failed",
				"model", req.Model,
				"attempt", attempt+1,
				"error", err)
			continue
		}
		if status != http.StatusOK {
			lastErr = &TransportError{Service: geminiService, Status: status}
			a.logger.Warn("gemini call rejected",
				"model", req.Model,
				"attempt", attempt+1,
				"status", status)
			if !retryable(status) {
				return nil, lastErr
			}
			continue
		}

		result, err := decodeGemini(resp)
		if err != nil {
			return nil, err
		}
		result.Model = req.Model
		result.Latency = time.Since(start)
		return result, nil
	}

	if lastErr == nil {
		lastErr = &TransportError{Service: geminiService, Err: ctx.Err()}
	}
	return nil, fmt.Errorf("gemini call failed after %d attempts: %w", a.attempts, lastErr)
}

func (a *GeminiAdapter) post(ctx context.Context, url string, payload []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, &TransportError{Service: geminiService, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, &TransportError{Service: geminiService, Err: redactKey(err, a.apiKey)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &TransportError{Service: geminiService, Err: err}
	}

	return data, resp.StatusCode, nil
}

func decodeGemini(data []byte) (*Response, error) {
	var res geminiResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, &TransportError{Service: geminiService, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(res.Candidates) == 0 {
		return nil, &TransportError{Service: geminiService, Err: fmt.Errorf("no candidates returned")}
	}

	var texts []string
	for _, candidate := range res.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				texts = append(texts, part.Text)
			}
		}
	}

	result := &Response{
		RawText:   strings.Join(texts, "\n"),
		ServiceID: geminiService,
	}
	if res.UsageMetadata != nil {
		result.TokensIn = res.UsageMetadata.PromptTokenCount
		result.TokensOut = res.UsageMetadata.CandidatesTokenCount
	}

	return result, nil
}

// redactKey keeps the API key out of logged transport errors.
func redactKey(err error, key string) error {
	if key == "" {
		return err
	}
	msg := strings.ReplaceAll(err.Error(), key, "REDACTED")
	return fmt.Errorf("%s", msg)
}
