// Package llm provides adapters for the generative services the analysis
// pipeline calls, plus the pricing table used for cost accounting.
//
// Adapters transport prompts and return raw text with token counts. They
// never interpret the text: a syntactically broken model answer is a
// successful Invoke, and only network or service failures surface as errors.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTransport is the sentinel matched by errors.Is for adapter failures.
var ErrTransport = errors.New("model service unavailable")

// Request describes a single model invocation.
type Request struct {
	Model        string
	System       string
	Prompt       string
	JSONResponse bool
	MaxTokens    int
}

// Response carries the raw model output and its usage metadata. RawText is
// untrusted: callers validate it with the parsing package before use.
type Response struct {
	RawText    string
	TokensIn   int
	TokensOut  int
	ServiceID  string
	Model      string
	Latency    time.Duration
}

// Adapter invokes a generative service. Implementations retry transient
// failures internally and honor ctx cancellation between attempts.
type Adapter interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
	ServiceID() string
}

// TransportError reports a failed service call after retries were exhausted.
type TransportError struct {
	Service string
	Status  int
	Err     error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s returned status %d", ErrTransport, e.Service, e.Status)
	}
	return fmt.Sprintf("%s: %s: %v", ErrTransport, e.Service, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// retryable reports whether a service status warrants another attempt.
// Client errors other than rate limiting are permanent.
func retryable(status int) bool {
	return status == 429 || status >= 500
}

// backoff sleeps 2^attempt seconds or returns early when ctx is done.
func backoff(ctx context.Context, attempt int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(1<<attempt) * time.Second):
		return nil
	}
}
