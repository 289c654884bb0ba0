// Package parsing validates raw model output as structured JSON.
//
// Generative services routinely wrap JSON in markdown fences, prepend prose,
// truncate output, or emit error-shaped payloads inside a decodable envelope.
// Validate and Parse accept any string and always return either a decoded
// value or a *ParseError carrying the original text; they never panic and
// perform no I/O, so they can be property-tested in isolation.
package parsing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrParseFailed is the sentinel matched by errors.Is for every parse failure.
var ErrParseFailed = errors.New("failed to parse response")

// Reason classifies why a response was rejected.
type Reason string

// Rejection reasons. NoStructure and DecodeError are kept distinct so
// operators can tell "the model answered in prose" from "the model emitted
// broken or truncated JSON". ErrorEnvelope marks payloads that decode
// cleanly but carry an upstream error marker.
const (
	ReasonNoStructure   Reason = "no_structure"
	ReasonDecodeError   Reason = "decode_error"
	ReasonNotObject     Reason = "not_object"
	ReasonErrorEnvelope Reason = "error_envelope"
)

// Keys that mark an error-shaped payload produced by an upstream fallback.
var envelopeMarkers = []string{"_parse_error", "error"}

// ParseError reports a structural validation failure. Raw preserves the
// original, unstripped response text for diagnostics.
type ParseError struct {
	Raw    string
	Reason Reason
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", ErrParseFailed, e.Reason)
}

// Is reports whether target is ErrParseFailed, so callers can match with
// errors.Is without inspecting the concrete type.
func (e *ParseError) Is(target error) bool {
	return target == ErrParseFailed
}

// Validate decodes raw as a JSON object, stripping a markdown code fence if
// direct decoding fails. Objects carrying an error marker key are rejected
// with ReasonErrorEnvelope even though they decode cleanly.
func Validate(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, &ParseError{Raw: raw, Reason: ReasonNoStructure}
	}

	if obj, reason, ok := decodeObject(text); ok {
		return checkEnvelope(obj, raw)
	} else if reason == ReasonNotObject {
		return nil, &ParseError{Raw: raw, Reason: ReasonNotObject}
	}

	cleaned := Clean(text)
	if obj, reason, ok := decodeObject(cleaned); ok {
		return checkEnvelope(obj, raw)
	} else if reason == ReasonNotObject {
		return nil, &ParseError{Raw: raw, Reason: ReasonNotObject}
	}

	// A payload that starts like JSON but fails to decode is broken or
	// truncated output; anything else is prose with no structure at all.
	if strings.HasPrefix(cleaned, "{") {
		return nil, &ParseError{Raw: raw, Reason: ReasonDecodeError}
	}
	return nil, &ParseError{Raw: raw, Reason: ReasonNoStructure}
}

// Parse decodes raw into T, stripping a markdown code fence if direct
// decoding fails. Returns a *ParseError preserving the original text when
// both attempts fail.
func Parse[T any](raw string) (T, error) {
	var result T
	text := strings.TrimSpace(raw)

	if err := json.Unmarshal([]byte(text), &result); err == nil {
		return result, nil
	}

	cleaned := Clean(text)
	if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
		return result, nil
	}

	var zero T
	reason := ReasonNoStructure
	if strings.HasPrefix(cleaned, "{") || strings.HasPrefix(cleaned, "[") {
		reason = ReasonDecodeError
	}
	return zero, &ParseError{Raw: raw, Reason: reason}
}

// Clean strips a markdown code fence from text using a bounded line scan.
// It returns the content between the first opening fence and the matching
// closing fence; when no closing fence exists (truncated output), everything
// after the opening fence is returned. Text without a fence is returned
// trimmed and otherwise untouched.
func Clean(text string) string {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			start = i
			break
		}
	}
	if start == -1 {
		return text
	}

	var body []string
	for _, line := range lines[start+1:] {
		if strings.TrimSpace(line) == "```" {
			break
		}
		body = append(body, line)
	}

	return strings.TrimSpace(strings.Join(body, "\n"))
}

func decodeObject(text string) (map[string]any, Reason, bool) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, ReasonDecodeError, false
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, ReasonNotObject, false
	}

	return obj, "", true
}

func checkEnvelope(obj map[string]any, raw string) (map[string]any, error) {
	for _, marker := range envelopeMarkers {
		if _, found := obj[marker]; found {
			return nil, &ParseError{Raw: raw, Reason: ReasonErrorEnvelope}
		}
	}
	return obj, nil
}
