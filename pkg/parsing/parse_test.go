package parsing_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/scriven-ai/scriven/pkg/parsing"
)

func TestValidate(t *testing.T) {
	t.Run("plain object", func(t *testing.T) {
		obj, err := parsing.Validate(`{"relevance_score": 8, "domain": "optics"}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if obj["domain"] != "optics" {
			t.Errorf("expected domain optics, got %v", obj["domain"])
		}
	})

	t.Run("fenced object", func(t *testing.T) {
		raw := "Here is the result:\n```json\n{\"summary\": \"valid\"}\n```"
		obj, err := parsing.Validate(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if obj["summary"] != "valid" {
			t.Errorf("expected summary valid, got %v", obj["summary"])
		}
	})

	t.Run("fenced without language tag", func(t *testing.T) {
		raw := "```\n{\"ok\": true}\n```"
		obj, err := parsing.Validate(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if obj["ok"] != true {
			t.Errorf("expected ok true, got %v", obj["ok"])
		}
	})

	t.Run("truncated fenced object", func(t *testing.T) {
		raw := "```json\n{\"summary\": \"the document descri"
		_, err := parsing.Validate(raw)
		assertReason(t, err, parsing.ReasonDecodeError)
	})

	t.Run("prose only", func(t *testing.T) {
		_, err := parsing.Validate("I could not find any relevant information in the document.")
		assertReason(t, err, parsing.ReasonNoStructure)
	})

	t.Run("empty string", func(t *testing.T) {
		_, err := parsing.Validate("")
		assertReason(t, err, parsing.ReasonNoStructure)
	})

	t.Run("whitespace only", func(t *testing.T) {
		_, err := parsing.Validate("   \n\t  ")
		assertReason(t, err, parsing.ReasonNoStructure)
	})

	t.Run("top level array", func(t *testing.T) {
		_, err := parsing.Validate(`[1, 2, 3]`)
		assertReason(t, err, parsing.ReasonNotObject)
	})

	t.Run("error envelope", func(t *testing.T) {
		_, err := parsing.Validate(`{"_parse_error": "model refused", "raw": "..."}`)
		assertReason(t, err, parsing.ReasonErrorEnvelope)
	})

	t.Run("error key envelope", func(t *testing.T) {
		_, err := parsing.Validate(`{"error": "rate limited"}`)
		assertReason(t, err, parsing.ReasonErrorEnvelope)
	})

	t.Run("preserves raw text on failure", func(t *testing.T) {
		raw := "```json\n{\"broken\": "
		_, err := parsing.Validate(raw)

		var parseErr *parsing.ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected *ParseError, got %T", err)
		}
		if parseErr.Raw != raw {
			t.Errorf("expected raw text preserved, got %q", parseErr.Raw)
		}
	})

	t.Run("matches sentinel", func(t *testing.T) {
		_, err := parsing.Validate("not json")
		if !errors.Is(err, parsing.ErrParseFailed) {
			t.Errorf("expected errors.Is(err, ErrParseFailed), got %v", err)
		}
	})

	t.Run("never panics on arbitrary input", func(t *testing.T) {
		inputs := []string{
			"```",
			"``````",
			"```json",
			"{",
			"}",
			"null",
			"42",
			`"quoted"`,
			strings.Repeat("`", 100),
			"```json\n```\n```json\n{\"a\": 1}\n```",
		}
		for _, input := range inputs {
			obj, err := parsing.Validate(input)
			if obj == nil && err == nil {
				t.Errorf("input %q returned neither value nor error", input)
			}
		}
	})
}

func TestParse(t *testing.T) {
	type screening struct {
		RelevanceScore int    `json:"relevance_score"`
		Domain         string `json:"domain"`
	}

	t.Run("typed decode", func(t *testing.T) {
		result, err := parsing.Parse[screening](`{"relevance_score": 7, "domain": "ai_ml"}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.RelevanceScore != 7 || result.Domain != "ai_ml" {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("typed decode from fenced block", func(t *testing.T) {
		raw := "```json\n{\"relevance_score\": 3, \"domain\": \"bio\"}\n```"
		result, err := parsing.Parse[screening](raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Domain != "bio" {
			t.Errorf("expected domain bio, got %q", result.Domain)
		}
	})

	t.Run("typed decode failure", func(t *testing.T) {
		_, err := parsing.Parse[screening]("no structure here")
		if !errors.Is(err, parsing.ErrParseFailed) {
			t.Errorf("expected parse failure, got %v", err)
		}
	})
}

func TestClean(t *testing.T) {
	t.Run("no fence passthrough", func(t *testing.T) {
		if got := parsing.Clean(`  {"a": 1}  `); got != `{"a": 1}` {
			t.Errorf("expected trimmed passthrough, got %q", got)
		}
	})

	t.Run("strips fence and preamble", func(t *testing.T) {
		raw := "Sure, here you go:\n```json\n{\"a\": 1}\n```\nLet me know if you need more."
		if got := parsing.Clean(raw); got != `{"a": 1}` {
			t.Errorf("expected fenced content, got %q", got)
		}
	})

	t.Run("unterminated fence keeps remainder", func(t *testing.T) {
		raw := "```json\n{\"a\": 1}"
		if got := parsing.Clean(raw); got != `{"a": 1}` {
			t.Errorf("expected remainder after open fence, got %q", got)
		}
	})
}

func assertReason(t *testing.T, err error, want parsing.Reason) {
	t.Helper()

	var parseErr *parsing.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v (%T)", err, err)
	}
	if parseErr.Reason != want {
		t.Errorf("expected reason %s, got %s", want, parseErr.Reason)
	}
}
