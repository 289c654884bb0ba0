package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/scriven-ai/scriven/internal/jobs"
	"github.com/scriven-ai/scriven/internal/llm"
	"github.com/scriven-ai/scriven/internal/pipeline"
)

func TestExecutorRunStage(t *testing.T) {
	jobID := uuid.New()

	t.Run("valid response completes the phase", func(t *testing.T) {
		store := newFakeStore()
		adapter := &fakeAdapter{respond: func(int, llm.Request) (*llm.Response, error) {
			return okResponse(100, 50)
		}}
		exec := pipeline.NewExecutor(store, adapter, discard())

		outcome := exec.RunStage(context.Background(), jobID, jobs.PhaseScreening, "abstract text", nil)

		if outcome.Status != jobs.StatusCompleted {
			t.Fatalf("status = %s, want %s", outcome.Status, jobs.StatusCompleted)
		}
		if outcome.Model != llm.ModelFlash {
			t.Errorf("model = %s, want %s", outcome.Model, llm.ModelFlash)
		}
		if want := llm.CalcCost(llm.ModelFlash, 100, 50); outcome.CostUSD != want {
			t.Errorf("cost = %v, want %v", outcome.CostUSD, want)
		}
		if adapter.callCount() != 1 {
			t.Errorf("adapter calls = %d, want 1", adapter.callCount())
		}
		if got := store.phaseStatus(jobID, jobs.PhaseScreening); got != jobs.StatusCompleted {
			t.Errorf("persisted status = %s, want %s", got, jobs.StatusCompleted)
		}
		rec := store.phase(jobID, jobs.PhaseScreening)
		if rec.completion.TokensIn != 100 || rec.completion.TokensOut != 50 {
			t.Errorf("persisted tokens = %d/%d, want 100/50", rec.completion.TokensIn, rec.completion.TokensOut)
		}
		if _, ok := outcome.Payload["summary"]; !ok {
			t.Error("payload missing summary field")
		}
	})

	t.Run("extraction phases use the reasoning model", func(t *testing.T) {
		store := newFakeStore()
		var seen string
		adapter := &fakeAdapter{respond: func(_ int, req llm.Request) (*llm.Response, error) {
			seen = req.Model
			return okResponse(10, 10)
		}}
		exec := pipeline.NewExecutor(store, adapter, discard())

		exec.RunStage(context.Background(), jobID, jobs.PhaseRecipe, "methods", nil)

		if seen != llm.ModelPro {
			t.Errorf("recipe model = %s, want %s", seen, llm.ModelPro)
		}
	})

	t.Run("adapter failure records a transport error", func(t *testing.T) {
		store := newFakeStore()
		adapter := &fakeAdapter{respond: func(int, llm.Request) (*llm.Response, error) {
			return nil, errors.New("connection refused")
		}}
		exec := pipeline.NewExecutor(store, adapter, discard())

		outcome := exec.RunStage(context.Background(), jobID, jobs.PhaseScreening, "text", nil)

		if outcome.Status != jobs.StatusError {
			t.Fatalf("status = %s, want %s", outcome.Status, jobs.StatusError)
		}
		if outcome.ErrorKind != jobs.ErrorKindTransport {
			t.Errorf("error kind = %s, want %s", outcome.ErrorKind, jobs.ErrorKindTransport)
		}
		rec := store.phase(jobID, jobs.PhaseScreening)
		if rec.failure.ErrorKind != jobs.ErrorKindTransport {
			t.Errorf("persisted error kind = %s", rec.failure.ErrorKind)
		}
	})

	t.Run("unparseable response records a parse error with the raw text", func(t *testing.T) {
		store := newFakeStore()
		raw := "I could not analyze this paper."
		adapter := &fakeAdapter{respond: func(int, llm.Request) (*llm.Response, error) {
			return &llm.Response{RawText: raw, TokensIn: 5, TokensOut: 5}, nil
		}}
		exec := pipeline.NewExecutor(store, adapter, discard())

		outcome := exec.RunStage(context.Background(), jobID, jobs.PhaseScreening, "text", nil)

		if outcome.ErrorKind != jobs.ErrorKindParse {
			t.Fatalf("error kind = %s, want %s", outcome.ErrorKind, jobs.ErrorKindParse)
		}
		rec := store.phase(jobID, jobs.PhaseScreening)
		if rec.failure.RawResponse != raw {
			t.Errorf("raw response not preserved: %q", rec.failure.RawResponse)
		}
	})

	t.Run("well-formed object missing required fields records a schema error", func(t *testing.T) {
		store := newFakeStore()
		adapter := &fakeAdapter{respond: func(int, llm.Request) (*llm.Response, error) {
			return &llm.Response{RawText: `{"verdict": "solid"}`, TokensIn: 5, TokensOut: 5}, nil
		}}
		exec := pipeline.NewExecutor(store, adapter, discard())

		outcome := exec.RunStage(context.Background(), jobID, jobs.PhaseDeepDive, "text", nil)

		if outcome.Status != jobs.StatusError {
			t.Fatalf("status = %s, want %s", outcome.Status, jobs.StatusError)
		}
		if outcome.ErrorKind != jobs.ErrorKindSchema {
			t.Errorf("error kind = %s, want %s", outcome.ErrorKind, jobs.ErrorKindSchema)
		}
	})

	t.Run("failure makes exactly one adapter call", func(t *testing.T) {
		store := newFakeStore()
		adapter := &fakeAdapter{respond: func(int, llm.Request) (*llm.Response, error) {
			return nil, errors.New("gateway timeout")
		}}
		exec := pipeline.NewExecutor(store, adapter, discard())

		exec.RunStage(context.Background(), jobID, jobs.PhaseScreening, "text", nil)

		if adapter.callCount() != 1 {
			t.Errorf("adapter calls = %d, want 1", adapter.callCount())
		}
	})
}
