package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/scriven-ai/scriven/internal/jobs"
	"github.com/scriven-ai/scriven/internal/llm"
	"github.com/scriven-ai/scriven/internal/pipeline"
)

type fakeObserver struct {
	mu       sync.Mutex
	started  int
	finished []jobs.Status
	phases   []jobs.PhaseKind
}

func (o *fakeObserver) JobStarted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *fakeObserver) JobFinished(status jobs.Status, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, status)
}

func (o *fakeObserver) PhaseObserved(kind jobs.PhaseKind, _ jobs.Status, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phases = append(o.phases, kind)
}

func newOrchestrator(store *fakeStore, adapter *fakeAdapter, fanout *fakeFanout, observer pipeline.Observer) *pipeline.Orchestrator {
	executor := pipeline.NewExecutor(store, adapter, discard())
	return pipeline.NewOrchestrator(store, executor, fakeSource{}, fanout, observer, discard())
}

func TestOrchestratorRun(t *testing.T) {
	t.Run("successful job completes all phases in order and fans out once", func(t *testing.T) {
		store := newFakeStore()
		adapter := &fakeAdapter{respond: func(int, llm.Request) (*llm.Response, error) {
			return okResponse(100, 50)
		}}
		fanout := &fakeFanout{}
		observer := &fakeObserver{}
		orch := newOrchestrator(store, adapter, fanout, observer)

		job := newJob()
		if err := orch.Start(context.Background(), job); err != nil {
			t.Fatalf("start: %v", err)
		}

		if status := waitForTerminal(t, store, job.ID); status != jobs.StatusCompleted {
			t.Fatalf("job status = %s, want %s", status, jobs.StatusCompleted)
		}
		for _, kind := range jobs.Kinds() {
			if got := store.phaseStatus(job.ID, kind); got != jobs.StatusCompleted {
				t.Errorf("phase %s = %s, want %s", kind, got, jobs.StatusCompleted)
			}
		}
		assertPrefix(t, store, job.ID)
		if adapter.callCount() != len(jobs.Kinds()) {
			t.Errorf("adapter calls = %d, want %d", adapter.callCount(), len(jobs.Kinds()))
		}
		if fanout.callCount() != 1 {
			t.Errorf("fanout calls = %d, want exactly 1", fanout.callCount())
		}
		if fanout.lastJob != job.ID {
			t.Errorf("fanout job = %s, want %s", fanout.lastJob, job.ID)
		}
		if want := llm.CalcCost(llm.ModelFlash, 100, 50)*2 + llm.CalcCost(llm.ModelPro, 100, 50)*2; store.totalCost(job.ID) != want {
			t.Errorf("total cost = %v, want %v", store.totalCost(job.ID), want)
		}

		observer.mu.Lock()
		defer observer.mu.Unlock()
		if observer.started != 1 {
			t.Errorf("observed starts = %d, want 1", observer.started)
		}
		if len(observer.finished) != 1 || observer.finished[0] != jobs.StatusCompleted {
			t.Errorf("observed finishes = %v", observer.finished)
		}
		if len(observer.phases) != len(jobs.Kinds()) {
			t.Errorf("observed phases = %v", observer.phases)
		}
	})

	t.Run("phase failure halts the job and leaves later phases untouched", func(t *testing.T) {
		store := newFakeStore()
		adapter := &fakeAdapter{respond: func(call int, _ llm.Request) (*llm.Response, error) {
			if call == 1 {
				return nil, errors.New("bad gateway")
			}
			return okResponse(10, 10)
		}}
		fanout := &fakeFanout{}
		orch := newOrchestrator(store, adapter, fanout, nil)

		job := newJob()
		if err := orch.Start(context.Background(), job); err != nil {
			t.Fatalf("start: %v", err)
		}

		if status := waitForTerminal(t, store, job.ID); status != jobs.StatusError {
			t.Fatalf("job status = %s, want %s", status, jobs.StatusError)
		}

		want := map[jobs.PhaseKind]jobs.Status{
			jobs.PhaseScreening: jobs.StatusCompleted,
			jobs.PhaseVisual:    jobs.StatusError,
			jobs.PhaseRecipe:    jobs.StatusPending,
			jobs.PhaseDeepDive:  jobs.StatusPending,
		}
		for kind, status := range want {
			if got := store.phaseStatus(job.ID, kind); got != status {
				t.Errorf("phase %s = %s, want %s", kind, got, status)
			}
		}
		if adapter.callCount() != 2 {
			t.Errorf("adapter calls = %d, want 2", adapter.callCount())
		}
		if fanout.callCount() != 0 {
			t.Errorf("fanout fired on a failed job")
		}
	})

	t.Run("cancellation lets the running phase finish then skips the rest", func(t *testing.T) {
		store := newFakeStore()
		entered := make(chan struct{})
		gate := make(chan struct{})
		adapter := &fakeAdapter{
			respond: func(int, llm.Request) (*llm.Response, error) {
				return okResponse(10, 10)
			},
			gates:   map[int]chan struct{}{2: gate},
			entered: map[int]chan struct{}{2: entered},
		}
		fanout := &fakeFanout{}
		orch := newOrchestrator(store, adapter, fanout, nil)

		job := newJob()
		if err := orch.Start(context.Background(), job); err != nil {
			t.Fatalf("start: %v", err)
		}

		<-entered
		if err := orch.Cancel(job.ID); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		close(gate)

		if status := waitForTerminal(t, store, job.ID); status != jobs.StatusCancelled {
			t.Fatalf("job status = %s, want %s", status, jobs.StatusCancelled)
		}
		if got := store.phaseStatus(job.ID, jobs.PhaseRecipe); got != jobs.StatusCompleted {
			t.Errorf("in-flight phase = %s, want %s", got, jobs.StatusCompleted)
		}
		if got := store.phaseStatus(job.ID, jobs.PhaseDeepDive); got != jobs.StatusPending {
			t.Errorf("later phase = %s, want %s", got, jobs.StatusPending)
		}
		if adapter.callCount() != 3 {
			t.Errorf("adapter calls = %d, want 3", adapter.callCount())
		}
		if fanout.callCount() != 0 {
			t.Errorf("fanout fired on a cancelled job")
		}
	})

	t.Run("cancellation during the final phase wins over its success", func(t *testing.T) {
		store := newFakeStore()
		entered := make(chan struct{})
		gate := make(chan struct{})
		adapter := &fakeAdapter{
			respond: func(int, llm.Request) (*llm.Response, error) {
				return okResponse(10, 10)
			},
			gates:   map[int]chan struct{}{3: gate},
			entered: map[int]chan struct{}{3: entered},
		}
		fanout := &fakeFanout{}
		orch := newOrchestrator(store, adapter, fanout, nil)

		job := newJob()
		if err := orch.Start(context.Background(), job); err != nil {
			t.Fatalf("start: %v", err)
		}

		<-entered
		if err := orch.Cancel(job.ID); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		close(gate)

		if status := waitForTerminal(t, store, job.ID); status != jobs.StatusCancelled {
			t.Fatalf("job status = %s, want %s", status, jobs.StatusCancelled)
		}
		if got := store.phaseStatus(job.ID, jobs.PhaseDeepDive); got != jobs.StatusCompleted {
			t.Errorf("final phase = %s, want %s", got, jobs.StatusCompleted)
		}
		if fanout.callCount() != 0 {
			t.Errorf("fanout fired on a cancelled job")
		}
	})

	t.Run("fanout failure does not demote a completed job", func(t *testing.T) {
		store := newFakeStore()
		adapter := &fakeAdapter{respond: func(int, llm.Request) (*llm.Response, error) {
			return okResponse(10, 10)
		}}
		fanout := &fakeFanout{err: errors.New("blob storage unavailable")}
		orch := newOrchestrator(store, adapter, fanout, nil)

		job := newJob()
		if err := orch.Start(context.Background(), job); err != nil {
			t.Fatalf("start: %v", err)
		}

		if status := waitForTerminal(t, store, job.ID); status != jobs.StatusCompleted {
			t.Fatalf("job status = %s, want %s", status, jobs.StatusCompleted)
		}
		if fanout.callCount() != 1 {
			t.Errorf("fanout calls = %d, want 1", fanout.callCount())
		}
	})

	t.Run("starting an already-registered job is rejected", func(t *testing.T) {
		store := newFakeStore()
		entered := make(chan struct{})
		gate := make(chan struct{})
		adapter := &fakeAdapter{
			respond: func(int, llm.Request) (*llm.Response, error) {
				return okResponse(10, 10)
			},
			gates:   map[int]chan struct{}{0: gate},
			entered: map[int]chan struct{}{0: entered},
		}
		orch := newOrchestrator(store, adapter, &fakeFanout{}, nil)

		job := newJob()
		if err := orch.Start(context.Background(), job); err != nil {
			t.Fatalf("start: %v", err)
		}
		<-entered

		if err := orch.Start(context.Background(), job); !errors.Is(err, jobs.ErrDuplicate) {
			t.Errorf("second start error = %v, want ErrDuplicate", err)
		}

		close(gate)
		waitForTerminal(t, store, job.ID)
	})

	t.Run("cancelling an unknown job reports not running", func(t *testing.T) {
		orch := newOrchestrator(newFakeStore(), &fakeAdapter{}, &fakeFanout{}, nil)

		if err := orch.Cancel(uuid.New()); !errors.Is(err, jobs.ErrNotRunning) {
			t.Errorf("cancel error = %v, want ErrNotRunning", err)
		}
	})

	t.Run("agent override routes prompts through the named agent", func(t *testing.T) {
		store := newFakeStore()
		var systems []string
		var mu sync.Mutex
		adapter := &fakeAdapter{respond: func(_ int, req llm.Request) (*llm.Response, error) {
			mu.Lock()
			systems = append(systems, req.System)
			mu.Unlock()
			return okResponse(10, 10)
		}}
		orch := newOrchestrator(store, adapter, &fakeFanout{}, nil)

		job := newJob()
		job.AgentName = "neural"
		if err := orch.Start(context.Background(), job); err != nil {
			t.Fatalf("start: %v", err)
		}
		waitForTerminal(t, store, job.ID)

		mu.Lock()
		defer mu.Unlock()
		if len(systems) == 0 || systems[0] == "" {
			t.Fatal("no system prompts captured")
		}
	})
}
