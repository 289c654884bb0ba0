package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/scriven-ai/scriven/internal/agents"
	"github.com/scriven-ai/scriven/internal/jobs"
	"github.com/scriven-ai/scriven/pkg/lifecycle"
)

// Observer receives pipeline lifecycle events for metrics collection.
type Observer interface {
	JobStarted()
	JobFinished(status jobs.Status, duration time.Duration)
	PhaseObserved(kind jobs.PhaseKind, status jobs.Status, duration time.Duration)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) JobStarted()                                              {}
func (NopObserver) JobFinished(jobs.Status, time.Duration)                   {}
func (NopObserver) PhaseObserved(jobs.PhaseKind, jobs.Status, time.Duration) {}

// execution is the in-flight context for one running job. The cancelled
// flag is cooperative: it is checked at phase boundaries only, never used
// to abort an in-flight adapter call.
type execution struct {
	cancelled atomic.Bool
}

// Orchestrator owns the running-job registry and drives each job's phases
// strictly in sequence. Jobs for different papers run concurrently; the
// store is the only shared mutable state between them.
type Orchestrator struct {
	store    Store
	executor *Executor
	source   Source
	fanout   Fanout
	observer Observer
	logger   *slog.Logger

	ctx context.Context
	wg  sync.WaitGroup

	mu      sync.Mutex
	running map[uuid.UUID]*execution
}

// NewOrchestrator wires the engine. A nil observer disables metrics.
func NewOrchestrator(
	store Store,
	executor *Executor,
	source Source,
	fanout Fanout,
	observer Observer,
	logger *slog.Logger,
) *Orchestrator {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Orchestrator{
		store:    store,
		executor: executor,
		source:   source,
		fanout:   fanout,
		observer: observer,
		logger:   logger.With("system", "pipeline"),
		ctx:      context.Background(),
		running:  make(map[uuid.UUID]*execution),
	}
}

// Bind registers lifecycle hooks: job goroutines run under the
// coordinator's context and shutdown waits for in-flight jobs to reach a
// phase boundary.
func (o *Orchestrator) Bind(lc *lifecycle.Coordinator) error {
	o.ctx = lc.Context()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		o.logger.Info("waiting for running jobs to settle")
		o.wg.Wait()
	})

	return nil
}

// Start implements jobs.Runner: it begins executing a created job in the
// background. Returns ErrDuplicate if the job is already registered. The
// request context is not used: the run outlives the HTTP request that
// started it.
func (o *Orchestrator) Start(_ context.Context, job *jobs.Job) error {
	o.mu.Lock()
	if _, exists := o.running[job.ID]; exists {
		o.mu.Unlock()
		return fmt.Errorf("%w: job %s is already running", jobs.ErrDuplicate, job.ID)
	}
	exec := &execution{}
	o.running[job.ID] = exec
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.deregister(job.ID)
		o.run(o.ctx, job, exec)
	}()

	return nil
}

// Cancel sets the cooperative cancellation flag. The currently running
// phase finishes; the next phase boundary observes the flag and the job
// terminates as cancelled. Fan-out is skipped.
func (o *Orchestrator) Cancel(id uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	exec, exists := o.running[id]
	if !exists {
		return fmt.Errorf("%w: %s", jobs.ErrNotRunning, id)
	}

	exec.cancelled.Store(true)
	o.logger.Info("cancellation requested", "job", id)
	return nil
}

func (o *Orchestrator) deregister(id uuid.UUID) {
	o.mu.Lock()
	delete(o.running, id)
	o.mu.Unlock()
}

func (o *Orchestrator) run(ctx context.Context, job *jobs.Job, exec *execution) {
	logger := o.logger.With("job", job.ID, "paper", job.PaperID)
	start := time.Now()
	o.observer.JobStarted()

	finish := func(status jobs.Status) {
		if err := o.store.FinishJob(ctx, job.ID, status); err != nil {
			logger.Error("failed to finish job", "status", status, "error", err)
		}
		o.observer.JobFinished(status, time.Since(start))
		logger.Info("job finished", "status", status, "duration", time.Since(start))
	}

	inputs, err := o.source.Inputs(ctx, job.PaperID)
	if err != nil {
		logger.Error("failed to load paper inputs", "error", err)
		finish(jobs.StatusError)
		return
	}

	agent := o.resolveAgent(ctx, job, inputs, logger)

	if err := o.store.MarkJobRunning(ctx, job.ID); err != nil {
		logger.Error("failed to mark job running", "error", err)
		finish(jobs.StatusError)
		return
	}

	results := make(Results, len(Sequence()))

	for _, kind := range Sequence() {
		// Cooperative cancellation: checked at the boundary only, so an
		// in-flight adapter call is never interrupted mid-response.
		if exec.cancelled.Load() {
			logger.Info("job cancelled before phase", "phase", kind)
			finish(jobs.StatusCancelled)
			return
		}

		outcome := o.executor.RunStage(ctx, job.ID, kind, BuildInput(kind, inputs), agent)
		o.observer.PhaseObserved(kind, outcome.Status, outcome.Duration)

		if outcome.Status != jobs.StatusCompleted {
			logger.Warn("phase failed, halting job",
				"phase", kind,
				"error_kind", outcome.ErrorKind,
				"error", outcome.Err,
			)
			finish(jobs.StatusError)
			return
		}

		results[kind] = outcome.Payload
	}

	// A cancellation observed before the final boundary wins over the
	// successful last phase: the job is cancelled, not completed, and
	// fan-out must not fire.
	if exec.cancelled.Load() {
		logger.Info("job cancelled after final phase")
		finish(jobs.StatusCancelled)
		return
	}

	if o.fanout != nil {
		if err := o.fanout.OnJobCompleted(ctx, job.ID, job.PaperID, results); err != nil {
			// The analysis result stands even when illustration fails.
			logger.Error("visualization fan-out failed", "error", err)
		}
	}

	finish(jobs.StatusCompleted)
}

// resolveAgent fixes the agent choice for the run: a caller-supplied
// override wins, otherwise the keyword classifier routes the paper. Papers
// with no recognizable domain run with base prompts only.
func (o *Orchestrator) resolveAgent(
	ctx context.Context,
	job *jobs.Job,
	inputs *Inputs,
	logger *slog.Logger,
) *agents.Agent {
	if job.AgentName != "" {
		if agent, err := agents.ByName(job.AgentName); err == nil {
			return agent
		}
		logger.Warn("unknown agent override, classifying instead", "agent", job.AgentName)
	}

	classification := agents.Classify(inputs.Title, inputs.Abstract)
	logger.Info("paper classified",
		"domain", classification.Domain,
		"confidence", classification.Confidence,
		"needs_confirmation", classification.NeedsConfirmation,
	)

	agent, err := agents.ByDomain(classification.Domain)
	if err != nil {
		if serr := o.store.SetClassification(ctx, job.ID, "", "unknown"); serr != nil {
			logger.Error("failed to persist classification", "error", serr)
		}
		return nil
	}

	if err := o.store.SetClassification(ctx, job.ID, agent.Name, agent.Domain); err != nil {
		logger.Error("failed to persist classification", "error", err)
	}

	return agent
}
