package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/scriven-ai/scriven/internal/jobs"
	"github.com/scriven-ai/scriven/internal/llm"
	"github.com/scriven-ai/scriven/internal/pipeline"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// phaseRec mirrors one persisted phase row.
type phaseRec struct {
	status      jobs.Status
	completion  jobs.PhaseCompletion
	failure     jobs.PhaseFailure
	completions int
}

// fakeStore is an in-memory Store with the same idempotency semantics as
// the SQL repository: completing an already-completed phase is a no-op and
// aggregates are derived from completed phases only.
type fakeStore struct {
	mu        sync.Mutex
	jobStatus map[uuid.UUID]jobs.Status
	phases    map[uuid.UUID]map[jobs.PhaseKind]*phaseRec
	agentName map[uuid.UUID]string
	finishes  map[uuid.UUID][]jobs.Status
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobStatus: make(map[uuid.UUID]jobs.Status),
		phases:    make(map[uuid.UUID]map[jobs.PhaseKind]*phaseRec),
		agentName: make(map[uuid.UUID]string),
		finishes:  make(map[uuid.UUID][]jobs.Status),
	}
}

func (s *fakeStore) phase(jobID uuid.UUID, kind jobs.PhaseKind) *phaseRec {
	if s.phases[jobID] == nil {
		s.phases[jobID] = make(map[jobs.PhaseKind]*phaseRec)
	}
	if s.phases[jobID][kind] == nil {
		s.phases[jobID][kind] = &phaseRec{status: jobs.StatusPending}
	}
	return s.phases[jobID][kind]
}

func (s *fakeStore) SetClassification(_ context.Context, id uuid.UUID, agentName, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentName[id] = agentName
	return nil
}

func (s *fakeStore) MarkJobRunning(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.jobStatus[id].Terminal() {
		s.jobStatus[id] = jobs.StatusRunning
	}
	return nil
}

func (s *fakeStore) MarkPhaseRunning(_ context.Context, jobID uuid.UUID, kind jobs.PhaseKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.phase(jobID, kind)
	if rec.status != jobs.StatusCompleted {
		rec.status = jobs.StatusRunning
	}
	return nil
}

func (s *fakeStore) CompletePhase(_ context.Context, jobID uuid.UUID, kind jobs.PhaseKind, result jobs.PhaseCompletion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.phase(jobID, kind)
	if rec.status == jobs.StatusCompleted {
		return nil
	}
	rec.status = jobs.StatusCompleted
	rec.completion = result
	rec.completions++
	return nil
}

func (s *fakeStore) FailPhase(_ context.Context, jobID uuid.UUID, kind jobs.PhaseKind, failure jobs.PhaseFailure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.phase(jobID, kind)
	if rec.status != jobs.StatusCompleted {
		rec.status = jobs.StatusError
		rec.failure = failure
	}
	return nil
}

func (s *fakeStore) FinishJob(_ context.Context, id uuid.UUID, status jobs.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishes[id] = append(s.finishes[id], status)
	if !s.jobStatus[id].Terminal() {
		s.jobStatus[id] = status
	}
	return nil
}

func (s *fakeStore) status(id uuid.UUID) jobs.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobStatus[id]
}

func (s *fakeStore) phaseStatus(jobID uuid.UUID, kind jobs.PhaseKind) jobs.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase(jobID, kind).status
}

// totalCost derives the aggregate the way the repository does: a sum over
// completed phases only.
func (s *fakeStore) totalCost(jobID uuid.UUID) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, rec := range s.phases[jobID] {
		if rec.status == jobs.StatusCompleted {
			total += rec.completion.CostUSD
		}
	}
	return total
}

// fakeAdapter scripts one response per call, in call order.
type fakeAdapter struct {
	mu      sync.Mutex
	calls   int
	respond func(call int, req llm.Request) (*llm.Response, error)
	// gate, when non-nil for a call index, blocks the call until released.
	gates map[int]chan struct{}
	// entered signals when a gated call begins.
	entered map[int]chan struct{}
}

func (a *fakeAdapter) Invoke(_ context.Context, req llm.Request) (*llm.Response, error) {
	a.mu.Lock()
	call := a.calls
	a.calls++
	gate := a.gates[call]
	entered := a.entered[call]
	a.mu.Unlock()

	if entered != nil {
		close(entered)
	}
	if gate != nil {
		<-gate
	}

	return a.respond(call, req)
}

func (a *fakeAdapter) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func okResponse(tokensIn, tokensOut int) (*llm.Response, error) {
	return &llm.Response{
		RawText:   `{"summary": "fine", "parameters": {"temperature": {"value": 300}}}`,
		TokensIn:  tokensIn,
		TokensOut: tokensOut,
		ServiceID: "gemini",
	}, nil
}

// fakeSource returns fixed inputs for every paper.
type fakeSource struct{}

func (fakeSource) Inputs(context.Context, uuid.UUID) (*pipeline.Inputs, error) {
	return &pipeline.Inputs{
		Title:    "Adaptive optics for laser beam propagation",
		Abstract: "Wavefront correction with a deformable mirror reduces scintillation in the laser beam.",
		Sections: map[string]string{
			"abstract":   "We study beam propagation.",
			"conclusion": "Correction works.",
			"methods":    "A 1064nm laser was used.",
			"results":    "Scintillation decreased.",
		},
		Figures: []pipeline.FigureNote{{ID: "figure_1", Page: 3, Caption: "Beam profile"}},
	}, nil
}

// fakeFanout counts trigger invocations.
type fakeFanout struct {
	mu      sync.Mutex
	calls   int
	lastJob uuid.UUID
	err     error
}

func (f *fakeFanout) OnJobCompleted(_ context.Context, jobID, _ uuid.UUID, _ pipeline.Results) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastJob = jobID
	return f.err
}

func (f *fakeFanout) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newJob() *jobs.Job {
	job := &jobs.Job{
		ID:      uuid.New(),
		PaperID: uuid.New(),
		Status:  jobs.StatusPending,
	}
	for i, kind := range jobs.Kinds() {
		job.Phases = append(job.Phases, jobs.Phase{
			JobID:    job.ID,
			Kind:     kind,
			Position: i,
			Status:   jobs.StatusPending,
		})
	}
	return job
}

func waitForTerminal(t *testing.T, store *fakeStore, jobID uuid.UUID) jobs.Status {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if status := store.status(jobID); status.Terminal() {
			return status
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal status", jobID)
	return ""
}

func waitForPhase(t *testing.T, store *fakeStore, jobID uuid.UUID, kind jobs.PhaseKind, want jobs.Status) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if store.phaseStatus(jobID, kind) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("phase %s never reached %s", kind, want)
}

// assertPrefix checks that completed phases form a prefix of the declared
// order at the observed snapshot.
func assertPrefix(t *testing.T, store *fakeStore, jobID uuid.UUID) {
	t.Helper()
	seenIncomplete := false
	for _, kind := range jobs.Kinds() {
		status := store.phaseStatus(jobID, kind)
		if status == jobs.StatusCompleted {
			if seenIncomplete {
				t.Fatalf("phase %s completed after an incomplete predecessor", kind)
			}
		} else {
			seenIncomplete = true
		}
	}
}
