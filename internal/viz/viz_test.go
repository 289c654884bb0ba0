package viz_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/scriven-ai/scriven/internal/jobs"
	"github.com/scriven-ai/scriven/internal/llm"
	"github.com/scriven-ai/scriven/internal/pipeline"
	"github.com/scriven-ai/scriven/internal/viz"
	"github.com/scriven-ai/scriven/pkg/lifecycle"
	"github.com/scriven-ai/scriven/pkg/storage"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAdapter struct {
	raw string
	err error
}

func (a *fakeAdapter) Invoke(context.Context, llm.Request) (*llm.Response, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &llm.Response{RawText: a.raw}, nil
}

type fakeSystem struct {
	mu        sync.Mutex
	records   map[uuid.UUID]*viz.Visualization
	completed map[uuid.UUID]string
	failed    map[uuid.UUID]string
}

func newFakeSystem() *fakeSystem {
	return &fakeSystem{
		records:   make(map[uuid.UUID]*viz.Visualization),
		completed: make(map[uuid.UUID]string),
		failed:    make(map[uuid.UUID]string),
	}
}

func (s *fakeSystem) Handler() *viz.Handler { return nil }

func (s *fakeSystem) Create(_ context.Context, jobID, paperID uuid.UUID, target viz.Target) (*viz.Visualization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := &viz.Visualization{
		ID:         uuid.New(),
		JobID:      jobID,
		PaperID:    paperID,
		RenderKind: target.RenderKind,
		Title:      target.Title,
		Status:     viz.StatusPending,
	}
	s.records[v.ID] = v
	return v, nil
}

func (s *fakeSystem) MarkCompleted(_ context.Context, id uuid.UUID, storageKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[id] = storageKey
	return nil
}

func (s *fakeSystem) MarkError(_ context.Context, id uuid.UUID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[id] = message
	return nil
}

func (s *fakeSystem) ListByJob(context.Context, uuid.UUID) ([]viz.Visualization, error) {
	return nil, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	uploads map[string]string
	err     error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: make(map[string]string)}
}

func (s *fakeStorage) Start(*lifecycle.Coordinator) error { return nil }

func (s *fakeStorage) Upload(_ context.Context, key string, reader io.Reader, _ string) error {
	if s.err != nil {
		return s.err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[key] = buf.String()
	return nil
}

func (s *fakeStorage) Download(context.Context, string) (io.ReadCloser, error) {
	return nil, storage.ErrNotFound
}

func (s *fakeStorage) Delete(context.Context, string) error { return nil }

func recipeResults() pipeline.Results {
	return pipeline.Results{
		jobs.PhaseRecipe: {
			"procedure_steps": []any{"Prepare substrate", "Deposit film", "Anneal at 300C", "Measure thickness"},
			"equipment":       []any{"sputtering chamber", "ellipsometer"},
			"materials":       []any{"silicon wafer"},
			"parameters": map[string]any{
				"temperature": map[string]any{"value": 300.0, "unit": "C"},
				"pressure":    map[string]any{"value": 1e-6, "unit": "Torr"},
				"power":       map[string]any{"value": 100.0, "unit": "W"},
				"duration":    map[string]any{"value": 30.0, "unit": "min"},
			},
		},
		jobs.PhaseDeepDive: {
			"summary": strings.Repeat("The deposition process shows consistent film quality. ", 3),
		},
	}
}

func TestPlannerHeuristics(t *testing.T) {
	planner := viz.NewPlanner(nil, discard())

	targets := planner.Plan(context.Background(), recipeResults())

	if len(targets) != 4 {
		t.Fatalf("targets = %d, want 4", len(targets))
	}

	byTitle := make(map[string]viz.Target, len(targets))
	for _, target := range targets {
		byTitle[target.Title] = target
	}

	protocol, ok := byTitle["Experimental Protocol"]
	if !ok {
		t.Fatal("missing protocol target")
	}
	if protocol.RenderKind != viz.RenderMermaid {
		t.Errorf("protocol render kind = %s", protocol.RenderKind)
	}
	if len(protocol.Nodes) != 4 || len(protocol.Edges) != 3 {
		t.Errorf("protocol structure = %d nodes / %d edges", len(protocol.Nodes), len(protocol.Edges))
	}

	setup, ok := byTitle["Experimental Setup"]
	if !ok {
		t.Fatal("missing setup target")
	}
	if setup.RenderKind != viz.RenderIllustration {
		t.Errorf("setup render kind = %s", setup.RenderKind)
	}

	if _, ok := byTitle["Key Parameters Overview"]; !ok {
		t.Error("missing parameters target")
	}
	if _, ok := byTitle["Research Logic Flow"]; !ok {
		t.Error("missing logic flow target")
	}
}

func TestPlannerModelRouting(t *testing.T) {
	t.Run("planning call targets win over heuristics", func(t *testing.T) {
		adapter := &fakeAdapter{raw: `{"diagrams": [
			{"type": "flowchart", "title": "Signal Chain", "render_target": "mermaid",
			 "nodes": [{"id": "A", "label": "Laser"}, {"id": "B", "label": "Detector"}],
			 "edges": [{"from": "A", "to": "B"}]}
		]}`}
		planner := viz.NewPlanner(adapter, discard())

		targets := planner.Plan(context.Background(), recipeResults())
		if len(targets) != 1 || targets[0].Title != "Signal Chain" {
			t.Fatalf("targets = %+v", targets)
		}
	})

	t.Run("unknown render target is classified from category", func(t *testing.T) {
		adapter := &fakeAdapter{raw: `{"diagrams": [
			{"title": "Chamber Layout", "render_target": "paperbanana",
			 "category": "optical_table_layout"}
		]}`}
		planner := viz.NewPlanner(adapter, discard())

		targets := planner.Plan(context.Background(), recipeResults())
		if len(targets) != 1 {
			t.Fatalf("targets = %d, want 1", len(targets))
		}
		if targets[0].RenderKind != viz.RenderIllustration {
			t.Errorf("render kind = %s, want %s", targets[0].RenderKind, viz.RenderIllustration)
		}
	})

	t.Run("failed planning call falls back to heuristics", func(t *testing.T) {
		adapter := &fakeAdapter{err: errors.New("service unavailable")}
		planner := viz.NewPlanner(adapter, discard())

		targets := planner.Plan(context.Background(), recipeResults())
		if len(targets) != 4 {
			t.Errorf("fallback targets = %d, want 4", len(targets))
		}
	})
}

func TestCleanDiagram(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare code unchanged", "graph LR\n    A --> B", "graph LR\n    A --> B"},
		{"mermaid fence stripped", "```mermaid\ngraph LR\n    A --> B\n```", "graph LR\n    A --> B"},
		{"plain fence stripped", "```\ngraph TD\n    A --> B\n```", "graph TD\n    A --> B"},
		{"frontmatter removed", "---\ntitle: X\n---\ngraph LR\n    A --> B", "graph LR\n    A --> B"},
		{"accessibility lines removed", "graph LR\naccTitle: hidden\n    A --> B", "graph LR\n\n    A --> B"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := viz.CleanDiagram(tc.in); got != tc.want {
				t.Errorf("CleanDiagram() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGeneratorTemplates(t *testing.T) {
	gen := viz.NewGenerator(nil, discard())

	t.Run("flowchart from nodes and edges", func(t *testing.T) {
		code, err := gen.Generate(context.Background(), viz.Target{
			Type:  "flowchart",
			Title: "Protocol",
			Nodes: []viz.Node{{ID: "A", Label: "Prepare"}, {ID: "B", Label: "Measure"}},
			Edges: []viz.Edge{{From: "A", To: "B", Label: "then"}},
		})
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !strings.HasPrefix(code, "graph LR") {
			t.Errorf("code = %q", code)
		}
		if !strings.Contains(code, "A -->|then| B") {
			t.Errorf("missing labeled edge in %q", code)
		}
	})

	t.Run("edgeless nodes chain sequentially", func(t *testing.T) {
		code, err := gen.Generate(context.Background(), viz.Target{
			Type:  "flowchart",
			Title: "Params",
			Nodes: []viz.Node{{ID: "P0", Label: "temp"}, {ID: "P1", Label: "pressure"}},
		})
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !strings.Contains(code, "P0 --> P1") {
			t.Errorf("missing sequential chain in %q", code)
		}
	})

	t.Run("model output is cleaned", func(t *testing.T) {
		gen := viz.NewGenerator(&fakeAdapter{raw: "```mermaid\ngraph LR\n    A --> B\n```"}, discard())
		code, err := gen.Generate(context.Background(), viz.Target{Title: "X"})
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if strings.Contains(code, "```") {
			t.Errorf("fences survived cleaning: %q", code)
		}
	})
}

func TestFanout(t *testing.T) {
	jobID := uuid.New()
	paperID := uuid.New()

	t.Run("mermaid targets are rendered, uploaded, and completed", func(t *testing.T) {
		sys := newFakeSystem()
		store := newFakeStorage()
		fanout := viz.NewFanout(
			viz.NewPlanner(nil, discard()),
			viz.NewGenerator(nil, discard()),
			sys, store, 2, discard(),
		)

		if err := fanout.OnJobCompleted(context.Background(), jobID, paperID, recipeResults()); err != nil {
			t.Fatalf("fan-out: %v", err)
		}

		sys.mu.Lock()
		defer sys.mu.Unlock()
		if len(sys.records) != 4 {
			t.Fatalf("records = %d, want 4", len(sys.records))
		}
		if len(sys.completed) != 4 {
			t.Errorf("completed = %d, want 4", len(sys.completed))
		}
		if len(sys.failed) != 0 {
			t.Errorf("failed = %d, want 0", len(sys.failed))
		}

		store.mu.Lock()
		defer store.mu.Unlock()
		// Three mermaid targets upload artifacts; the illustration does not.
		if len(store.uploads) != 3 {
			t.Errorf("uploads = %d, want 3", len(store.uploads))
		}
		for key, content := range store.uploads {
			if !strings.HasPrefix(key, "visualizations/"+jobID.String()+"/") {
				t.Errorf("unexpected artifact key %q", key)
			}
			if content == "" {
				t.Errorf("empty artifact at %q", key)
			}
		}
	})

	t.Run("upload failure marks the record and reports a summary error", func(t *testing.T) {
		sys := newFakeSystem()
		store := newFakeStorage()
		store.err = errors.New("container unavailable")
		fanout := viz.NewFanout(
			viz.NewPlanner(nil, discard()),
			viz.NewGenerator(nil, discard()),
			sys, store, 2, discard(),
		)

		err := fanout.OnJobCompleted(context.Background(), jobID, paperID, recipeResults())
		if err == nil {
			t.Fatal("expected a summary error")
		}

		sys.mu.Lock()
		defer sys.mu.Unlock()
		if len(sys.failed) != 3 {
			t.Errorf("failed records = %d, want 3", len(sys.failed))
		}
		// The illustration target has no artifact and still completes.
		if len(sys.completed) != 1 {
			t.Errorf("completed records = %d, want 1", len(sys.completed))
		}
	})

	t.Run("no targets is a quiet no-op", func(t *testing.T) {
		sys := newFakeSystem()
		fanout := viz.NewFanout(
			viz.NewPlanner(nil, discard()),
			viz.NewGenerator(nil, discard()),
			sys, newFakeStorage(), 2, discard(),
		)

		if err := fanout.OnJobCompleted(context.Background(), jobID, paperID, pipeline.Results{}); err != nil {
			t.Fatalf("fan-out: %v", err)
		}
		if len(sys.records) != 0 {
			t.Errorf("records = %d, want 0", len(sys.records))
		}
	})
}
