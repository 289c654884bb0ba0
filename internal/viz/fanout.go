package viz

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/scriven-ai/scriven/internal/pipeline"
	"github.com/scriven-ai/scriven/pkg/storage"
)

const defaultWorkers = 3

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Fanout generates visualization artifacts for completed jobs. It
// implements the pipeline fan-out trigger: invoked at most once per job,
// and its errors are reported to the caller for logging only.
type Fanout struct {
	planner   *Planner
	generator *Generator
	sys       System
	store     storage.System
	workers   int
	logger    *slog.Logger
}

// NewFanout wires the fan-out over the planner, generator, record store,
// and artifact storage. workers bounds concurrent generation; values below
// one fall back to the default.
func NewFanout(
	planner *Planner,
	generator *Generator,
	sys System,
	store storage.System,
	workers int,
	logger *slog.Logger,
) *Fanout {
	if workers < 1 {
		workers = defaultWorkers
	}
	return &Fanout{
		planner:   planner,
		generator: generator,
		sys:       sys,
		store:     store,
		workers:   workers,
		logger:    logger.With("system", "viz.fanout"),
	}
}

// OnJobCompleted plans targets from the job's results and generates each
// one under a bounded worker pool. Individual target failures are recorded
// on their rows and do not stop the remaining targets; the returned error
// summarizes how many failed.
func (f *Fanout) OnJobCompleted(
	ctx context.Context,
	jobID, paperID uuid.UUID,
	results pipeline.Results,
) error {
	targets := f.planner.Plan(ctx, results)
	if len(targets) == 0 {
		f.logger.Info("no visualization targets for job", "job", jobID)
		return nil
	}

	var failed atomic.Int64

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(f.workers)

	for _, target := range targets {
		group.Go(func() error {
			if err := f.generate(ctx, jobID, paperID, target); err != nil {
				failed.Add(1)
				f.logger.Warn("visualization generation failed",
					"job", jobID,
					"title", target.Title,
					"error", err,
				)
			}
			return nil
		})
	}

	group.Wait()

	f.logger.Info("fan-out finished",
		"job", jobID,
		"targets", len(targets),
		"failed", failed.Load(),
	)

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d visualizations failed for job %s", n, len(targets), jobID)
	}
	return nil
}

// generate creates the record, renders the artifact for Mermaid targets,
// and marks the record's terminal state. Illustration targets persist
// their spec only: rendering them is an external renderer's job.
func (f *Fanout) generate(ctx context.Context, jobID, paperID uuid.UUID, target Target) error {
	record, err := f.sys.Create(ctx, jobID, paperID, target)
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}

	if target.RenderKind != RenderMermaid {
		if err := f.sys.MarkCompleted(ctx, record.ID, ""); err != nil {
			return fmt.Errorf("complete record: %w", err)
		}
		return nil
	}

	code, err := f.generator.Generate(ctx, target)
	if err != nil {
		f.fail(ctx, record.ID, err)
		return err
	}

	key := artifactKey(jobID, record.ID, target.Title)
	if err := f.store.Upload(ctx, key, strings.NewReader(code), "text/vnd.mermaid"); err != nil {
		f.fail(ctx, record.ID, err)
		return fmt.Errorf("upload artifact: %w", err)
	}

	if err := f.sys.MarkCompleted(ctx, record.ID, key); err != nil {
		return fmt.Errorf("complete record: %w", err)
	}
	return nil
}

func (f *Fanout) fail(ctx context.Context, id uuid.UUID, cause error) {
	if err := f.sys.MarkError(ctx, id, cause.Error()); err != nil {
		f.logger.Error("failed to record visualization error", "id", id, "error", err)
	}
}

// artifactKey builds the blob key for a rendered diagram. The record ID
// keeps keys unique when a job yields multiple diagrams with one title.
func artifactKey(jobID, recordID uuid.UUID, title string) string {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(title), "_"), "_")
	if slug == "" {
		slug = "diagram"
	}
	return fmt.Sprintf("visualizations/%s/%s_%s.mmd", jobID, slug, recordID)
}
