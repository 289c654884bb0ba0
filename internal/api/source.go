package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/scriven-ai/scriven/internal/jobs"
	"github.com/scriven-ai/scriven/internal/papers"
	"github.com/scriven-ai/scriven/internal/pipeline"
)

// paperSource adapts the paper registry to the pipeline's input contract.
type paperSource struct {
	papers papers.System
}

func (s *paperSource) Inputs(ctx context.Context, paperID uuid.UUID) (*pipeline.Inputs, error) {
	paper, err := s.papers.Find(ctx, paperID)
	if err != nil {
		return nil, err
	}

	figures := make([]pipeline.FigureNote, 0, len(paper.Figures))
	for _, fig := range paper.Figures {
		figures = append(figures, pipeline.FigureNote{
			ID:      fig.ID,
			Page:    fig.Page,
			Caption: fig.Caption,
		})
	}

	return &pipeline.Inputs{
		Title:    paper.Title,
		Abstract: paper.Abstract(),
		Sections: paper.Sections,
		Figures:  figures,
	}, nil
}

// analysisStore layers paper status synchronization over the job store:
// when a job starts running or finishes, the paper's analysis status
// follows. Paper sync failures are logged, never propagated, so a status
// hiccup cannot fail an analysis that already succeeded.
type analysisStore struct {
	jobs.System
	papers papers.System
	logger *slog.Logger
}

func newAnalysisStore(jobsSys jobs.System, papersSys papers.System, logger *slog.Logger) *analysisStore {
	return &analysisStore{
		System: jobsSys,
		papers: papersSys,
		logger: logger.With("system", "analysis-store"),
	}
}

func (s *analysisStore) MarkJobRunning(ctx context.Context, id uuid.UUID) error {
	if err := s.System.MarkJobRunning(ctx, id); err != nil {
		return err
	}

	s.syncPaper(ctx, id, papers.StatusAnalyzing)
	return nil
}

func (s *analysisStore) FinishJob(ctx context.Context, id uuid.UUID, status jobs.Status) error {
	if err := s.System.FinishJob(ctx, id, status); err != nil {
		return err
	}

	if paperStatus, ok := paperStatusFor(status); ok {
		s.syncPaper(ctx, id, paperStatus)
	}
	return nil
}

func (s *analysisStore) syncPaper(ctx context.Context, jobID uuid.UUID, status papers.Status) {
	job, err := s.System.Find(ctx, jobID)
	if err != nil {
		s.logger.Warn("paper status sync: job lookup failed", "job", jobID, "error", err)
		return
	}

	if err := s.papers.SetStatus(ctx, job.PaperID, status); err != nil {
		s.logger.Warn("paper status sync failed",
			"job", jobID,
			"paper", job.PaperID,
			"status", status,
			"error", err,
		)
	}
}

func paperStatusFor(status jobs.Status) (papers.Status, bool) {
	switch status {
	case jobs.StatusCompleted:
		return papers.StatusCompleted, true
	case jobs.StatusError:
		return papers.StatusError, true
	case jobs.StatusCancelled:
		return papers.StatusCancelled, true
	}
	return "", false
}
