package metrics_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/scriven-ai/scriven/internal/jobs"
	"github.com/scriven-ai/scriven/internal/metrics"
)

func scrape(t *testing.T, c *metrics.Collector) string {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	c.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("scrape status = %d", rec.Code)
	}
	return rec.Body.String()
}

func TestCollector(t *testing.T) {
	t.Run("job lifecycle updates counters and gauge", func(t *testing.T) {
		c := metrics.NewCollector()

		c.JobStarted()
		c.JobStarted()
		c.JobFinished(jobs.StatusCompleted, 3*time.Second)

		body := scrape(t, c)
		if !strings.Contains(body, "scriven_jobs_started_total 2") {
			t.Errorf("missing started counter:\n%s", body)
		}
		if !strings.Contains(body, `scriven_jobs_finished_total{status="completed"} 1`) {
			t.Errorf("missing finished counter:\n%s", body)
		}
		if !strings.Contains(body, "scriven_jobs_in_flight 1") {
			t.Errorf("missing in-flight gauge:\n%s", body)
		}
	})

	t.Run("phase outcomes are labeled by kind and status", func(t *testing.T) {
		c := metrics.NewCollector()

		c.PhaseObserved(jobs.PhaseScreening, jobs.StatusCompleted, time.Second)
		c.PhaseObserved(jobs.PhaseVisual, jobs.StatusError, time.Second)

		body := scrape(t, c)
		if !strings.Contains(body, `scriven_phases_total{kind="screening",status="completed"} 1`) {
			t.Errorf("missing screening counter:\n%s", body)
		}
		if !strings.Contains(body, `scriven_phases_total{kind="visual",status="error"} 1`) {
			t.Errorf("missing visual error counter:\n%s", body)
		}
	})

	t.Run("collectors are isolated", func(t *testing.T) {
		a := metrics.NewCollector()
		b := metrics.NewCollector()

		a.JobStarted()

		if body := scrape(t, b); strings.Contains(body, "scriven_jobs_started_total 1") {
			t.Error("collector b observed collector a's events")
		}
	})
}
