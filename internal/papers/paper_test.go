package papers_test

import (
	"net/url"
	"testing"

	"github.com/scriven-ai/scriven/internal/papers"
)

func TestPaperAbstract(t *testing.T) {
	t.Run("returns the abstract section", func(t *testing.T) {
		p := papers.Paper{Sections: map[string]string{"abstract": "We study lasers."}}
		if got := p.Abstract(); got != "We study lasers." {
			t.Errorf("Abstract() = %q", got)
		}
	})

	t.Run("empty when no abstract was extracted", func(t *testing.T) {
		p := papers.Paper{Sections: map[string]string{"full_text": "..."}}
		if got := p.Abstract(); got != "" {
			t.Errorf("Abstract() = %q, want empty", got)
		}
	})
}

func TestFiltersFromQuery(t *testing.T) {
	t.Run("empty query yields no filters", func(t *testing.T) {
		f := papers.FiltersFromQuery(url.Values{})
		if f.Status != nil || f.Source != nil {
			t.Errorf("filters = %+v, want empty", f)
		}
	})

	t.Run("status and source are extracted", func(t *testing.T) {
		values := url.Values{}
		values.Set("status", "analyzing")
		values.Set("source", "arxiv")

		f := papers.FiltersFromQuery(values)
		if f.Status == nil || *f.Status != papers.StatusAnalyzing {
			t.Errorf("status filter = %v", f.Status)
		}
		if f.Source == nil || *f.Source != "arxiv" {
			t.Errorf("source filter = %v", f.Source)
		}
	})
}
