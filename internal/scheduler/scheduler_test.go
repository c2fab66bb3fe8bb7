package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"touchline/backend/internal/model"
	"touchline/backend/internal/repository"
	"touchline/backend/internal/service"
)

// stubLister pages articles (sorted by created_at, id) the way the repository does.
type stubLister struct {
	articles []model.Article
	err      error
	langs    []string
	cursors  []repository.MissingCursor
}

func (s *stubLister) ListMissingTranslations(_ context.Context, languages []string, after repository.MissingCursor, limit int) ([]model.Article, error) {
	s.langs = languages
	s.cursors = append(s.cursors, after)
	if s.err != nil {
		return nil, s.err
	}
	var out []model.Article
	for _, a := range s.articles {
		if !after.IsZero() && !(a.CreatedAt.After(after.CreatedAt) || (a.CreatedAt.Equal(after.CreatedAt) && a.ID > after.ID)) {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func articlesN(n int) []model.Article {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	out := make([]model.Article, n)
	for i := range out {
		out[i] = model.Article{ID: fmt.Sprintf("a%02d", i), CreatedAt: base.Add(time.Duration(i) * time.Minute)}
	}
	return out
}

type stubJobs struct {
	mu        sync.Mutex
	submitted []string
	active    map[string]bool
	limit     int
}

func (j *stubJobs) Submit(articleID string) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.limit > 0 && len(j.submitted) >= j.limit {
		return "", service.ErrQueueFull
	}
	j.submitted = append(j.submitted, articleID)
	return "job-" + articleID, nil
}

func (j *stubJobs) Get(string) *service.TranslationJob { return nil }

func (j *stubJobs) Active(articleID string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.active[articleID]
}

func (j *stubJobs) Start() {}
func (j *stubJobs) Stop()  {}

func (j *stubJobs) count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.submitted)
}

type stubSweeper struct {
	mu    sync.Mutex
	calls int
}

func (s *stubSweeper) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return 1
}

func (s *stubSweeper) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestBackfill_SkipsActiveArticles(t *testing.T) {
	lister := &stubLister{articles: []model.Article{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}}}
	jobs := &stubJobs{active: map[string]bool{"a2": true}}
	s := New(lister, jobs, nil, time.Minute, 0)

	require.Equal(t, 2, s.Backfill())
	require.Equal(t, []string{"a1", "a3"}, jobs.submitted)
	require.Equal(t, []string{"en", "fr", "es", "ht"}, lister.langs)
}

func TestBackfill_StopsWhenQueueFull(t *testing.T) {
	lister := &stubLister{articles: []model.Article{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}}}
	jobs := &stubJobs{limit: 1}
	s := New(lister, jobs, nil, time.Minute, 0)

	require.Equal(t, 1, s.Backfill())
}

func TestBackfill_RotatesPastFullPages(t *testing.T) {
	lister := &stubLister{articles: articlesN(backfillBatch + 5)}
	jobs := &stubJobs{}
	s := New(lister, jobs, nil, time.Minute, 0)

	require.Equal(t, backfillBatch, s.Backfill())
	require.Equal(t, 5, s.Backfill())

	seen := make(map[string]bool)
	for _, id := range jobs.submitted {
		seen[id] = true
	}
	require.Len(t, seen, backfillBatch+5)
	require.True(t, seen["a24"])

	// The short page wraps the next pass back to the oldest article.
	require.Equal(t, backfillBatch, s.Backfill())
	require.True(t, lister.cursors[2].IsZero())
	require.Equal(t, "a00", jobs.submitted[backfillBatch+5])
}

func TestBackfill_ResumesAfterQueueFull(t *testing.T) {
	lister := &stubLister{articles: articlesN(backfillBatch + 5)}
	jobs := &stubJobs{limit: 3}
	s := New(lister, jobs, nil, time.Minute, 0)

	require.Equal(t, 3, s.Backfill())

	jobs.limit = 0
	require.Equal(t, backfillBatch, s.Backfill())
	require.Equal(t, "a02", lister.cursors[1].ID)
	require.Equal(t, "a03", jobs.submitted[3])
}

func TestBackfill_ListError(t *testing.T) {
	s := New(&stubLister{err: errors.New("db closed")}, &stubJobs{}, nil, time.Minute, 0)
	require.Zero(t, s.Backfill())
}

func TestScheduler_RunsOnStartAndStops(t *testing.T) {
	jobs := &stubJobs{}
	sweeper := &stubSweeper{}
	s := New(&stubLister{articles: []model.Article{{ID: "a1"}}}, jobs, sweeper, time.Hour, 5*time.Millisecond)

	s.Start()
	require.Eventually(t, func() bool { return jobs.count() == 1 && sweeper.count() > 0 }, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestScheduler_DisabledBackfill(t *testing.T) {
	jobs := &stubJobs{}
	s := New(&stubLister{articles: []model.Article{{ID: "a1"}}}, jobs, nil, 0, 0)

	s.Start()
	s.Stop()
	require.Zero(t, jobs.count())
}
