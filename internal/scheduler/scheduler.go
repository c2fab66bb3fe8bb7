package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"touchline/backend/internal/language"
	"touchline/backend/internal/logger"
	"touchline/backend/internal/model"
	"touchline/backend/internal/repository"
	"touchline/backend/internal/service"
)

// backfillBatch caps how many articles one tick submits.
const backfillBatch = 20

// MissingLister finds published articles without every target translation.
type MissingLister interface {
	ListMissingTranslations(ctx context.Context, languages []string, after repository.MissingCursor, limit int) ([]model.Article, error)
}

// SessionSweeper drops idle session caches.
type SessionSweeper interface {
	Sweep() int
}

// Scheduler periodically queues translation for articles missing languages
// and expires idle sessions. Present translations are never revisited, stale
// or not. Each pass resumes where the previous one stopped and wraps to the
// oldest article after a short page, so articles that keep failing do not
// starve newer ones.
type Scheduler struct {
	articles MissingLister
	jobs     service.TranslationJobService
	sessions SessionSweeper

	interval      time.Duration
	sweepInterval time.Duration
	stopCh        chan struct{}
	wg            sync.WaitGroup
	cancelFunc    context.CancelFunc // cancels the current backfill pass
	mu            sync.Mutex         // protects cancelFunc
	cursor        repository.MissingCursor
}

// New creates a scheduler. An interval of 0 disables backfill; a sweepInterval
// of 0 disables session sweeping.
func New(articles MissingLister, jobs service.TranslationJobService, sessions SessionSweeper, interval, sweepInterval time.Duration) *Scheduler {
	return &Scheduler{
		articles:      articles,
		jobs:          jobs,
		sessions:      sessions,
		interval:      interval,
		sweepInterval: sweepInterval,
		stopCh:        make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	if s.interval > 0 {
		s.wg.Add(1)
		go s.runBackfill()
		logger.Info("scheduler started", "module", "scheduler", "action", "backfill", "resource", "translation", "result", "ok", "interval_ms", s.interval.Milliseconds())
	} else {
		logger.Info("translation backfill disabled", "module", "scheduler", "action", "backfill", "resource", "translation", "result", "skipped")
	}
	if s.sweepInterval > 0 && s.sessions != nil {
		s.wg.Add(1)
		go s.runSweep()
	}
}

func (s *Scheduler) Stop() {
	// Cancel any ongoing backfill pass first
	s.mu.Lock()
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	logger.Info("scheduler stopped", "module", "scheduler", "action", "stop", "resource", "translation", "result", "ok")
}

func (s *Scheduler) runBackfill() {
	defer s.wg.Done()

	// Run immediately on start
	s.Backfill()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Backfill()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) runSweep() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := s.sessions.Sweep(); removed > 0 {
				logger.Debug("idle sessions expired", "module", "scheduler", "action", "sweep", "resource", "session", "result", "ok", "removed", removed)
			}
		case <-s.stopCh:
			return
		}
	}
}

// Backfill submits one job per article that lacks a target translation and has
// no job in flight. It returns the number of jobs submitted. Passes must not
// run concurrently.
func (s *Scheduler) Backfill() int {
	timeout := s.interval
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Store cancel function so Stop() can cancel the pass
	s.mu.Lock()
	s.cancelFunc = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancelFunc = nil
		s.mu.Unlock()
	}()

	articles, err := s.articles.ListMissingTranslations(ctx, language.Codes(), s.cursor, backfillBatch)
	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("backfill cancelled", "module", "scheduler", "action", "backfill", "resource", "translation", "result", "cancelled")
			return 0
		}
		logger.Error("backfill lookup failed", "module", "scheduler", "action", "backfill", "resource", "translation", "result", "failed", "error", err)
		return 0
	}

	// A short page means the end was reached; the next pass starts over.
	next := repository.MissingCursor{}
	if len(articles) == backfillBatch {
		next = repository.CursorAfter(articles[len(articles)-1])
	}

	submitted := 0
	for i, a := range articles {
		if s.jobs.Active(a.ID) {
			continue
		}
		if _, err := s.jobs.Submit(a.ID); err != nil {
			if errors.Is(err, service.ErrQueueFull) {
				logger.Warn("backfill stopped, queue full", "module", "scheduler", "action", "backfill", "resource", "translation", "result", "partial", "submitted", submitted)
				// Resume at the article that did not fit.
				next = s.cursor
				if i > 0 {
					next = repository.CursorAfter(articles[i-1])
				}
				break
			}
			logger.Error("backfill submit failed", "module", "scheduler", "action", "backfill", "resource", "translation", "result", "failed", "article_id", a.ID, "error", err)
			continue
		}
		submitted++
	}
	s.cursor = next

	if submitted > 0 {
		logger.Info("backfill submitted jobs", "module", "scheduler", "action", "backfill", "resource", "translation", "result", "ok", "submitted", submitted)
	}
	return submitted
}
