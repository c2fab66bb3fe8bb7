package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"touchline/backend/internal/logger"
)

const (
	JobQueued  = "queued"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// DefaultJobQueueSize bounds pending jobs before Submit reports ErrQueueFull.
const DefaultJobQueueSize = 64

// maxFinishedJobs is how many finished jobs Get can still report.
const maxFinishedJobs = 200

type TranslationJob struct {
	ID         string       `json:"id"`
	ArticleID  string       `json:"articleId"`
	Status     string       `json:"status"`
	Result     *BatchResult `json:"result,omitempty"`
	Error      string       `json:"error,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
	StartedAt  *time.Time   `json:"startedAt,omitempty"`
	FinishedAt *time.Time   `json:"finishedAt,omitempty"`
}

// BatchRunner runs the whole-article batch for one article.
type BatchRunner interface {
	RunBatch(ctx context.Context, articleID string) (BatchResult, error)
}

type TranslationJobService interface {
	JobSubmitter
	Get(jobID string) *TranslationJob
	// Active reports whether a queued or running job exists for articleID.
	Active(articleID string) bool
	Start()
	Stop()
}

type translationJobManager struct {
	runner BatchRunner
	queue  chan string

	mu       sync.RWMutex
	jobs     map[string]*TranslationJob
	finished []string
	active   map[string]int

	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewTranslationJobService creates a single-worker queue. Jobs run in
// submission order once Start is called.
func NewTranslationJobService(runner BatchRunner, queueSize int) TranslationJobService {
	if queueSize <= 0 {
		queueSize = DefaultJobQueueSize
	}
	return &translationJobManager{
		runner: runner,
		queue:  make(chan string, queueSize),
		jobs:   make(map[string]*TranslationJob),
		active: make(map[string]int),
		stopCh: make(chan struct{}),
	}
}

func (m *translationJobManager) Submit(articleID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	select {
	case m.queue <- id:
	default:
		return "", ErrQueueFull
	}
	m.jobs[id] = &TranslationJob{
		ID:        id,
		ArticleID: articleID,
		Status:    JobQueued,
		CreatedAt: time.Now(),
	}
	m.active[articleID]++
	return id, nil
}

func (m *translationJobManager) Get(jobID string) *TranslationJob {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return nil
	}
	// Return a copy
	out := *job
	if job.Result != nil {
		result := *job.Result
		out.Result = &result
	}
	return &out
}

func (m *translationJobManager) Active(articleID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[articleID] > 0
}

func (m *translationJobManager) Start() {
	m.wg.Add(1)
	go m.run()
	logger.Info("translation worker started", "module", "service", "action", "start", "resource", "translation_job", "result", "ok", "queue_size", cap(m.queue))
}

// Stop waits for the running job to finish. Queued jobs stay queued.
func (m *translationJobManager) Stop() {
	m.once.Do(func() { close(m.stopCh) })
	m.wg.Wait()
	logger.Info("translation worker stopped", "module", "service", "action", "stop", "resource", "translation_job", "result", "ok")
}

func (m *translationJobManager) run() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			return
		case id := <-m.queue:
			m.process(id)
		}
	}
}

func (m *translationJobManager) process(id string) {
	articleID, ok := m.markRunning(id)
	if !ok {
		return
	}

	// Detached: a batch is never cancelled halfway.
	result, err := m.runner.RunBatch(context.Background(), articleID)
	m.finish(id, result, err)
}

func (m *translationJobManager) markRunning(id string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return "", false
	}
	now := time.Now()
	job.Status = JobRunning
	job.StartedAt = &now
	return job.ArticleID, true
}

func (m *translationJobManager) finish(id string, result BatchResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return
	}
	now := time.Now()
	job.FinishedAt = &now
	if err != nil {
		job.Status = JobFailed
		job.Error = err.Error()
		logger.Warn("translation job failed", "module", "service", "action", "translate", "resource", "translation_job", "result", "failed", "job_id", id, "article_id", job.ArticleID, "error", err)
	} else {
		job.Status = JobDone
		job.Result = &result
		logger.Info("translation job done", "module", "service", "action", "translate", "resource", "translation_job", "result", "ok", "job_id", id, "article_id", job.ArticleID, "success", result.Success)
	}

	if m.active[job.ArticleID]--; m.active[job.ArticleID] <= 0 {
		delete(m.active, job.ArticleID)
	}

	m.finished = append(m.finished, id)
	if len(m.finished) > maxFinishedJobs {
		delete(m.jobs, m.finished[0])
		m.finished = m.finished[1:]
	}
}
