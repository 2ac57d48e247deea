package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Hakote/Hakote/internal/model"
)

// MemoryStore is an in-process Store for dry runs and tests
type MemoryStore struct {
	mu   sync.Mutex
	jobs []*model.CronJob
	now  func() time.Time
}

// NewMemoryStore creates an empty queue
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Insert(ctx context.Context, job *model.CronJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Type == "" {
		job.Type = model.JobTypeSendDailyEmail
	}
	if job.Status == "" {
		job.Status = model.JobPending
	}
	job.CreatedAt = m.now()
	cp := *job
	m.jobs = append(m.jobs, &cp)
	return nil
}

func (m *MemoryStore) NextPending(ctx context.Context) (*model.CronJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.Status == model.JobPending && j.Type == model.JobTypeSendDailyEmail {
			cp := *j
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) Claim(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.find(id)
	if j == nil || j.Status != model.JobPending {
		return false, nil
	}
	now := m.now()
	j.Status = model.JobProcessing
	j.StartedAt = &now
	return true, nil
}

func (m *MemoryStore) Complete(ctx context.Context, id string) error {
	m.finish(id, model.JobCompleted, "")
	return nil
}

func (m *MemoryStore) Fail(ctx context.Context, id, message string) error {
	m.finish(id, model.JobFailed, message)
	return nil
}

func (m *MemoryStore) Retry(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.find(id)
	if j == nil || j.RetryCount >= j.MaxRetries {
		return false, nil
	}
	j.Status = model.JobPending
	j.RetryCount++
	j.ErrorMessage = nil
	return true, nil
}

// Counts returns the number of jobs per status
func (m *MemoryStore) Counts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, j := range m.jobs {
		counts[j.Status]++
	}
	return counts
}

// Get returns a copy of the job with id
func (m *MemoryStore) Get(id string) (model.CronJob, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j := m.find(id); j != nil {
		return *j, true
	}
	return model.CronJob{}, false
}

func (m *MemoryStore) finish(id, status, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.find(id)
	if j == nil {
		return
	}
	now := m.now()
	j.Status = status
	j.CompletedAt = &now
	if message != "" {
		j.ErrorMessage = &message
	}
}

func (m *MemoryStore) find(id string) *model.CronJob {
	for _, j := range m.jobs {
		if j.ID == id {
			return j
		}
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
