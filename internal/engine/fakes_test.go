package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

const (
	monday   = "2025-09-01"
	tuesday  = "2025-09-02"
	saturday = "2025-09-06"
)

type memStore struct {
	mu         sync.Mutex
	subs       []Subscription
	problems   []Problem
	progress   map[string]Progress
	deliveries map[string]DeliveryRecord
	updates    []string

	errSubs          error
	errProblems      error
	errProgress      error
	errDeliveries    error
	errUpsertDeliver error
	errUpsertProg    error

	// failAfterCancel makes upserts fail once their ctx is done
	failAfterCancel bool
}

func newMemStore() *memStore {
	return &memStore{
		progress:   map[string]Progress{},
		deliveries: map[string]DeliveryRecord{},
	}
}

func dkey(subscriptionID, date string) string { return subscriptionID + "|" + date }

func (s *memStore) ListActiveSubscriptions(ctx context.Context) ([]Subscription, error) {
	if s.errSubs != nil {
		return nil, s.errSubs
	}
	return append([]Subscription(nil), s.subs...), nil
}

func (s *memStore) ListActiveProblems(ctx context.Context) ([]Problem, error) {
	if s.errProblems != nil {
		return nil, s.errProblems
	}
	return append([]Problem(nil), s.problems...), nil
}

func (s *memStore) GetProgress(ctx context.Context, ids []string) (map[string]Progress, error) {
	if s.errProgress != nil {
		return nil, s.errProgress
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]Progress{}
	for _, id := range ids {
		if p, ok := s.progress[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *memStore) GetDeliveries(ctx context.Context, ids []string, date string) (map[string]Delivery, error) {
	if s.errDeliveries != nil {
		return nil, s.errDeliveries
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]Delivery{}
	for _, id := range ids {
		if d, ok := s.deliveries[dkey(id, date)]; ok {
			out[id] = Delivery{SubscriptionID: id, Status: d.Status}
		}
	}
	return out, nil
}

func (s *memStore) EnsureProgress(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.progress[id]; !ok {
		s.progress[id] = Progress{SubscriptionID: id}
	}
	return nil
}

func (s *memStore) UpsertProgress(ctx context.Context, id string, index, total int) error {
	if s.errUpsertProg != nil {
		return s.errUpsertProg
	}
	if s.failAfterCancel && ctx.Err() != nil {
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[id] = Progress{SubscriptionID: id, CurrentIndex: index, TotalProblemsSent: total}
	return nil
}

func (s *memStore) UpsertDelivery(ctx context.Context, rec DeliveryRecord) error {
	if s.errUpsertDeliver != nil {
		return s.errUpsertDeliver
	}
	if s.failAfterCancel && ctx.Err() != nil {
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries[dkey(rec.SubscriptionID, rec.Date)] = rec
	return nil
}

func (s *memStore) UpdateDeliveryStatus(ctx context.Context, id, date string, status DeliveryStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, fmt.Sprintf("%s:%s", id, status))
	k := dkey(id, date)
	if d, ok := s.deliveries[k]; ok {
		d.Status = status
		s.deliveries[k] = d
	}
	return nil
}

func (s *memStore) status(id, date string) (DeliveryStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveries[dkey(id, date)]
	return d.Status, ok
}

func (s *memStore) seedDelivery(id, date string, status DeliveryStatus) {
	s.deliveries[dkey(id, date)] = DeliveryRecord{SubscriptionID: id, Date: date, Status: status}
}

func (s *memStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates) + len(s.deliveries)
}

// recordingSender remembers who got what and can fail or panic per address
type recordingSender struct {
	mu     sync.Mutex
	sent   []Email
	fail   map[string]error
	panics map[string]bool
	block  bool
	// onSend runs after a successful send is recorded
	onSend func()
}

func (r *recordingSender) Send(ctx context.Context, email Email) error {
	if r.panics[email.To] {
		panic("transport exploded")
	}
	if r.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if err := r.fail[email.To]; err != nil {
		return err
	}
	r.mu.Lock()
	r.sent = append(r.sent, email)
	r.mu.Unlock()
	if r.onSend != nil {
		r.onSend()
	}
	return nil
}

func (r *recordingSender) titlesFor(to string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var titles []string
	for _, e := range r.sent {
		if e.To == to {
			titles = append(titles, e.Title)
		}
	}
	return titles
}

func (r *recordingSender) recipients() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var to []string
	for _, e := range r.sent {
		to = append(to, e.To)
	}
	sort.Strings(to)
	return to
}

// recordingLogger keeps lines per channel
type recordingLogger struct {
	mu    sync.Mutex
	info  []string
	warn  []string
	errs  []string
	tests []string
}

func (l *recordingLogger) Infof(f string, a ...any) { l.add(&l.info, f, a) }
func (l *recordingLogger) Warnf(f string, a ...any) { l.add(&l.warn, f, a) }
func (l *recordingLogger) Testf(f string, a ...any) { l.add(&l.tests, f, a) }
func (l *recordingLogger) Errorf(err error, f string, a ...any) {
	l.add(&l.errs, f, a)
}

func (l *recordingLogger) add(dst *[]string, f string, a []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*dst = append(*dst, fmt.Sprintf(f, a...))
}

type staticURLs struct{}

func (staticURLs) SubscriptionURL(id string) string {
	return "https://hakote.dev/api/unsubscribe?subscription_id=" + id
}

type countingRecorder struct {
	mu         sync.Mutex
	deliveries map[string]int
	runs       int
}

func (c *countingRecorder) ObserveDelivery(result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deliveries == nil {
		c.deliveries = map[string]int{}
	}
	c.deliveries[result]++
}

func (c *countingRecorder) ObserveRun(Summary, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs++
}

func sub(id string, freq Frequency, list string) Subscription {
	return Subscription{
		ID:              id,
		SubscriberID:    "subscriber-" + id,
		Email:           id + "@example.com",
		ProblemListID:   list,
		ProblemListName: list,
		Frequency:       freq,
	}
}

func problems(list string, n int) []Problem {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]Problem, n)
	for i := range out {
		out[i] = Problem{
			ID:            fmt.Sprintf("%s-p%d", list, i),
			ProblemListID: list,
			Title:         fmt.Sprintf("%s problem %d", list, i),
			URL:           fmt.Sprintf("https://www.acmicpc.net/problem/%d", 1000+i),
			Difficulty:    "easy",
			CreatedAt:     base.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}
