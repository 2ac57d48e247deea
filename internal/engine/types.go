package engine

import (
	"context"
	"time"
)

// Frequency tags a subscription's weekly cadence
type Frequency string

// Known frequencies
const (
	TwiceWeekly  Frequency = "2x" // Tue, Thu
	ThriceWeekly Frequency = "3x" // Mon, Wed, Fri
	Weekdays     Frequency = "5x" // Mon-Fri
)

// DeliveryStatus is the state of a subscription's delivery for one day
type DeliveryStatus string

// Delivery statuses. Sent is terminal for the day; queued and failed are
// both retried.
const (
	StatusQueued DeliveryStatus = "queued"
	StatusSent   DeliveryStatus = "sent"
	StatusFailed DeliveryStatus = "failed"
)

// Subscription is an active subscription joined with its subscriber and list
type Subscription struct {
	ID              string
	SubscriberID    string
	Email           string
	ProblemListID   string
	ProblemListName string
	Frequency       Frequency
}

// Problem is a read-only problem in a list
type Problem struct {
	ID            string
	ProblemListID string
	Title         string
	URL           string
	Difficulty    string
	Week          *int
	CreatedAt     time.Time
}

// Progress is a subscription's cursor into its problem list
type Progress struct {
	SubscriptionID    string
	CurrentIndex      int
	TotalProblemsSent int
}

// Delivery is the existing record for a subscription on the run's day
type Delivery struct {
	SubscriptionID string
	Status         DeliveryStatus
}

// DeliveryRecord is what gets written when a send succeeds
type DeliveryRecord struct {
	SubscriberID   string
	SubscriptionID string
	ProblemListID  string
	ProblemID      string
	Date           string
	Status         DeliveryStatus
}

// Store is the persistence the engine needs. Reads happen once per run;
// writes are keyed by subscription and day.
type Store interface {
	ListActiveSubscriptions(ctx context.Context) ([]Subscription, error)
	ListActiveProblems(ctx context.Context) ([]Problem, error)
	GetProgress(ctx context.Context, subscriptionIDs []string) (map[string]Progress, error)
	GetDeliveries(ctx context.Context, subscriptionIDs []string, date string) (map[string]Delivery, error)

	// EnsureProgress creates a progress row at index 0 if none exists
	EnsureProgress(ctx context.Context, subscriptionID string) error
	UpsertProgress(ctx context.Context, subscriptionID string, index, totalSent int) error
	UpsertDelivery(ctx context.Context, rec DeliveryRecord) error
	UpdateDeliveryStatus(ctx context.Context, subscriptionID, date string, status DeliveryStatus) error
}

// Email is one problem mail
type Email struct {
	To             string
	Subject        string
	Title          string
	Difficulty     string
	URL            string
	UnsubscribeURL string
}

// Sender delivers an email. Any error counts as a failed send.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// SenderFunc adapts a function to Sender
type SenderFunc func(ctx context.Context, email Email) error

// Send calls f
func (f SenderFunc) Send(ctx context.Context, email Email) error {
	return f(ctx, email)
}

// URLBuilder builds the unsubscribe link for a subscription
type URLBuilder interface {
	SubscriptionURL(subscriptionID string) string
}

// Recorder receives run and delivery observations
type Recorder interface {
	ObserveDelivery(result string)
	ObserveRun(summary Summary, duration time.Duration)
}
