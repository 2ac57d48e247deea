package engine

import (
	"context"
	"fmt"
)

// State is the progress and delivery lookup for one run. It is read-only
// once loaded and shared by every subscription task.
type State struct {
	Progress   map[string]Progress
	Deliveries map[string]Delivery
}

// LoadState reads progress and today's deliveries for the given
// subscriptions with one query each.
func LoadState(ctx context.Context, store Store, subscriptionIDs []string, date string) (*State, error) {
	progress, err := store.GetProgress(ctx, subscriptionIDs)
	if err != nil {
		return nil, fmt.Errorf("progress: %w", err)
	}
	deliveries, err := store.GetDeliveries(ctx, subscriptionIDs, date)
	if err != nil {
		return nil, fmt.Errorf("deliveries: %w", err)
	}
	if progress == nil {
		progress = map[string]Progress{}
	}
	if deliveries == nil {
		deliveries = map[string]Delivery{}
	}
	return &State{Progress: progress, Deliveries: deliveries}, nil
}

// ProgressFor returns the stored progress and whether a row exists
func (s *State) ProgressFor(subscriptionID string) (Progress, bool) {
	p, ok := s.Progress[subscriptionID]
	return p, ok
}

// DeliveryFor returns today's delivery and whether a row exists
func (s *State) DeliveryFor(subscriptionID string) (Delivery, bool) {
	d, ok := s.Deliveries[subscriptionID]
	return d, ok
}
