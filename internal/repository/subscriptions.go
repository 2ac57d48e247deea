package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Hakote/Hakote/internal/model"
)

// ErrUnknownProblemList is returned when a subscribe request names a list
// that does not exist or is inactive
var ErrUnknownProblemList = errors.New("unknown problem list")

// SubscribeInput is a validated subscribe request
type SubscribeInput struct {
	Email          string
	Frequency      string
	ProblemListIDs []string
}

// SubscribeResult is the subscriber after the upsert and its subscriptions
// for the requested lists
type SubscribeResult struct {
	Subscriber    model.Subscriber     `json:"subscriber"`
	Subscriptions []model.Subscription `json:"subscriptions"`
}

// Subscribe creates or reactivates a subscriber and one subscription per
// problem list. With no lists given every active list is used. Existing
// subscriptions keep their progress; reactivation bumps the resubscribe
// counters.
func (r *Repository) Subscribe(ctx context.Context, in SubscribeInput) (*SubscribeResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	result := &SubscribeResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lists, err := r.resolveLists(tx, in.ProblemListIDs)
		if err != nil {
			return err
		}

		sub, err := r.upsertSubscriber(tx, email, in.Frequency)
		if err != nil {
			return err
		}
		result.Subscriber = *sub

		for _, list := range lists {
			s, err := r.upsertSubscription(tx, sub.ID, list.ID, in.Frequency)
			if err != nil {
				return err
			}
			result.Subscriptions = append(result.Subscriptions, *s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Repository) resolveLists(tx *gorm.DB, ids []string) ([]model.ProblemList, error) {
	var lists []model.ProblemList
	q := tx.Where("is_active = ?", true)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	if err := q.Order("name").Find(&lists).Error; err != nil {
		return nil, fmt.Errorf("failed to load problem lists: %w", err)
	}
	if len(ids) > 0 && len(lists) != len(dedupe(ids)) {
		return nil, ErrUnknownProblemList
	}
	if len(lists) == 0 {
		return nil, ErrUnknownProblemList
	}
	return lists, nil
}

func (r *Repository) upsertSubscriber(tx *gorm.DB, email, frequency string) (*model.Subscriber, error) {
	var sub model.Subscriber
	err := tx.Where("email = ?", email).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sub = model.Subscriber{Email: email, Frequency: frequency, IsActive: true}
		if err := tx.Create(&sub).Error; err != nil {
			return nil, fmt.Errorf("failed to create subscriber: %w", err)
		}
		return &sub, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subscriber: %w", err)
	}

	updates := map[string]interface{}{
		"frequency": frequency,
		"is_active": true,
	}
	if !sub.IsActive {
		now := r.now()
		updates["resubscribe_count"] = sub.ResubscribeCount + 1
		updates["last_resubscribed_at"] = now
		sub.ResubscribeCount++
		sub.LastResubscribedAt = &now
	}
	if err := tx.Model(&sub).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update subscriber: %w", err)
	}
	sub.Frequency = frequency
	sub.IsActive = true
	return &sub, nil
}

func (r *Repository) upsertSubscription(tx *gorm.DB, subscriberID, listID, frequency string) (*model.Subscription, error) {
	var s model.Subscription
	err := tx.Where("subscriber_id = ? AND problem_list_id = ?", subscriberID, listID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s = model.Subscription{
			SubscriberID:  subscriberID,
			ProblemListID: listID,
			Frequency:     frequency,
			IsActive:      true,
		}
		if err := tx.Create(&s).Error; err != nil {
			return nil, fmt.Errorf("failed to create subscription: %w", err)
		}
		return &s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}

	updates := map[string]interface{}{
		"frequency": frequency,
		"is_active": true,
	}
	if !s.IsActive {
		now := r.now()
		updates["resubscribe_count"] = s.ResubscribeCount + 1
		updates["last_resubscribed_at"] = now
		s.ResubscribeCount++
		s.LastResubscribedAt = &now
	}
	if err := tx.Model(&s).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}
	s.Frequency = frequency
	s.IsActive = true
	return &s, nil
}

type subscriptionListRow struct {
	ID              string
	ProblemListName string
}

// UnsubscribeSubscription deactivates one active subscription and returns
// the name of its problem list
func (r *Repository) UnsubscribeSubscription(ctx context.Context, subscriptionID string) (string, error) {
	var row subscriptionListRow
	err := r.db.WithContext(ctx).
		Table("subscriptions AS s").
		Select("s.id, pl.name AS problem_list_name").
		Joins("JOIN problem_lists pl ON pl.id = s.problem_list_id").
		Where("s.id = ? AND s.is_active = ?", subscriptionID, true).
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return "", fmt.Errorf("failed to find subscription: %w", err)
	}
	if row.ID == "" {
		return "", ErrNotFound
	}

	err = r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("id = ?", subscriptionID).
		Updates(map[string]interface{}{
			"is_active":            false,
			"last_unsubscribed_at": r.now(),
		}).Error
	if err != nil {
		return "", fmt.Errorf("failed to deactivate subscription: %w", err)
	}
	return row.ProblemListName, nil
}

// UnsubscribeByToken deactivates the subscriber owning token and all of its
// subscriptions
func (r *Repository) UnsubscribeByToken(ctx context.Context, token string) error {
	var sub model.Subscriber
	err := r.db.WithContext(ctx).Where("unsubscribe_token = ?", token).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to find subscriber: %w", err)
	}

	now := r.now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&sub).Updates(map[string]interface{}{
			"is_active":            false,
			"last_unsubscribed_at": now,
		}).Error; err != nil {
			return fmt.Errorf("failed to deactivate subscriber: %w", err)
		}
		if err := tx.Model(&model.Subscription{}).
			Where("subscriber_id = ? AND is_active = ?", sub.ID, true).
			Updates(map[string]interface{}{
				"is_active":            false,
				"last_unsubscribed_at": now,
			}).Error; err != nil {
			return fmt.Errorf("failed to deactivate subscriptions: %w", err)
		}
		return nil
	})
}

// ListProblemLists returns the active problem lists by name
func (r *Repository) ListProblemLists(ctx context.Context) ([]model.ProblemList, error) {
	var lists []model.ProblemList
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&lists).Error; err != nil {
		return nil, fmt.Errorf("failed to list problem lists: %w", err)
	}
	return lists, nil
}

// ListProblems returns the active problems by id
func (r *Repository) ListProblems(ctx context.Context) ([]model.Problem, error) {
	var problems []model.Problem
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&problems).Error; err != nil {
		return nil, fmt.Errorf("failed to list problems: %w", err)
	}
	return problems, nil
}

// Stats counts active subscriptions per frequency
type Stats struct {
	Total     int64            `json:"total"`
	Frequency map[string]int64 `json:"frequency"`
}

func (r *Repository) SubscriptionStats(ctx context.Context) (*Stats, error) {
	var rows []struct {
		Frequency string
		Count     int64
	}
	err := r.db.WithContext(ctx).
		Table("subscriptions AS s").
		Select("s.frequency, COUNT(*) AS count").
		Joins("JOIN subscribers sub ON sub.id = s.subscriber_id").
		Where("s.is_active = ? AND sub.is_active = ?", true, true).
		Group("s.frequency").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	stats := &Stats{Frequency: map[string]int64{"2x": 0, "3x": 0, "5x": 0}}
	for _, row := range rows {
		stats.Frequency[row.Frequency] = row.Count
		stats.Total += row.Count
	}
	return stats, nil
}

// ProblemOfTheDay picks the active problem at hash modulo the active count,
// in delivery order
func (r *Repository) ProblemOfTheDay(ctx context.Context, hash int) (*model.Problem, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Problem{}).Where("active = ?", true).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count problems: %w", err)
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	offset := hash % int(count)
	if offset < 0 {
		offset += int(count)
	}

	var p model.Problem
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("week IS NULL, week, created_at").
		Offset(offset).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load problem of the day: %w", err)
	}
	if p.ID == "" {
		return nil, ErrNotFound
	}
	return &p, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
