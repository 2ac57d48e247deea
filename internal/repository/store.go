package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/Hakote/Hakote/internal/engine"
	"github.com/Hakote/Hakote/internal/model"
)

type subscriptionRow struct {
	ID              string
	SubscriberID    string
	Email           string
	ProblemListID   string
	ProblemListName string
	Frequency       string
}

// ListActiveSubscriptions returns active subscriptions whose subscriber is
// active too
func (r *Repository) ListActiveSubscriptions(ctx context.Context) ([]engine.Subscription, error) {
	var rows []subscriptionRow
	err := r.db.WithContext(ctx).
		Table("subscriptions AS s").
		Select("s.id, s.subscriber_id, sub.email, s.problem_list_id, pl.name AS problem_list_name, s.frequency").
		Joins("JOIN subscribers sub ON sub.id = s.subscriber_id").
		Joins("JOIN problem_lists pl ON pl.id = s.problem_list_id").
		Where("s.is_active = ? AND sub.is_active = ?", true, true).
		Order("s.created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active subscriptions: %w", err)
	}

	subs := make([]engine.Subscription, len(rows))
	for i, row := range rows {
		subs[i] = engine.Subscription{
			ID:              row.ID,
			SubscriberID:    row.SubscriberID,
			Email:           row.Email,
			ProblemListID:   row.ProblemListID,
			ProblemListName: row.ProblemListName,
			Frequency:       engine.Frequency(row.Frequency),
		}
	}
	return subs, nil
}

// ListActiveProblems returns every active problem, week first (missing weeks
// last) then creation time
func (r *Repository) ListActiveProblems(ctx context.Context) ([]engine.Problem, error) {
	var rows []model.Problem
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("week IS NULL, week, created_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active problems: %w", err)
	}

	problems := make([]engine.Problem, len(rows))
	for i, p := range rows {
		problems[i] = engine.Problem{
			ID:            p.ID,
			ProblemListID: p.ProblemListID,
			Title:         p.Title,
			URL:           p.URL,
			Difficulty:    p.Difficulty,
			Week:          p.Week,
			CreatedAt:     p.CreatedAt,
		}
	}
	return problems, nil
}

// GetProgress returns the progress rows of the given subscriptions keyed by id
func (r *Repository) GetProgress(ctx context.Context, subscriptionIDs []string) (map[string]engine.Progress, error) {
	progress := make(map[string]engine.Progress, len(subscriptionIDs))
	if len(subscriptionIDs) == 0 {
		return progress, nil
	}

	var rows []model.SubscriptionProgress
	if err := r.db.WithContext(ctx).Where("subscription_id IN ?", subscriptionIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get subscription progress: %w", err)
	}
	for _, row := range rows {
		progress[row.SubscriptionID] = engine.Progress{
			SubscriptionID:    row.SubscriptionID,
			CurrentIndex:      row.CurrentProblemIndex,
			TotalProblemsSent: row.TotalProblemsSent,
		}
	}
	return progress, nil
}

// GetDeliveries returns the deliveries recorded for date keyed by subscription
func (r *Repository) GetDeliveries(ctx context.Context, subscriptionIDs []string, date string) (map[string]engine.Delivery, error) {
	deliveries := make(map[string]engine.Delivery, len(subscriptionIDs))
	if len(subscriptionIDs) == 0 {
		return deliveries, nil
	}

	var rows []model.Delivery
	err := r.db.WithContext(ctx).
		Where("subscription_id IN ? AND send_date = ?", subscriptionIDs, date).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get deliveries for %s: %w", date, err)
	}
	for _, row := range rows {
		deliveries[row.SubscriptionID] = engine.Delivery{
			SubscriptionID: row.SubscriptionID,
			Status:         engine.DeliveryStatus(row.Status),
		}
	}
	return deliveries, nil
}

func (r *Repository) EnsureProgress(ctx context.Context, subscriptionID string) error {
	row := model.SubscriptionProgress{SubscriptionID: subscriptionID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to create progress for %s: %w", subscriptionID, err)
	}
	return nil
}

func (r *Repository) UpsertProgress(ctx context.Context, subscriptionID string, index, totalSent int) error {
	row := model.SubscriptionProgress{
		SubscriptionID:      subscriptionID,
		CurrentProblemIndex: index,
		TotalProblemsSent:   totalSent,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subscription_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"current_problem_index", "total_problems_sent", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to update progress for %s: %w", subscriptionID, err)
	}
	return nil
}

func (r *Repository) UpsertDelivery(ctx context.Context, rec engine.DeliveryRecord) error {
	row := model.Delivery{
		SubscriberID:   rec.SubscriberID,
		SubscriptionID: rec.SubscriptionID,
		ProblemListID:  rec.ProblemListID,
		ProblemID:      rec.ProblemID,
		SendDate:       rec.Date,
		Status:         string(rec.Status),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subscription_id"}, {Name: "send_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"problem_id", "status", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to record delivery for %s: %w", rec.SubscriptionID, err)
	}
	return nil
}

func (r *Repository) UpdateDeliveryStatus(ctx context.Context, subscriptionID, date string, status engine.DeliveryStatus) error {
	err := r.db.WithContext(ctx).
		Model(&model.Delivery{}).
		Where("subscription_id = ? AND send_date = ?", subscriptionID, date).
		Updates(map[string]interface{}{
			"status":     string(status),
			"updated_at": r.now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to set delivery status for %s: %w", subscriptionID, err)
	}
	return nil
}

var _ engine.Store = (*Repository)(nil)
