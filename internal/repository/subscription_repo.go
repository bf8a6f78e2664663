package repository

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionRepository defines methods for accessing subscription data.
// Subscription rows are never deleted; grants and cancellations mutate the
// single per-user row so the audit fields survive.
type SubscriptionRepository interface {
	GetSubscription(ctx context.Context, userID string) (*model.Subscription, error)
	CreateSubscription(ctx context.Context, s *model.Subscription) error
	UpdateSubscription(ctx context.Context, s *model.Subscription) error
}

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepo{pool: pool}
}

// GetSubscription returns the user's subscription regardless of status, or
// nil when the user has no subscription history at all.
func (r *subscriptionRepo) GetSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	const q = `
        SELECT user_id, status, trial_ends_at, premium_ends_at, granted_by, grant_note, created_at, updated_at
        FROM subscriptions
        WHERE user_id = $1
    `
	var s model.Subscription
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&s.UserID, &s.Status, &s.TrialEndsAt, &s.PremiumEndsAt,
		&s.GrantedBy, &s.GrantNote, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch subscription for user %s: %w", userID, err)
	}
	return &s, nil
}

func (r *subscriptionRepo) CreateSubscription(ctx context.Context, s *model.Subscription) error {
	const q = `
        INSERT INTO subscriptions (user_id, status, trial_ends_at, premium_ends_at, granted_by, grant_note)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at
    `
	err := r.pool.QueryRow(ctx, q,
		s.UserID, s.Status, s.TrialEndsAt, s.PremiumEndsAt, s.GrantedBy, s.GrantNote,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating subscription for user %s: %w", s.UserID, err)
	}
	return nil
}

func (r *subscriptionRepo) UpdateSubscription(ctx context.Context, s *model.Subscription) error {
	const q = `
        UPDATE subscriptions
        SET status = $2, trial_ends_at = $3, premium_ends_at = $4, granted_by = $5, grant_note = $6, updated_at = NOW()
        WHERE user_id = $1
        RETURNING updated_at
    `
	err := r.pool.QueryRow(ctx, q,
		s.UserID, s.Status, s.TrialEndsAt, s.PremiumEndsAt, s.GrantedBy, s.GrantNote,
	).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating subscription for user %s: %w", s.UserID, err)
	}
	return nil
}
