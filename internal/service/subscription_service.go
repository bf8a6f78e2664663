package service

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/model"
	"fintrack/internal/repository"

	"github.com/rs/zerolog"
)

// SubscriptionService defines business logic methods for subscriptions.
type SubscriptionService interface {
	// Get returns the user's subscription record, or nil when the user has
	// no subscription history.
	Get(ctx context.Context, userID string) (*model.Subscription, error)
	// StartTrial begins the one free trial a user ever gets. Any existing
	// subscription history, whatever its status, blocks it.
	StartTrial(ctx context.Context, userID string) (*model.Subscription, error)
	// GrantPremium grants premium until the given time; a nil until means
	// lifetime premium.
	GrantPremium(ctx context.Context, userID string, until *time.Time, grantedBy, note string) (*model.Subscription, error)
	// Cancel marks the subscription cancelled. The record is kept.
	Cancel(ctx context.Context, userID string) error
}

type subscriptionService struct {
	repo      repository.SubscriptionRepository
	trialDays int
	now       func() time.Time
	logger    zerolog.Logger
}

// NewSubscriptionService creates a new SubscriptionService with a scoped logger.
func NewSubscriptionService(repo repository.SubscriptionRepository, trialDays int, logger zerolog.Logger) SubscriptionService {
	if trialDays <= 0 {
		trialDays = 14
	}
	return &subscriptionService{
		repo:      repo,
		trialDays: trialDays,
		now:       time.Now,
		logger:    logger.With().Str("service", "SubscriptionService").Logger(),
	}
}

func (s *subscriptionService) Get(ctx context.Context, userID string) (*model.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch subscription")
		return nil, err
	}
	return sub, nil
}

func (s *subscriptionService) StartTrial(ctx context.Context, userID string) (*model.Subscription, error) {
	existing, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading subscription: %w", err)
	}
	if existing != nil {
		return nil, &BusinessRuleError{Message: "trial is only available to users without subscription history"}
	}

	trialEnd := s.now().Add(time.Duration(s.trialDays) * 24 * time.Hour)
	sub := &model.Subscription{
		UserID:      userID,
		Status:      model.SubscriptionTrialing,
		TrialEndsAt: &trialEnd,
	}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to start trial")
		return nil, err
	}
	s.logger.Info().Str("user_id", userID).Time("trial_ends_at", trialEnd).Msg("Trial started")
	return sub, nil
}

func (s *subscriptionService) GrantPremium(ctx context.Context, userID string, until *time.Time, grantedBy, note string) (*model.Subscription, error) {
	status := model.SubscriptionPremium
	if until == nil {
		status = model.SubscriptionLifetimePremium
	}

	existing, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading subscription: %w", err)
	}

	sub := existing
	if sub == nil {
		sub = &model.Subscription{UserID: userID}
	}
	sub.Status = status
	sub.PremiumEndsAt = until
	// Trial and premium are mutually exclusive.
	sub.TrialEndsAt = nil
	if grantedBy != "" {
		sub.GrantedBy = &grantedBy
	}
	if note != "" {
		sub.GrantNote = &note
	}

	if existing == nil {
		err = s.repo.CreateSubscription(ctx, sub)
	} else {
		err = s.repo.UpdateSubscription(ctx, sub)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to grant premium")
		return nil, err
	}
	s.logger.Info().Str("user_id", userID).Str("status", string(status)).Msg("Premium granted")
	return sub, nil
}

func (s *subscriptionService) Cancel(ctx context.Context, userID string) error {
	sub, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading subscription: %w", err)
	}
	if sub == nil {
		return &NotFoundError{Resource: "subscription", ID: userID}
	}
	sub.Status = model.SubscriptionCancelled
	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to cancel subscription")
		return err
	}
	s.logger.Info().Str("user_id", userID).Msg("Subscription cancelled")
	return nil
}
