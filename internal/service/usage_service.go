package service

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/model"
	"fintrack/internal/repository"

	"github.com/rs/zerolog"
)

// UsageService orchestrates the per-period usage counters. Increment,
// decrement and set are best-effort bookkeeping for a primary operation
// elsewhere: callers log failures and carry on rather than failing the
// primary operation.
type UsageService interface {
	// CheckLimit evaluates whether the user may perform another action of
	// the given type in the current billing period.
	CheckLimit(ctx context.Context, userID string, limitType model.LimitType) (PolicyResult, error)
	// IncrementUsage bumps the counter by one, creating the current-period
	// record if needed.
	IncrementUsage(ctx context.Context, userID string, limitType model.LimitType) error
	// DecrementUsage lowers the counter by one, floored at zero. Used when
	// an action is undone.
	DecrementUsage(ctx context.Context, userID string, limitType model.LimitType) error
	// SetActiveDebtsCount overwrites the derived active-debts counter with
	// the live count from the debt store.
	SetActiveDebtsCount(ctx context.Context, userID string, count int) error
}

type usageService struct {
	usageRepo repository.UsageRepository
	subRepo   repository.SubscriptionRepository
	now       func() time.Time
	logger    zerolog.Logger
}

// NewUsageService creates a new UsageService with a scoped logger.
func NewUsageService(usageRepo repository.UsageRepository, subRepo repository.SubscriptionRepository, logger zerolog.Logger) UsageService {
	return &usageService{
		usageRepo: usageRepo,
		subRepo:   subRepo,
		now:       time.Now,
		logger:    logger.With().Str("service", "UsageService").Logger(),
	}
}

// periodBounds returns the calendar-month window containing t, in UTC.
// Rolling into a new month changes the period key, so the first check or
// increment of a month lazily creates a fresh zeroed record; old records
// are kept for history.
func periodBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func (s *usageService) currentPeriod(ctx context.Context, userID string) (*model.UsagePeriod, error) {
	start, end := periodBounds(s.now())
	return s.usageRepo.EnsurePeriod(ctx, userID, start, end)
}

func (s *usageService) CheckLimit(ctx context.Context, userID string, limitType model.LimitType) (PolicyResult, error) {
	if !limitType.Valid() {
		return PolicyResult{}, NewValidationError("unknown limit type %q", limitType)
	}
	usage, err := s.currentPeriod(ctx, userID)
	if err != nil {
		return PolicyResult{}, fmt.Errorf("loading usage period: %w", err)
	}
	sub, err := s.subRepo.GetSubscription(ctx, userID)
	if err != nil {
		return PolicyResult{}, fmt.Errorf("loading subscription: %w", err)
	}
	return EvaluateLimit(sub, usage, limitType, s.now()), nil
}

func (s *usageService) IncrementUsage(ctx context.Context, userID string, limitType model.LimitType) error {
	usage, err := s.currentPeriod(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading usage period: %w", err)
	}
	if err := s.usageRepo.AddToCounter(ctx, userID, usage.PeriodStart, limitType, 1); err != nil {
		return fmt.Errorf("incrementing %s: %w", limitType, err)
	}
	return nil
}

func (s *usageService) DecrementUsage(ctx context.Context, userID string, limitType model.LimitType) error {
	usage, err := s.currentPeriod(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading usage period: %w", err)
	}
	// Counters never go negative; a decrement at zero is a no-op.
	if usage.Count(limitType) == 0 {
		return nil
	}
	if err := s.usageRepo.AddToCounter(ctx, userID, usage.PeriodStart, limitType, -1); err != nil {
		return fmt.Errorf("decrementing %s: %w", limitType, err)
	}
	return nil
}

func (s *usageService) SetActiveDebtsCount(ctx context.Context, userID string, count int) error {
	usage, err := s.currentPeriod(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading usage period: %w", err)
	}
	if count < 0 {
		count = 0
	}
	if err := s.usageRepo.SetActiveDebts(ctx, userID, usage.PeriodStart, count); err != nil {
		return fmt.Errorf("setting active debts count: %w", err)
	}
	return nil
}
