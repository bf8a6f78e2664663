package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageRepository tracks per-user, per-billing-period counters. One row
// exists per (user, period start); rows from past periods are retained.
type UsageRepository interface {
	// EnsurePeriod returns the row for the given period, creating a zeroed
	// one if it does not exist yet.
	EnsurePeriod(ctx context.Context, userID string, periodStart, periodEnd time.Time) (*model.UsagePeriod, error)
	// GetPeriod returns the row for the given period start, or nil.
	GetPeriod(ctx context.Context, userID string, periodStart time.Time) (*model.UsagePeriod, error)
	// AddToCounter adjusts a counter by delta, flooring the result at zero.
	AddToCounter(ctx context.Context, userID string, periodStart time.Time, limitType model.LimitType, delta int) error
	// SetActiveDebts overwrites the derived active-debts counter.
	SetActiveDebts(ctx context.Context, userID string, periodStart time.Time, count int) error
}

type usageRepo struct {
	pool *pgxpool.Pool
}

// NewUsageRepo creates a new UsageRepository.
func NewUsageRepo(pool *pgxpool.Pool) UsageRepository {
	return &usageRepo{pool: pool}
}

const usagePeriodColumns = `user_id, period_start, period_end, transactions_count, voice_inputs_count, active_debts_count, created_at, updated_at`

// counterColumn whitelists the column a limit type maps to; counter names
// never come from user input but the indirection keeps the SQL static.
func counterColumn(t model.LimitType) (string, error) {
	switch t {
	case model.LimitTransactions:
		return "transactions_count", nil
	case model.LimitVoiceInputs:
		return "voice_inputs_count", nil
	case model.LimitDebts:
		return "active_debts_count", nil
	default:
		return "", fmt.Errorf("unknown limit type %q", t)
	}
}

func scanUsagePeriod(row pgx.Row) (*model.UsagePeriod, error) {
	var u model.UsagePeriod
	err := row.Scan(
		&u.UserID, &u.PeriodStart, &u.PeriodEnd,
		&u.TransactionsCount, &u.VoiceInputsCount, &u.ActiveDebtsCount,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *usageRepo) EnsurePeriod(ctx context.Context, userID string, periodStart, periodEnd time.Time) (*model.UsagePeriod, error) {
	const insertQ = `
        INSERT INTO usage_periods (user_id, period_start, period_end)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, period_start) DO NOTHING
    `
	if _, err := r.pool.Exec(ctx, insertQ, userID, periodStart, periodEnd); err != nil {
		return nil, fmt.Errorf("ensuring usage period for user %s: %w", userID, err)
	}
	u, err := r.GetPeriod(ctx, userID, periodStart)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("usage period for user %s missing after insert", userID)
	}
	return u, nil
}

func (r *usageRepo) GetPeriod(ctx context.Context, userID string, periodStart time.Time) (*model.UsagePeriod, error) {
	q := `SELECT ` + usagePeriodColumns + ` FROM usage_periods WHERE user_id = $1 AND period_start = $2`
	u, err := scanUsagePeriod(r.pool.QueryRow(ctx, q, userID, periodStart))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch usage period for user %s: %w", userID, err)
	}
	return u, nil
}

func (r *usageRepo) AddToCounter(ctx context.Context, userID string, periodStart time.Time, limitType model.LimitType, delta int) error {
	col, err := counterColumn(limitType)
	if err != nil {
		return err
	}
	// GREATEST floors the counter at zero so an extra decrement is a no-op.
	q := fmt.Sprintf(`
        UPDATE usage_periods
        SET %s = GREATEST(%s + $3, 0), updated_at = NOW()
        WHERE user_id = $1 AND period_start = $2
    `, col, col)
	if _, err := r.pool.Exec(ctx, q, userID, periodStart, delta); err != nil {
		return fmt.Errorf("adjusting %s for user %s: %w", col, userID, err)
	}
	return nil
}

func (r *usageRepo) SetActiveDebts(ctx context.Context, userID string, periodStart time.Time, count int) error {
	const q = `
        UPDATE usage_periods
        SET active_debts_count = GREATEST($3, 0), updated_at = NOW()
        WHERE user_id = $1 AND period_start = $2
    `
	if _, err := r.pool.Exec(ctx, q, userID, periodStart, count); err != nil {
		return fmt.Errorf("setting active debts count for user %s: %w", userID, err)
	}
	return nil
}
