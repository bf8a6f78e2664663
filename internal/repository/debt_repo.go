package repository

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrDebtNotFound is returned by transactional mutators when the debt row does not exist.
	ErrDebtNotFound = errors.New("debt_not_found")
	// ErrDebtNotActive is returned when a mutation targets a paid or cancelled debt.
	ErrDebtNotActive = errors.New("debt_not_active")
	// ErrPaymentExceedsRemaining is returned when a payment is larger than the debt's remaining amount.
	ErrPaymentExceedsRemaining = errors.New("payment_exceeds_remaining")
	// ErrPaymentNotFound is returned when the referenced payment row does not exist.
	ErrPaymentNotFound = errors.New("payment_not_found")
)

// DebtRepository defines methods for accessing debt and payment data.
// ApplyPayment and RevertPayment run inside a transaction and re-validate the
// debt state against the locked row, so two concurrent payments cannot both
// pass a stale remaining-amount check.
type DebtRepository interface {
	CreateDebt(ctx context.Context, d *model.Debt) error
	GetDebtByID(ctx context.Context, id string) (*model.Debt, error)
	ListDebts(ctx context.Context, userID string, status *model.DebtStatus) ([]model.Debt, error)
	UpdateDebtDetails(ctx context.Context, d *model.Debt) error
	CancelDebt(ctx context.Context, id string) (*model.Debt, error)
	DeleteDebt(ctx context.Context, id string) error
	CountActiveDebts(ctx context.Context, userID string) (int, error)
	SetOriginTransaction(ctx context.Context, debtID, transactionID string) error
	SummarizeActiveDebts(ctx context.Context, userID string) (*model.DebtSummary, error)

	ApplyPayment(ctx context.Context, debtID string, amountCents int64, note string) (*model.Debt, *model.DebtPayment, error)
	GetPaymentByID(ctx context.Context, paymentID string) (*model.DebtPayment, error)
	ListPayments(ctx context.Context, debtID string) ([]model.DebtPayment, error)
	RevertPayment(ctx context.Context, paymentID string) (*model.Debt, *model.DebtPayment, error)
}

type debtRepo struct {
	pool *pgxpool.Pool
}

// NewDebtRepo creates a new DebtRepository.
func NewDebtRepo(pool *pgxpool.Pool) DebtRepository {
	return &debtRepo{pool: pool}
}

const debtColumns = `id, user_id, type, person_name, original_cents, remaining_cents, currency, status, description, due_date, origin_transaction_id, created_at, updated_at`

func scanDebt(row pgx.Row) (*model.Debt, error) {
	var d model.Debt
	err := row.Scan(
		&d.DebtID, &d.UserID, &d.Type, &d.PersonName, &d.OriginalCents, &d.RemainingCents,
		&d.Currency, &d.Status, &d.Description, &d.DueDate, &d.OriginTransactionID,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *debtRepo) CreateDebt(ctx context.Context, d *model.Debt) error {
	const q = `
        INSERT INTO debts (user_id, type, person_name, original_cents, remaining_cents, currency, status, description, due_date)
        VALUES ($1, $2, $3, $4, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at
    `
	err := r.pool.QueryRow(ctx, q,
		d.UserID, d.Type, d.PersonName, d.OriginalCents, d.Currency, d.Status, d.Description, d.DueDate,
	).Scan(&d.DebtID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating debt for user %s: %w", d.UserID, err)
	}
	d.RemainingCents = d.OriginalCents
	return nil
}

func (r *debtRepo) GetDebtByID(ctx context.Context, id string) (*model.Debt, error) {
	q := `SELECT ` + debtColumns + ` FROM debts WHERE id = $1`
	d, err := scanDebt(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch debt %s: %w", id, err)
	}
	return d, nil
}

func (r *debtRepo) ListDebts(ctx context.Context, userID string, status *model.DebtStatus) ([]model.Debt, error) {
	q := `SELECT ` + debtColumns + ` FROM debts WHERE user_id = $1`
	args := []interface{}{userID}
	if status != nil {
		q += ` AND status = $2`
		args = append(args, *status)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing debts for user %s: %w", userID, err)
	}
	defer rows.Close()

	debts := []model.Debt{}
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return debts, nil
}

func (r *debtRepo) UpdateDebtDetails(ctx context.Context, d *model.Debt) error {
	const q = `
        UPDATE debts
        SET person_name = $2, description = $3, due_date = $4, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at
    `
	err := r.pool.QueryRow(ctx, q, d.DebtID, d.PersonName, d.Description, d.DueDate).Scan(&d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDebtNotFound
		}
		return fmt.Errorf("updating debt %s: %w", d.DebtID, err)
	}
	return nil
}

// CancelDebt transitions an active debt to cancelled. The status check is
// part of the UPDATE so a concurrent payment that closes the debt first
// cannot be overwritten.
func (r *debtRepo) CancelDebt(ctx context.Context, id string) (*model.Debt, error) {
	q := `
        UPDATE debts SET status = $2, updated_at = NOW()
        WHERE id = $1 AND status = $3
        RETURNING ` + debtColumns
	d, err := scanDebt(r.pool.QueryRow(ctx, q, id, model.DebtCancelled, model.DebtActive))
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cancelling debt %s: %w", id, err)
	}
	// Distinguish "missing" from "already terminal".
	existing, gerr := r.GetDebtByID(ctx, id)
	if gerr != nil {
		return nil, gerr
	}
	if existing == nil {
		return nil, ErrDebtNotFound
	}
	return nil, ErrDebtNotActive
}

func (r *debtRepo) DeleteDebt(ctx context.Context, id string) error {
	const q = `DELETE FROM debts WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("deleting debt %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDebtNotFound
	}
	return nil
}

func (r *debtRepo) CountActiveDebts(ctx context.Context, userID string) (int, error) {
	const q = `SELECT COUNT(*) FROM debts WHERE user_id = $1 AND status = $2`
	var count int
	if err := r.pool.QueryRow(ctx, q, userID, model.DebtActive).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting active debts for user %s: %w", userID, err)
	}
	return count, nil
}

func (r *debtRepo) SetOriginTransaction(ctx context.Context, debtID, transactionID string) error {
	const q = `UPDATE debts SET origin_transaction_id = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, debtID, transactionID); err != nil {
		return fmt.Errorf("linking origin transaction for debt %s: %w", debtID, err)
	}
	return nil
}

func (r *debtRepo) SummarizeActiveDebts(ctx context.Context, userID string) (*model.DebtSummary, error) {
	const q = `
        SELECT
            COALESCE(SUM(remaining_cents) FILTER (WHERE type = 'i_owe'), 0),
            COALESCE(SUM(remaining_cents) FILTER (WHERE type = 'owed_to_me'), 0),
            COUNT(*) FILTER (WHERE type = 'i_owe'),
            COUNT(*) FILTER (WHERE type = 'owed_to_me')
        FROM debts
        WHERE user_id = $1 AND status = 'active'
    `
	var s model.DebtSummary
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&s.TotalIOweCents, &s.TotalOwedToMeCents, &s.IOweCount, &s.OwedToMeCount,
	)
	if err != nil {
		return nil, fmt.Errorf("summarizing debts for user %s: %w", userID, err)
	}
	s.NetBalanceCents = s.TotalOwedToMeCents - s.TotalIOweCents
	return &s, nil
}

// ApplyPayment appends a payment to the debt's ledger and reduces the
// remaining amount, flipping the status to paid when it reaches exactly
// zero. The whole read-validate-write runs against a row locked FOR UPDATE.
func (r *debtRepo) ApplyPayment(ctx context.Context, debtID string, amountCents int64, note string) (*model.Debt, *model.DebtPayment, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, nil, fmt.Errorf("starting transaction for payment: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	lockQ := `SELECT ` + debtColumns + ` FROM debts WHERE id = $1 FOR UPDATE`
	d, err := scanDebt(tx.QueryRow(ctx, lockQ, debtID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrDebtNotFound
		}
		return nil, nil, fmt.Errorf("locking debt %s: %w", debtID, err)
	}
	if d.Status != model.DebtActive {
		return nil, nil, ErrDebtNotActive
	}
	if amountCents > d.RemainingCents {
		return nil, nil, ErrPaymentExceedsRemaining
	}

	var p model.DebtPayment
	const insertQ = `
        INSERT INTO debt_payments (debt_id, amount_cents, note)
        VALUES ($1, $2, $3)
        RETURNING id, debt_id, amount_cents, note, paid_at
    `
	err = tx.QueryRow(ctx, insertQ, debtID, amountCents, note).
		Scan(&p.PaymentID, &p.DebtID, &p.AmountCents, &p.Note, &p.PaidAt)
	if err != nil {
		return nil, nil, fmt.Errorf("recording payment for debt %s: %w", debtID, err)
	}

	updateQ := `
        UPDATE debts
        SET remaining_cents = remaining_cents - $2,
            status = CASE WHEN remaining_cents - $2 = 0 THEN 'paid' ELSE status END,
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + debtColumns
	updated, err := scanDebt(tx.QueryRow(ctx, updateQ, debtID, amountCents))
	if err != nil {
		return nil, nil, fmt.Errorf("applying payment to debt %s: %w", debtID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("committing payment for debt %s: %w", debtID, err)
	}
	return updated, &p, nil
}

func (r *debtRepo) GetPaymentByID(ctx context.Context, paymentID string) (*model.DebtPayment, error) {
	const q = `SELECT id, debt_id, amount_cents, note, paid_at FROM debt_payments WHERE id = $1`
	var p model.DebtPayment
	err := r.pool.QueryRow(ctx, q, paymentID).
		Scan(&p.PaymentID, &p.DebtID, &p.AmountCents, &p.Note, &p.PaidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch payment %s: %w", paymentID, err)
	}
	return &p, nil
}

func (r *debtRepo) ListPayments(ctx context.Context, debtID string) ([]model.DebtPayment, error) {
	const q = `
        SELECT id, debt_id, amount_cents, note, paid_at
        FROM debt_payments
        WHERE debt_id = $1
        ORDER BY paid_at ASC
    `
	rows, err := r.pool.Query(ctx, q, debtID)
	if err != nil {
		return nil, fmt.Errorf("listing payments for debt %s: %w", debtID, err)
	}
	defer rows.Close()

	payments := []model.DebtPayment{}
	for rows.Next() {
		var p model.DebtPayment
		if err := rows.Scan(&p.PaymentID, &p.DebtID, &p.AmountCents, &p.Note, &p.PaidAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

// RevertPayment deletes a payment and restores its amount onto the parent
// debt. The debt is forced back to active unconditionally: the deleted
// payment may have been the one that closed it.
func (r *debtRepo) RevertPayment(ctx context.Context, paymentID string) (*model.Debt, *model.DebtPayment, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, nil, fmt.Errorf("starting transaction for payment revert: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var p model.DebtPayment
	const deleteQ = `
        DELETE FROM debt_payments WHERE id = $1
        RETURNING id, debt_id, amount_cents, note, paid_at
    `
	err = tx.QueryRow(ctx, deleteQ, paymentID).
		Scan(&p.PaymentID, &p.DebtID, &p.AmountCents, &p.Note, &p.PaidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrPaymentNotFound
		}
		return nil, nil, fmt.Errorf("deleting payment %s: %w", paymentID, err)
	}

	updateQ := `
        UPDATE debts
        SET remaining_cents = remaining_cents + $2,
            status = 'active',
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + debtColumns
	d, err := scanDebt(tx.QueryRow(ctx, updateQ, p.DebtID, p.AmountCents))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrDebtNotFound
		}
		return nil, nil, fmt.Errorf("restoring payment amount to debt %s: %w", p.DebtID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("committing payment revert for debt %s: %w", p.DebtID, err)
	}
	return d, &p, nil
}
