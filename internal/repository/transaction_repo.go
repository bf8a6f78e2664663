package repository

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository defines methods for accessing transaction data.
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, t *model.Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, userID string, limit, offset int) ([]model.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

type transactionRepo struct {
	pool *pgxpool.Pool
}

// NewTransactionRepo creates a new TransactionRepository.
func NewTransactionRepo(pool *pgxpool.Pool) TransactionRepository {
	return &transactionRepo{pool: pool}
}

func (r *transactionRepo) CreateTransaction(ctx context.Context, t *model.Transaction) error {
	const q = `
        INSERT INTO transactions (user_id, amount_cents, type, category, description, occurred_at, is_debt_related, related_debt_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at
    `
	err := r.pool.QueryRow(ctx, q,
		t.UserID, t.AmountCents, t.Type, t.Category, t.Description, t.OccurredAt, t.IsDebtRelated, t.RelatedDebtID,
	).Scan(&t.TransactionID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction for user %s: %w", t.UserID, err)
	}
	return nil
}

func (r *transactionRepo) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	const q = `
        SELECT id, user_id, amount_cents, type, category, description, occurred_at, is_debt_related, related_debt_id, created_at
        FROM transactions
        WHERE id = $1
    `
	var t model.Transaction
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&t.TransactionID, &t.UserID, &t.AmountCents, &t.Type, &t.Category,
		&t.Description, &t.OccurredAt, &t.IsDebtRelated, &t.RelatedDebtID, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch transaction %s: %w", id, err)
	}
	return &t, nil
}

func (r *transactionRepo) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]model.Transaction, error) {
	const q = `
        SELECT id, user_id, amount_cents, type, category, description, occurred_at, is_debt_related, related_debt_id, created_at
        FROM transactions
        WHERE user_id = $1
        ORDER BY occurred_at DESC, created_at DESC
        LIMIT $2 OFFSET $3
    `
	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing transactions for user %s: %w", userID, err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(
			&t.TransactionID, &t.UserID, &t.AmountCents, &t.Type, &t.Category,
			&t.Description, &t.OccurredAt, &t.IsDebtRelated, &t.RelatedDebtID, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *transactionRepo) DeleteTransaction(ctx context.Context, id string) error {
	const q = `DELETE FROM transactions WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("deleting transaction %s: %w", id, err)
	}
	return nil
}
