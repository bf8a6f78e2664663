package model

import "time"

// TransactionType is the direction of a money movement.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Valid reports whether t is a recognized transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// Transaction is a single income/expense record. Amounts are in minor
// currency units (cents). Debt-related transactions carry a weak
// back-reference to the debt that produced them.
type Transaction struct {
	TransactionID string          `db:"id" json:"transaction_id"`
	UserID        string          `db:"user_id" json:"user_id"`
	AmountCents   int64           `db:"amount_cents" json:"amount_cents"`
	Type          TransactionType `db:"type" json:"type"`
	Category      string          `db:"category" json:"category"`
	Description   string          `db:"description" json:"description"`
	OccurredAt    time.Time       `db:"occurred_at" json:"occurred_at"`
	IsDebtRelated bool            `db:"is_debt_related" json:"is_debt_related"`
	RelatedDebtID *string         `db:"related_debt_id" json:"related_debt_id,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
