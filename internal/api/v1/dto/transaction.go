package dto

import "time"

// TransactionCreateDTO is used for incoming transaction creation requests
type TransactionCreateDTO struct {
	AmountCents int64      `json:"amount_cents" validate:"required,gt=0"`
	Type        string     `json:"type" validate:"required,oneof=income expense"`
	Category    string     `json:"category,omitempty"`
	Description string     `json:"description,omitempty"`
	OccurredAt  *time.Time `json:"occurred_at,omitempty"`
}

// TransactionResponseDTO is returned in API responses for transactions
type TransactionResponseDTO struct {
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	AmountCents   int64     `json:"amount_cents"`
	Type          string    `json:"type"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	OccurredAt    time.Time `json:"occurred_at"`
	IsDebtRelated bool      `json:"is_debt_related"`
	RelatedDebtID *string   `json:"related_debt_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
