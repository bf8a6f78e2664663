package dto

import "time"

// DebtCreateDTO is used for incoming debt creation requests
type DebtCreateDTO struct {
	Type             string     `json:"type" validate:"required,oneof=i_owe owed_to_me"`
	PersonName       string     `json:"person_name" validate:"required"`
	AmountCents      int64      `json:"amount_cents" validate:"required,gt=0"`
	Currency         string     `json:"currency,omitempty" validate:"omitempty,len=3"`
	Description      string     `json:"description,omitempty"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	MoneyTransferred bool       `json:"money_transferred,omitempty"`
}

// DebtUpdateDTO is used for incoming debt update requests
type DebtUpdateDTO struct {
	PersonName  *string    `json:"person_name,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ClearDue    bool       `json:"clear_due,omitempty"`
}

// DebtPaymentDTO is used for incoming payment requests
type DebtPaymentDTO struct {
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	Note        string `json:"note,omitempty"`
}

// DebtPaymentFullDTO is used for full-settlement requests
type DebtPaymentFullDTO struct {
	Note string `json:"note,omitempty"`
}

// DebtResponseDTO is returned in API responses for debts
type DebtResponseDTO struct {
	DebtID              string     `json:"debt_id"`
	UserID              string     `json:"user_id"`
	Type                string     `json:"type"`
	PersonName          string     `json:"person_name"`
	OriginalCents       int64      `json:"original_cents"`
	RemainingCents      int64      `json:"remaining_cents"`
	Currency            string     `json:"currency"`
	Status              string     `json:"status"`
	Description         string     `json:"description"`
	DueDate             *time.Time `json:"due_date,omitempty"`
	OriginTransactionID *string    `json:"origin_transaction_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// DebtPaymentResponseDTO is returned in API responses for debt payments
type DebtPaymentResponseDTO struct {
	PaymentID   string    `json:"payment_id"`
	DebtID      string    `json:"debt_id"`
	AmountCents int64     `json:"amount_cents"`
	Note        string    `json:"note"`
	PaidAt      time.Time `json:"paid_at"`
}

// DebtWithPaymentsResponseDTO bundles a debt with its payment history
type DebtWithPaymentsResponseDTO struct {
	Debt     DebtResponseDTO          `json:"debt"`
	Payments []DebtPaymentResponseDTO `json:"payments"`
}

// DebtPaymentResultDTO is returned after applying a payment
type DebtPaymentResultDTO struct {
	Debt    DebtResponseDTO        `json:"debt"`
	Payment DebtPaymentResponseDTO `json:"payment"`
}

// DebtSummaryResponseDTO aggregates the user's active debts
type DebtSummaryResponseDTO struct {
	TotalIOweCents     int64 `json:"total_i_owe_cents"`
	TotalOwedToMeCents int64 `json:"total_owed_to_me_cents"`
	NetBalanceCents    int64 `json:"net_balance_cents"`
	IOweCount          int   `json:"i_owe_count"`
	OwedToMeCount      int   `json:"owed_to_me_count"`
}
