package model

import "time"

// DebtType says which side of the debt the user is on. "i_owe" means the
// user received money and must repay it; "owed_to_me" means the user gave
// money away and expects it back.
type DebtType string

const (
	DebtIOwe     DebtType = "i_owe"
	DebtOwedToMe DebtType = "owed_to_me"
)

// Valid reports whether t is a recognized debt type.
func (t DebtType) Valid() bool {
	return t == DebtIOwe || t == DebtOwedToMe
}

// DebtStatus is the debt lifecycle state. Paid and cancelled are terminal.
type DebtStatus string

const (
	DebtActive    DebtStatus = "active"
	DebtPaid      DebtStatus = "paid"
	DebtCancelled DebtStatus = "cancelled"
)

// Debt is money owed between the user and a named counterparty.
// RemainingCents only decreases while the debt is active and the status
// flips to paid exactly when it reaches zero.
type Debt struct {
	DebtID              string     `db:"id" json:"debt_id"`
	UserID              string     `db:"user_id" json:"user_id"`
	Type                DebtType   `db:"type" json:"type"`
	PersonName          string     `db:"person_name" json:"person_name"`
	OriginalCents       int64      `db:"original_cents" json:"original_cents"`
	RemainingCents      int64      `db:"remaining_cents" json:"remaining_cents"`
	Currency            string     `db:"currency" json:"currency"`
	Status              DebtStatus `db:"status" json:"status"`
	Description         string     `db:"description" json:"description"`
	DueDate             *time.Time `db:"due_date" json:"due_date,omitempty"`
	OriginTransactionID *string    `db:"origin_transaction_id" json:"origin_transaction_id,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// DebtPayment is one entry in a debt's payment ledger.
type DebtPayment struct {
	PaymentID   string    `db:"id" json:"payment_id"`
	DebtID      string    `db:"debt_id" json:"debt_id"`
	AmountCents int64     `db:"amount_cents" json:"amount_cents"`
	Note        string    `db:"note" json:"note"`
	PaidAt      time.Time `db:"paid_at" json:"paid_at"`
}

// DebtSummary aggregates a user's active debts. It is recomputed on every
// read, never cached.
type DebtSummary struct {
	TotalIOweCents     int64 `json:"total_i_owe_cents"`
	TotalOwedToMeCents int64 `json:"total_owed_to_me_cents"`
	NetBalanceCents    int64 `json:"net_balance_cents"`
	IOweCount          int   `json:"i_owe_count"`
	OwedToMeCount      int   `json:"owed_to_me_count"`
}
