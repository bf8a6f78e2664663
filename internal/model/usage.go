package model

import "time"

// LimitType names a gated action counted against the free tier.
type LimitType string

const (
	LimitTransactions LimitType = "transactions"
	LimitVoiceInputs  LimitType = "voice_inputs"
	LimitDebts        LimitType = "debts"
)

// Valid reports whether t is a recognized limit type.
func (t LimitType) Valid() bool {
	return t == LimitTransactions || t == LimitVoiceInputs || t == LimitDebts
}

// UsagePeriod is one user's counters for one calendar-month billing period.
// Transactions and voice inputs are event counters; active debts is a
// derived snapshot resynced from the debt store.
type UsagePeriod struct {
	UserID            string    `db:"user_id" json:"user_id"`
	PeriodStart       time.Time `db:"period_start" json:"period_start"`
	PeriodEnd         time.Time `db:"period_end" json:"period_end"`
	TransactionsCount int       `db:"transactions_count" json:"transactions_count"`
	VoiceInputsCount  int       `db:"voice_inputs_count" json:"voice_inputs_count"`
	ActiveDebtsCount  int       `db:"active_debts_count" json:"active_debts_count"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Count returns the counter value for the given limit type.
func (u *UsagePeriod) Count(t LimitType) int {
	if u == nil {
		return 0
	}
	switch t {
	case LimitTransactions:
		return u.TransactionsCount
	case LimitVoiceInputs:
		return u.VoiceInputsCount
	case LimitDebts:
		return u.ActiveDebtsCount
	default:
		return 0
	}
}
