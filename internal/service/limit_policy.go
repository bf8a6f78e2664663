package service

import (
	"time"

	"fintrack/internal/model"
)

// Free-tier ceilings. Transactions and voice inputs reset each billing
// period; active debts is a concurrent ceiling.
const (
	FreeTransactionsPerPeriod = 100
	FreeVoiceInputsPerPeriod  = 10
	FreeActiveDebts           = 5
)

// PolicyResult is the outcome of a limit evaluation. Limit and Remaining are
// nil when the subscription grants unlimited access.
type PolicyResult struct {
	Allowed      bool `json:"allowed"`
	CurrentUsage int  `json:"current_usage"`
	Limit        *int `json:"limit"`
	Remaining    *int `json:"remaining"`
}

// FreeTierLimit returns the free-tier ceiling for a limit type.
func FreeTierLimit(t model.LimitType) (int, bool) {
	switch t {
	case model.LimitTransactions:
		return FreeTransactionsPerPeriod, true
	case model.LimitVoiceInputs:
		return FreeVoiceInputsPerPeriod, true
	case model.LimitDebts:
		return FreeActiveDebts, true
	default:
		return 0, false
	}
}

// EvaluateLimit decides whether an action of the given type is allowed for
// the subscription and usage snapshot. It is pure: no side effects, safe to
// call any number of times. A nil subscription means free tier; a nil usage
// record means zero usage.
func EvaluateLimit(sub *model.Subscription, usage *model.UsagePeriod, limitType model.LimitType, now time.Time) PolicyResult {
	current := usage.Count(limitType)
	if sub.HasUnlimitedAccess(now) {
		return PolicyResult{Allowed: true, CurrentUsage: current}
	}

	ceiling, ok := FreeTierLimit(limitType)
	if !ok {
		// Unknown limit types are not gated.
		return PolicyResult{Allowed: true, CurrentUsage: current}
	}

	remaining := ceiling - current
	if remaining < 0 {
		remaining = 0
	}
	return PolicyResult{
		Allowed:      current < ceiling,
		CurrentUsage: current,
		Limit:        &ceiling,
		Remaining:    &remaining,
	}
}
