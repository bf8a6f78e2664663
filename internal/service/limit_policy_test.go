package service

import (
	"testing"
	"time"

	"fintrack/internal/model"
)

func TestEvaluateLimitFreeTier(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		limitType     model.LimitType
		current       int
		wantAllowed   bool
		wantLimit     int
		wantRemaining int
	}{
		{"transactions under ceiling", model.LimitTransactions, 99, true, 100, 1},
		{"transactions at ceiling", model.LimitTransactions, 100, false, 100, 0},
		{"transactions over ceiling", model.LimitTransactions, 120, false, 100, 0},
		{"voice under ceiling", model.LimitVoiceInputs, 0, true, 10, 10},
		{"voice at ceiling", model.LimitVoiceInputs, 10, false, 10, 0},
		{"debts under ceiling", model.LimitDebts, 4, true, 5, 1},
		{"debts at ceiling", model.LimitDebts, 5, false, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usage := &model.UsagePeriod{}
			switch tt.limitType {
			case model.LimitTransactions:
				usage.TransactionsCount = tt.current
			case model.LimitVoiceInputs:
				usage.VoiceInputsCount = tt.current
			case model.LimitDebts:
				usage.ActiveDebtsCount = tt.current
			}

			res := EvaluateLimit(nil, usage, tt.limitType, now)
			if res.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", res.Allowed, tt.wantAllowed)
			}
			if res.CurrentUsage != tt.current {
				t.Errorf("CurrentUsage = %d, want %d", res.CurrentUsage, tt.current)
			}
			if res.Limit == nil || *res.Limit != tt.wantLimit {
				t.Errorf("Limit = %v, want %d", res.Limit, tt.wantLimit)
			}
			if res.Remaining == nil || *res.Remaining != tt.wantRemaining {
				t.Errorf("Remaining = %v, want %d", res.Remaining, tt.wantRemaining)
			}
		})
	}
}

func TestEvaluateLimitUnlimitedTiers(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)

	subs := map[string]*model.Subscription{
		"trialing":         {Status: model.SubscriptionTrialing, TrialEndsAt: &future},
		"premium":          {Status: model.SubscriptionPremium, PremiumEndsAt: &future},
		"lifetime premium": {Status: model.SubscriptionLifetimePremium},
	}
	for name, sub := range subs {
		t.Run(name, func(t *testing.T) {
			usage := &model.UsagePeriod{TransactionsCount: 100000}
			res := EvaluateLimit(sub, usage, model.LimitTransactions, now)
			if !res.Allowed {
				t.Error("unlimited tier should always allow")
			}
			if res.Limit != nil || res.Remaining != nil {
				t.Error("unlimited tier should report no ceiling")
			}
			if res.CurrentUsage != 100000 {
				t.Errorf("CurrentUsage = %d, want 100000", res.CurrentUsage)
			}
		})
	}
}

func TestEvaluateLimitExpiredSubscriptionFallsBack(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	sub := &model.Subscription{Status: model.SubscriptionPremium, PremiumEndsAt: &past}
	usage := &model.UsagePeriod{TransactionsCount: 100}
	res := EvaluateLimit(sub, usage, model.LimitTransactions, now)
	if res.Allowed {
		t.Error("expired premium at the free ceiling should be denied")
	}
}

func TestEvaluateLimitNilUsage(t *testing.T) {
	now := time.Now()
	res := EvaluateLimit(nil, nil, model.LimitDebts, now)
	if !res.Allowed || res.CurrentUsage != 0 {
		t.Errorf("nil usage should count as zero: %+v", res)
	}
}
