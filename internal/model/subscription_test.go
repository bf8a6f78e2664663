package model

import (
	"testing"
	"time"
)

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		sub  *Subscription
		want SubscriptionStatus
	}{
		{"nil subscription is free", nil, SubscriptionFree},
		{"free stays free", &Subscription{Status: SubscriptionFree}, SubscriptionFree},
		{"trial before end", &Subscription{Status: SubscriptionTrialing, TrialEndsAt: &future}, SubscriptionTrialing},
		{"trial after end", &Subscription{Status: SubscriptionTrialing, TrialEndsAt: &past}, SubscriptionFree},
		{"trial without end date", &Subscription{Status: SubscriptionTrialing}, SubscriptionFree},
		{"premium before end", &Subscription{Status: SubscriptionPremium, PremiumEndsAt: &future}, SubscriptionPremium},
		{"premium after end", &Subscription{Status: SubscriptionPremium, PremiumEndsAt: &past}, SubscriptionFree},
		{"premium without end date", &Subscription{Status: SubscriptionPremium}, SubscriptionPremium},
		{"lifetime premium never expires", &Subscription{Status: SubscriptionLifetimePremium}, SubscriptionLifetimePremium},
		{"cancelled is free", &Subscription{Status: SubscriptionCancelled, PremiumEndsAt: &future}, SubscriptionFree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.EffectiveStatus(now); got != tt.want {
				t.Errorf("EffectiveStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasUnlimitedAccess(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	if (&Subscription{Status: SubscriptionTrialing, TrialEndsAt: &future}).HasUnlimitedAccess(now) != true {
		t.Error("active trial should grant unlimited access")
	}
	if (&Subscription{Status: SubscriptionTrialing, TrialEndsAt: &past}).HasUnlimitedAccess(now) {
		t.Error("expired trial should not grant unlimited access")
	}
	var nilSub *Subscription
	if nilSub.HasUnlimitedAccess(now) {
		t.Error("nil subscription should not grant unlimited access")
	}
}
