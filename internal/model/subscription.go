package model

import "time"

// SubscriptionStatus is the stored subscription state for a user.
type SubscriptionStatus string

const (
	SubscriptionFree            SubscriptionStatus = "free"
	SubscriptionTrialing        SubscriptionStatus = "trialing"
	SubscriptionPremium         SubscriptionStatus = "premium"
	SubscriptionLifetimePremium SubscriptionStatus = "lifetime_premium"
	SubscriptionCancelled       SubscriptionStatus = "cancelled"
)

// Subscription is the current subscription record for a user. At most one
// exists per user; it is never physically deleted so grants stay auditable.
type Subscription struct {
	UserID        string             `db:"user_id" json:"user_id"`
	Status        SubscriptionStatus `db:"status" json:"status"`
	TrialEndsAt   *time.Time         `db:"trial_ends_at" json:"trial_ends_at,omitempty"`
	PremiumEndsAt *time.Time         `db:"premium_ends_at" json:"premium_ends_at,omitempty"`
	GrantedBy     *string            `db:"granted_by" json:"granted_by,omitempty"`
	GrantNote     *string            `db:"grant_note" json:"grant_note,omitempty"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`
}

// EffectiveStatus collapses expired trial/premium states to free. A nil
// subscription means the user never subscribed and is treated as free.
func (s *Subscription) EffectiveStatus(now time.Time) SubscriptionStatus {
	if s == nil {
		return SubscriptionFree
	}
	switch s.Status {
	case SubscriptionTrialing:
		if s.TrialEndsAt != nil && s.TrialEndsAt.After(now) {
			return SubscriptionTrialing
		}
		return SubscriptionFree
	case SubscriptionPremium:
		// A nil end date on a premium record means no expiry.
		if s.PremiumEndsAt == nil || s.PremiumEndsAt.After(now) {
			return SubscriptionPremium
		}
		return SubscriptionFree
	case SubscriptionLifetimePremium:
		return SubscriptionLifetimePremium
	case SubscriptionCancelled:
		return SubscriptionFree
	default:
		return SubscriptionFree
	}
}

// HasUnlimitedAccess reports whether the subscription bypasses free-tier
// ceilings at the given instant.
func (s *Subscription) HasUnlimitedAccess(now time.Time) bool {
	switch s.EffectiveStatus(now) {
	case SubscriptionTrialing, SubscriptionPremium, SubscriptionLifetimePremium:
		return true
	default:
		return false
	}
}
