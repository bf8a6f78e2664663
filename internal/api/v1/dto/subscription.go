package dto

import "time"

// SubscriptionCheckoutRequest selects the plan to purchase
type SubscriptionCheckoutRequest struct {
	Plan string `json:"plan" validate:"required,oneof=monthly annual"`
}

// SubscriptionGrantDTO is used for admin premium grants
type SubscriptionGrantDTO struct {
	UserID string     `json:"user_id" validate:"required"`
	Until  *time.Time `json:"until,omitempty"`
	Note   string     `json:"note,omitempty"`
}

// SubscriptionCancelDTO is used for admin cancellations
type SubscriptionCancelDTO struct {
	UserID string `json:"user_id" validate:"required"`
}

// SubscriptionResponseDTO is returned in API responses for subscriptions
type SubscriptionResponseDTO struct {
	UserID          string     `json:"user_id"`
	Status          string     `json:"status"`
	EffectiveStatus string     `json:"effective_status"`
	TrialEndsAt     *time.Time `json:"trial_ends_at,omitempty"`
	PremiumEndsAt   *time.Time `json:"premium_ends_at,omitempty"`
}
