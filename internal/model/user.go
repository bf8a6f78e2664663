package model

import "time"

// User represents a user in the system. A user may be reached through a
// canonical id, a Telegram id, or a guest key, but internally everything is
// keyed by the canonical UserID.
type User struct {
	UserID           string    `db:"id" json:"user_id"`
	TelegramID       *int64    `db:"telegram_id" json:"telegram_id,omitempty"`
	GuestKey         *string   `db:"guest_key" json:"guest_key,omitempty"`
	Name             string    `db:"name" json:"name"`
	StripeCustomerID *string   `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// RefKind tags the representation a UserRef carries.
type RefKind string

const (
	RefCanonical RefKind = "canonical"
	RefTelegram  RefKind = "telegram"
	RefGuest     RefKind = "guest"
)

// UserRef is a tagged reference to a user. It is resolved to a canonical
// user id exactly once, at the boundary, before any accounting or debt
// operation runs.
type UserRef struct {
	Kind  RefKind
	Value string
}

// CanonicalRef wraps an already-canonical user id.
func CanonicalRef(userID string) UserRef {
	return UserRef{Kind: RefCanonical, Value: userID}
}
