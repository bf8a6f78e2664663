package dto

// LimitCheckResponseDTO reports the caller's standing against one limit
type LimitCheckResponseDTO struct {
	LimitType    string `json:"limit_type"`
	Allowed      bool   `json:"allowed"`
	CurrentUsage int    `json:"current_usage"`
	Limit        *int   `json:"limit,omitempty"`
	Remaining    *int   `json:"remaining,omitempty"`
}
