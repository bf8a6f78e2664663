package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/service"
)

// limitExceededBody is the JSON payload for limit denials, so clients can
// render an upgrade prompt with the exact numbers.
type limitExceededBody struct {
	Error        string `json:"error"`
	LimitType    string `json:"limit_type"`
	Limit        int    `json:"limit"`
	CurrentUsage int    `json:"current_usage"`
}

// writeServiceError maps service errors onto HTTP responses: validation
// failures are 400, missing resources 404, limit denials 403 with a
// structured body, and state-machine violations 422.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
		return
	}

	var notFoundErr *service.NotFoundError
	if errors.As(err, &notFoundErr) {
		http.Error(w, notFoundErr.Error(), http.StatusNotFound)
		return
	}

	var limitErr *service.LimitExceededError
	if errors.As(err, &limitErr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(limitExceededBody{
			Error:        limitErr.Error(),
			LimitType:    string(limitErr.LimitType),
			Limit:        limitErr.Limit,
			CurrentUsage: limitErr.CurrentUsage,
		})
		return
	}

	var ruleErr *service.BusinessRuleError
	if errors.As(err, &ruleErr) {
		http.Error(w, ruleErr.Error(), http.StatusUnprocessableEntity)
		return
	}

	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
