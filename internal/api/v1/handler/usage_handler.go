package handler

import (
	"net/http"
	"strings"

	"fintrack/internal/api/v1/dto"
	"fintrack/internal/middleware"
	"fintrack/internal/model"
	"fintrack/internal/service"

	"github.com/rs/zerolog"
)

// UsageHandler exposes the caller's standing against the free-tier limits.
type UsageHandler struct {
	usageSvc service.UsageService
	identity service.IdentityResolver
	logger   zerolog.Logger
}

// NewUsageHandler creates a new UsageHandler.
func NewUsageHandler(usageSvc service.UsageService, identity service.IdentityResolver, logger zerolog.Logger) *UsageHandler {
	return &UsageHandler{usageSvc: usageSvc, identity: identity, logger: logger}
}

// RegisterRoutes registers the usage endpoints.
func (h *UsageHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/usage/limits/", authMw(http.HandlerFunc(h.checkLimit)))
}

// checkLimit godoc
// @Summary Check a usage limit
// @Description Reports whether the caller may perform another action of the given type in the current billing period. Unlimited tiers return no ceiling.
// @Tags usage
// @Produce json
// @Param limitType path string true "Limit type (transactions, voice_inputs, debts)"
// @Success 200 {object} dto.LimitCheckResponseDTO
// @Failure 400 {string} string "Unknown limit type"
// @Failure 401 {string} string "Unauthorized"
// @Router /usage/limits/{limitType} [get]
func (h *UsageHandler) checkLimit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ref, ok := middleware.UserRefFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	userID, err := h.identity.Resolve(r.Context(), ref)
	if err != nil {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}

	limitType := model.LimitType(strings.TrimPrefix(r.URL.Path, "/usage/limits/"))
	res, err := h.usageSvc.CheckLimit(r.Context(), userID, limitType)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.LimitCheckResponseDTO{
		LimitType:    string(limitType),
		Allowed:      res.Allowed,
		CurrentUsage: res.CurrentUsage,
		Limit:        res.Limit,
		Remaining:    res.Remaining,
	})
}
