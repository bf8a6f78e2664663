package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"fintrack/internal/api/v1/dto"
	"fintrack/internal/middleware"
	"fintrack/internal/model"
	"fintrack/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// SubscriptionHandler handles subscription-related endpoints.
type SubscriptionHandler struct {
	stripeSvc *service.StripeService
	subSvc    service.SubscriptionService
	identity  service.IdentityResolver
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(stripeSvc *service.StripeService, subSvc service.SubscriptionService, identity service.IdentityResolver, validate *validator.Validate, logger zerolog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{stripeSvc: stripeSvc, subSvc: subSvc, identity: identity, validate: validate, logger: logger}
}

// RegisterRoutes registers the subscription endpoints.
func (h *SubscriptionHandler) RegisterRoutes(mux *http.ServeMux, authMw, adminMw func(http.Handler) http.Handler) {
	mux.Handle("/subscriptions/me", authMw(http.HandlerFunc(h.me)))
	mux.Handle("/subscriptions/trial", authMw(http.HandlerFunc(h.startTrial)))
	mux.Handle("/subscriptions/checkout", authMw(http.HandlerFunc(h.checkout)))
	mux.Handle("/subscriptions/portal", authMw(http.HandlerFunc(h.portal)))
	mux.Handle("/admin/subscriptions/grant", adminMw(http.HandlerFunc(h.grant)))
	mux.Handle("/admin/subscriptions/cancel", adminMw(http.HandlerFunc(h.cancel)))
	mux.HandleFunc("/webhooks/stripe", h.stripeSvc.HandleWebhook)
}

func (h *SubscriptionHandler) resolveUser(r *http.Request) (string, bool) {
	ref, ok := middleware.UserRefFromContext(r.Context())
	if !ok {
		return "", false
	}
	userID, err := h.identity.Resolve(r.Context(), ref)
	if err != nil {
		return "", false
	}
	return userID, true
}

func toSubscriptionDTO(userID string, sub *model.Subscription) dto.SubscriptionResponseDTO {
	resp := dto.SubscriptionResponseDTO{
		UserID:          userID,
		Status:          string(model.SubscriptionFree),
		EffectiveStatus: string(model.SubscriptionFree),
	}
	if sub != nil {
		resp.Status = string(sub.Status)
		resp.EffectiveStatus = string(sub.EffectiveStatus(time.Now()))
		resp.TrialEndsAt = sub.TrialEndsAt
		resp.PremiumEndsAt = sub.PremiumEndsAt
	}
	return resp
}

// me godoc
// @Summary Get the caller's subscription
// @Description Returns the stored and effective subscription status. Users without history are free.
// @Tags subscriptions
// @Produce json
// @Success 200 {object} dto.SubscriptionResponseDTO
// @Failure 401 {string} string "Unauthorized"
// @Router /subscriptions/me [get]
func (h *SubscriptionHandler) me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := h.resolveUser(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	sub, err := h.subSvc.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionDTO(userID, sub))
}

// startTrial godoc
// @Summary Start the free trial
// @Description Begins the one free trial a user ever gets. Any prior subscription history blocks it.
// @Tags subscriptions
// @Produce json
// @Success 201 {object} dto.SubscriptionResponseDTO
// @Failure 401 {string} string "Unauthorized"
// @Failure 422 {string} string "Trial already used"
// @Router /subscriptions/trial [post]
func (h *SubscriptionHandler) startTrial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := h.resolveUser(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	sub, err := h.subSvc.StartTrial(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubscriptionDTO(userID, sub))
}

// checkout godoc
// @Summary Initiate a Stripe Checkout session for plan upgrade
// @Description Creates a Stripe Checkout session and returns its URL.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param subscription body dto.SubscriptionCheckoutRequest true "Subscription checkout request"
// @Success 200 {object} map[string]string "URL of the Stripe Checkout session"
// @Failure 400 {string} string "invalid request payload"
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "failed to create checkout session"
// @Router /subscriptions/checkout [post]
func (h *SubscriptionHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req dto.SubscriptionCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	userID, ok := h.resolveUser(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	url, err := h.stripeSvc.CreateCheckoutSession(r.Context(), userID, req.Plan)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create checkout session")
		http.Error(w, "failed to create checkout session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// portal godoc
// @Summary Create a Stripe Customer Portal session
// @Description Generates a Stripe Customer Portal session URL for the authenticated user.
// @Tags subscriptions
// @Produce json
// @Success 200 {object} map[string]string "URL of the Customer Portal session"
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "failed to create portal session"
// @Router /subscriptions/portal [get]
func (h *SubscriptionHandler) portal(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	url, err := h.stripeSvc.CreatePortalSession(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create portal session")
		http.Error(w, "failed to create portal session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// grant godoc
// @Summary Grant premium to a user
// @Description Admin endpoint. Grants premium until the given time, or lifetime premium when no end is supplied.
// @Tags admin
// @Accept json
// @Produce json
// @Param grant body dto.SubscriptionGrantDTO true "Grant request"
// @Success 200 {object} dto.SubscriptionResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Invalid admin key"
// @Router /admin/subscriptions/grant [post]
func (h *SubscriptionHandler) grant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.SubscriptionGrantDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	sub, err := h.subSvc.GrantPremium(r.Context(), req.UserID, req.Until, "admin", req.Note)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionDTO(req.UserID, sub))
}

// cancel godoc
// @Summary Cancel a user's subscription
// @Description Admin endpoint. Marks the subscription cancelled; the user drops to free limits.
// @Tags admin
// @Accept json
// @Param cancel body dto.SubscriptionCancelDTO true "Cancel request"
// @Success 204 {string} string "No Content"
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Invalid admin key"
// @Failure 404 {string} string "Subscription not found"
// @Router /admin/subscriptions/cancel [post]
func (h *SubscriptionHandler) cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.SubscriptionCancelDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.subSvc.Cancel(r.Context(), req.UserID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
