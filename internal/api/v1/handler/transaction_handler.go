package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/api/v1/dto"
	"fintrack/internal/middleware"
	"fintrack/internal/model"
	"fintrack/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// TransactionHandler handles transaction-related endpoints
type TransactionHandler struct {
	txService service.TransactionService
	identity  service.IdentityResolver
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(txService service.TransactionService, identity service.IdentityResolver, validate *validator.Validate, logger zerolog.Logger) *TransactionHandler {
	return &TransactionHandler{txService: txService, identity: identity, validate: validate, logger: logger}
}

// RegisterRoutes mounts transaction routes
func (h *TransactionHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/transactions", authMw(http.HandlerFunc(h.handleCollection)))
	mux.Handle("/transactions/", authMw(http.HandlerFunc(h.handleItem)))
}

func (h *TransactionHandler) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createTransaction(w, r)
	case http.MethodGet:
		h.listTransactions(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TransactionHandler) handleItem(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getTransaction(w, r)
	case http.MethodDelete:
		h.deleteTransaction(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TransactionHandler) resolveUser(r *http.Request) (string, bool) {
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

// createTransaction godoc
// @Summary Record a transaction
// @Description Records an income or expense for the authenticated user. Free-tier users are limited per billing period.
// @Tags transactions
// @Accept json
// @Produce json
// @Param transaction body dto.TransactionCreateDTO true "Transaction creation request"
// @Success 201 {object} dto.TransactionResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized"
// @Failure 403 {object} handler.limitExceededBody "Transaction limit exceeded"
// @Router /transactions [post]
func (h *TransactionHandler) createTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(r)
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.TransactionCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	input := service.CreateTransactionInput{
		UserID:      userID,
		AmountCents: req.AmountCents,
		Type:        model.TransactionType(req.Type),
		Category:    req.Category,
		Description: req.Description,
	}
	if req.OccurredAt != nil {
		input.OccurredAt = *req.OccurredAt
	}
	created, err := h.txService.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(created))
}

// listTransactions godoc
// @Summary List transactions
// @Description Lists the authenticated user's transactions, newest first.
// @Tags transactions
// @Produce json
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Offset"
// @Success 200 {array} dto.TransactionResponseDTO
// @Failure 401 {string} string "Unauthorized"
// @Router /transactions [get]
func (h *TransactionHandler) listTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(r)
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	transactions, err := h.txService.List(r.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list transactions")
		writeServiceError(w, err)
		return
	}
	resp := make([]dto.TransactionResponseDTO, 0, len(transactions))
	for i := range transactions {
		resp = append(resp, toTransactionDTO(&transactions[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// getTransaction godoc
// @Summary Get a transaction
// @Description Retrieves a transaction by its ID.
// @Tags transactions
// @Produce json
// @Param transactionId path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponseDTO
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "Transaction not found"
// @Router /transactions/{transactionId} [get]
func (h *TransactionHandler) getTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(r)
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/transactions/")
	t, err := h.txService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if t.UserID != userID {
		http.Error(w, "Transaction not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(t))
}

// deleteTransaction godoc
// @Summary Delete a transaction
// @Description Deletes a transaction and releases its slot in the period quota.
// @Tags transactions
// @Param transactionId path string true "Transaction ID"
// @Success 204 {string} string "No Content"
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "Transaction not found"
// @Router /transactions/{transactionId} [delete]
func (h *TransactionHandler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUser(r)
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/transactions/")
	t, err := h.txService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if t.UserID != userID {
		http.Error(w, "Transaction not found", http.StatusNotFound)
		return
	}
	if err := h.txService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toTransactionDTO(t *model.Transaction) dto.TransactionResponseDTO {
	return dto.TransactionResponseDTO{
		TransactionID: t.TransactionID,
		UserID:        t.UserID,
		AmountCents:   t.AmountCents,
		Type:          string(t.Type),
		Category:      t.Category,
		Description:   t.Description,
		OccurredAt:    t.OccurredAt,
		IsDebtRelated: t.IsDebtRelated,
		RelatedDebtID: t.RelatedDebtID,
		CreatedAt:     t.CreatedAt,
	}
}
