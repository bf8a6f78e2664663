package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"fintrack/internal/api/v1/dto"
	"fintrack/internal/middleware"
	"fintrack/internal/model"
	"fintrack/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// DebtHandler handles debt-related endpoints
type DebtHandler struct {
	debtService service.DebtService
	identity    service.IdentityResolver
	validate    *validator.Validate
	logger      zerolog.Logger
}

// NewDebtHandler creates a new DebtHandler
func NewDebtHandler(debtService service.DebtService, identity service.IdentityResolver, validate *validator.Validate, logger zerolog.Logger) *DebtHandler {
	return &DebtHandler{debtService: debtService, identity: identity, validate: validate, logger: logger}
}

// RegisterRoutes mounts debt routes
func (h *DebtHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/debts", authMw(http.HandlerFunc(h.handleCollection)))
	mux.Handle("/debts/", authMw(http.HandlerFunc(h.handleItem)))
	mux.Handle("/debt-payments/", authMw(http.HandlerFunc(h.deletePayment)))
}

func (h *DebtHandler) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createDebt(w, r)
	case http.MethodGet:
		h.listDebts(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *DebtHandler) handleItem(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/debts/")

	if path == "summary" {
		h.summary(w, r)
		return
	}
	switch {
	case strings.HasSuffix(path, "/payments/full"):
		h.payFull(w, r, strings.TrimSuffix(path, "/payments/full"))
	case strings.HasSuffix(path, "/payments"):
		h.payOrListPayments(w, r, strings.TrimSuffix(path, "/payments"))
	case strings.HasSuffix(path, "/cancel"):
		h.cancelDebt(w, r, strings.TrimSuffix(path, "/cancel"))
	default:
		switch r.Method {
		case http.MethodGet:
			h.getDebt(w, r, path)
		case http.MethodPatch:
			h.updateDebt(w, r, path)
		case http.MethodDelete:
			h.deleteDebt(w, r, path)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// ownedDebt loads a debt and verifies the caller owns it.
func (h *DebtHandler) ownedDebt(w http.ResponseWriter, r *http.Request, debtID string) (*model.Debt, bool) {
	ref, ok := middleware.UserRefFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return nil, false
	}
	userID, err := h.identity.Resolve(r.Context(), ref)
	if err != nil {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return nil, false
	}
	d, err := h.debtService.Get(r.Context(), debtID)
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	if d.UserID != userID {
		http.Error(w, "Debt not found", http.StatusNotFound)
		return nil, false
	}
	return d, true
}

// createDebt godoc
// @Summary Create a debt
// @Description Records a debt for the authenticated user. When money actually changed hands, a linked transaction is recorded too. Free-tier users may hold a limited number of active debts.
// @Tags debts
// @Accept json
// @Produce json
// @Param debt body dto.DebtCreateDTO true "Debt creation request"
// @Success 201 {object} dto.DebtResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized"
// @Failure 403 {object} handler.limitExceededBody "Active debt limit exceeded"
// @Router /debts [post]
func (h *DebtHandler) createDebt(w http.ResponseWriter, r *http.Request) {
	ref, ok := middleware.UserRefFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.DebtCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.debtService.Create(r.Context(), service.CreateDebtInput{
		Ref:              ref,
		Type:             model.DebtType(req.Type),
		PersonName:       req.PersonName,
		AmountCents:      req.AmountCents,
		Currency:         req.Currency,
		Description:      req.Description,
		DueDate:          req.DueDate,
		MoneyTransferred: req.MoneyTransferred,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDebtDTO(created))
}

// listDebts godoc
// @Summary List debts
// @Description Lists the authenticated user's debts, optionally filtered by status.
// @Tags debts
// @Produce json
// @Param status query string false "Filter by status (active, paid, cancelled)"
// @Success 200 {array} dto.DebtResponseDTO
// @Failure 400 {string} string "Unknown status"
// @Failure 401 {string} string "Unauthorized"
// @Router /debts [get]
func (h *DebtHandler) listDebts(w http.ResponseWriter, r *http.Request) {
	ref, ok := middleware.UserRefFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	var status *model.DebtStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := model.DebtStatus(s)
		status = &st
	}
	debts, err := h.debtService.List(r.Context(), ref, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]dto.DebtResponseDTO, 0, len(debts))
	for i := range debts {
		resp = append(resp, toDebtDTO(&debts[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// summary godoc
// @Summary Summarize active debts
// @Description Returns totals for both debt directions and the net balance.
// @Tags debts
// @Produce json
// @Success 200 {object} dto.DebtSummaryResponseDTO
// @Failure 401 {string} string "Unauthorized"
// @Router /debts/summary [get]
func (h *DebtHandler) summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ref, ok := middleware.UserRefFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	s, err := h.debtService.Summary(r.Context(), ref)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.DebtSummaryResponseDTO{
		TotalIOweCents:     s.TotalIOweCents,
		TotalOwedToMeCents: s.TotalOwedToMeCents,
		NetBalanceCents:    s.NetBalanceCents,
		IOweCount:          s.IOweCount,
		OwedToMeCount:      s.OwedToMeCount,
	})
}

// getDebt godoc
// @Summary Get a debt with its payment history
// @Description Retrieves a debt by its ID along with all recorded payments.
// @Tags debts
// @Produce json
// @Param debtId path string true "Debt ID"
// @Success 200 {object} dto.DebtWithPaymentsResponseDTO
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "Debt not found"
// @Router /debts/{debtId} [get]
func (h *DebtHandler) getDebt(w http.ResponseWriter, r *http.Request, debtID string) {
	if _, ok := h.ownedDebt(w, r, debtID); !ok {
		return
	}
	dwp, err := h.debtService.GetWithPayments(r.Context(), debtID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	payments := make([]dto.DebtPaymentResponseDTO, 0, len(dwp.Payments))
	for i := range dwp.Payments {
		payments = append(payments, toPaymentDTO(&dwp.Payments[i]))
	}
	writeJSON(w, http.StatusOK, dto.DebtWithPaymentsResponseDTO{
		Debt:     toDebtDTO(&dwp.Debt),
		Payments: payments,
	})
}

// updateDebt godoc
// @Summary Update a debt's details
// @Description Updates the person name, description or due date. Amounts and status only change through payments and cancellation.
// @Tags debts
// @Accept json
// @Produce json
// @Param debtId path string true "Debt ID"
// @Param debt body dto.DebtUpdateDTO true "Debt update request"
// @Success 200 {object} dto.DebtResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "Debt not found"
// @Router /debts/{debtId} [patch]
func (h *DebtHandler) updateDebt(w http.ResponseWriter, r *http.Request, debtID string) {
	if _, ok := h.ownedDebt(w, r, debtID); !ok {
		return
	}
	var req dto.DebtUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	updated, err := h.debtService.Update(r.Context(), debtID, service.UpdateDebtInput{
		PersonName:  req.PersonName,
		Description: req.Description,
		DueDate:     req.DueDate,
		ClearDue:    req.ClearDue,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDebtDTO(updated))
}

// deleteDebt godoc
// @Summary Delete a debt
// @Description Permanently deletes a debt and its payment history. Linked transactions are kept.
// @Tags debts
// @Param debtId path string true "Debt ID"
// @Success 204 {string} string "No Content"
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "Debt not found"
// @Router /debts/{debtId} [delete]
func (h *DebtHandler) deleteDebt(w http.ResponseWriter, r *http.Request, debtID string) {
	if _, ok := h.ownedDebt(w, r, debtID); !ok {
		return
	}
	if err := h.debtService.Delete(r.Context(), debtID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// cancelDebt godoc
// @Summary Cancel a debt
// @Description Marks an active debt as cancelled (forgiven or written off). The record is kept.
// @Tags debts
// @Produce json
// @Param debtId path string true "Debt ID"
// @Success 200 {object} dto.DebtResponseDTO
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "Debt not found"
// @Failure 422 {string} string "Debt is not active"
// @Router /debts/{debtId}/cancel [post]
func (h *DebtHandler) cancelDebt(w http.ResponseWriter, r *http.Request, debtID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := h.ownedDebt(w, r, debtID); !ok {
		return
	}
	cancelled, err := h.debtService.Cancel(r.Context(), debtID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDebtDTO(cancelled))
}

func (h *DebtHandler) payOrListPayments(w http.ResponseWriter, r *http.Request, debtID string) {
	switch r.Method {
	case http.MethodPost:
		h.pay(w, r, debtID)
	case http.MethodGet:
		h.listPayments(w, r, debtID)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// pay godoc
// @Summary Record a payment against a debt
// @Description Applies a partial or full payment. The debt flips to paid when the remaining amount reaches zero; a payment larger than the remaining amount is rejected.
// @Tags debts
// @Accept json
// @Produce json
// @Param debtId path string true "Debt ID"
// @Param payment body dto.DebtPaymentDTO true "Payment request"
// @Success 200 {object} dto.DebtPaymentResultDTO
// @Failure 400 {string} string "Invalid amount or payment exceeds remaining"
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "Debt not found"
// @Failure 422 {string} string "Debt is not active"
// @Router /debts/{debtId}/payments [post]
func (h *DebtHandler) pay(w http.ResponseWriter, r *http.Request, debtID string) {
	if _, ok := h.ownedDebt(w, r, debtID); !ok {
		return
	}
	var req dto.DebtPaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	d, payment, err := h.debtService.Pay(r.Context(), debtID, req.AmountCents, req.Note)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.DebtPaymentResultDTO{
		Debt:    toDebtDTO(d),
		Payment: toPaymentDTO(payment),
	})
}

// listPayments godoc
// @Summary List a debt's payments
// @Description Lists all payments recorded against a debt, oldest first.
// @Tags debts
// @Produce json
// @Param debtId path string true "Debt ID"
// @Success 200 {array} dto.DebtPaymentResponseDTO
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "Debt not found"
// @Router /debts/{debtId}/payments [get]
func (h *DebtHandler) listPayments(w http.ResponseWriter, r *http.Request, debtID string) {
	if _, ok := h.ownedDebt(w, r, debtID); !ok {
		return
	}
	dwp, err := h.debtService.GetWithPayments(r.Context(), debtID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]dto.DebtPaymentResponseDTO, 0, len(dwp.Payments))
	for i := range dwp.Payments {
		resp = append(resp, toPaymentDTO(&dwp.Payments[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// payFull godoc
// @Summary Settle a debt in full
// @Description Applies a single payment of the entire remaining amount.
// @Tags debts
// @Accept json
// @Produce json
// @Param debtId path string true "Debt ID"
// @Param payment body dto.DebtPaymentFullDTO false "Optional note"
// @Success 200 {object} dto.DebtPaymentResultDTO
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "Debt not found"
// @Failure 422 {string} string "Debt is not active"
// @Router /debts/{debtId}/payments/full [post]
func (h *DebtHandler) payFull(w http.ResponseWriter, r *http.Request, debtID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := h.ownedDebt(w, r, debtID); !ok {
		return
	}
	var req dto.DebtPaymentFullDTO
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	d, payment, err := h.debtService.PayFull(r.Context(), debtID, req.Note)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.DebtPaymentResultDTO{
		Debt:    toDebtDTO(d),
		Payment: toPaymentDTO(payment),
	})
}

// deletePayment godoc
// @Summary Delete a debt payment
// @Description Removes a payment and restores its amount onto the debt. A paid debt reopens.
// @Tags debts
// @Produce json
// @Param paymentId path string true "Payment ID"
// @Success 200 {object} dto.DebtResponseDTO
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "Payment not found"
// @Router /debt-payments/{paymentId} [delete]
func (h *DebtHandler) deletePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
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

	paymentID := strings.TrimPrefix(r.URL.Path, "/debt-payments/")
	payment, err := h.debtService.GetPayment(r.Context(), paymentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	parent, err := h.debtService.Get(r.Context(), payment.DebtID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if parent.UserID != userID {
		http.Error(w, "Payment not found", http.StatusNotFound)
		return
	}

	d, err := h.debtService.DeletePayment(r.Context(), paymentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDebtDTO(d))
}

func toDebtDTO(d *model.Debt) dto.DebtResponseDTO {
	return dto.DebtResponseDTO{
		DebtID:              d.DebtID,
		UserID:              d.UserID,
		Type:                string(d.Type),
		PersonName:          d.PersonName,
		OriginalCents:       d.OriginalCents,
		RemainingCents:      d.RemainingCents,
		Currency:            d.Currency,
		Status:              string(d.Status),
		Description:         d.Description,
		DueDate:             d.DueDate,
		OriginTransactionID: d.OriginTransactionID,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

func toPaymentDTO(p *model.DebtPayment) dto.DebtPaymentResponseDTO {
	return dto.DebtPaymentResponseDTO{
		PaymentID:   p.PaymentID,
		DebtID:      p.DebtID,
		AmountCents: p.AmountCents,
		Note:        p.Note,
		PaidAt:      p.PaidAt,
	}
}
