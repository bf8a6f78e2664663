package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/model"
	"fintrack/internal/repository"

	"github.com/rs/zerolog"
)

// LinkedTransactionCreator records the money movement that accompanies a
// debt event. Satisfied by TransactionService; kept narrow so the debt core
// does not depend on listing or deletion.
type LinkedTransactionCreator interface {
	Create(ctx context.Context, input CreateTransactionInput) (*model.Transaction, error)
}

// CreateDebtInput carries everything needed to open a debt.
type CreateDebtInput struct {
	Ref         model.UserRef
	Type        model.DebtType
	PersonName  string
	AmountCents int64
	Currency    string
	Description string
	DueDate     *time.Time
	// MoneyTransferred indicates cash actually moved when the debt was
	// created (a loan handed over), as opposed to recording a pre-existing
	// obligation. Only the former produces a linked transaction.
	MoneyTransferred bool
}

// UpdateDebtInput carries the mutable metadata of a debt. Amounts and status
// only ever change through payments, cancellation and deletion.
type UpdateDebtInput struct {
	PersonName  *string
	Description *string
	DueDate     *time.Time
	ClearDue    bool
}

// DebtWithPayments bundles a debt with its full payment ledger.
type DebtWithPayments struct {
	Debt     model.Debt          `json:"debt"`
	Payments []model.DebtPayment `json:"payments"`
}

// DebtService defines business logic methods for the debt lifecycle.
type DebtService interface {
	Create(ctx context.Context, input CreateDebtInput) (*model.Debt, error)
	Get(ctx context.Context, id string) (*model.Debt, error)
	GetWithPayments(ctx context.Context, id string) (*DebtWithPayments, error)
	List(ctx context.Context, ref model.UserRef, status *model.DebtStatus) ([]model.Debt, error)
	Update(ctx context.Context, id string, input UpdateDebtInput) (*model.Debt, error)
	// Pay applies a partial or full payment. The debt flips to paid exactly
	// when the remaining amount reaches zero.
	Pay(ctx context.Context, debtID string, amountCents int64, note string) (*model.Debt, *model.DebtPayment, error)
	// PayFull settles the debt in one payment of the remaining amount.
	PayFull(ctx context.Context, debtID string, note string) (*model.Debt, *model.DebtPayment, error)
	GetPayment(ctx context.Context, paymentID string) (*model.DebtPayment, error)
	// DeletePayment removes a payment and restores its amount; a paid debt
	// reopens.
	DeletePayment(ctx context.Context, paymentID string) (*model.Debt, error)
	Cancel(ctx context.Context, id string) (*model.Debt, error)
	Delete(ctx context.Context, id string) error
	Summary(ctx context.Context, ref model.UserRef) (*model.DebtSummary, error)
}

type debtService struct {
	repo      repository.DebtRepository
	identity  IdentityResolver
	usage     UsageService
	txCreator LinkedTransactionCreator
	logger    zerolog.Logger
}

// NewDebtService creates a new DebtService with a scoped logger. txCreator
// may be nil, in which case debt events never produce linked transactions.
func NewDebtService(
	repo repository.DebtRepository,
	identity IdentityResolver,
	usage UsageService,
	txCreator LinkedTransactionCreator,
	logger zerolog.Logger,
) DebtService {
	return &debtService{
		repo:      repo,
		identity:  identity,
		usage:     usage,
		txCreator: txCreator,
		logger:    logger.With().Str("service", "DebtService").Logger(),
	}
}

func (s *debtService) Create(ctx context.Context, input CreateDebtInput) (*model.Debt, error) {
	personName := strings.TrimSpace(input.PersonName)
	if personName == "" {
		return nil, NewValidationError("person name must not be empty")
	}
	if input.AmountCents <= 0 {
		return nil, NewValidationError("amount must be positive")
	}
	if !input.Type.Valid() {
		return nil, NewValidationError("unknown debt type %q", input.Type)
	}

	userID, err := s.identity.Resolve(ctx, input.Ref)
	if err != nil {
		return nil, err
	}

	// The active-debts counter is derived, so bring it in line with the
	// debt store before gating on it.
	s.resyncActiveDebts(ctx, userID)
	res, err := s.usage.CheckLimit(ctx, userID, model.LimitDebts)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Debt limit check failed, allowing")
	} else if !res.Allowed {
		return nil, &LimitExceededError{
			LimitType:    model.LimitDebts,
			Limit:        derefOrZero(res.Limit),
			CurrentUsage: res.CurrentUsage,
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "USD"
	}
	d := &model.Debt{
		UserID:         userID,
		Type:           input.Type,
		PersonName:     personName,
		OriginalCents:  input.AmountCents,
		RemainingCents: input.AmountCents,
		Currency:       currency,
		Status:         model.DebtActive,
		Description:    strings.TrimSpace(input.Description),
		DueDate:        input.DueDate,
	}
	if err := s.repo.CreateDebt(ctx, d); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create debt")
		return nil, err
	}

	if input.MoneyTransferred {
		s.recordOriginTransaction(ctx, d)
	}
	s.resyncActiveDebts(ctx, userID)

	s.logger.Info().
		Str("debt_id", d.DebtID).
		Str("user_id", userID).
		Str("type", string(d.Type)).
		Int64("amount_cents", d.OriginalCents).
		Msg("Debt created")
	return d, nil
}

// recordOriginTransaction records the cash movement behind a freshly created
// debt: lending money out is an expense, receiving a loan is income. The
// debt itself is already committed, so failures here are logged and the
// link is simply left unset.
func (s *debtService) recordOriginTransaction(ctx context.Context, d *model.Debt) {
	if s.txCreator == nil {
		return
	}
	txType := model.TransactionIncome
	desc := fmt.Sprintf("Borrowed from %s", d.PersonName)
	if d.Type == model.DebtOwedToMe {
		txType = model.TransactionExpense
		desc = fmt.Sprintf("Lent to %s", d.PersonName)
	}
	debtID := d.DebtID
	t, err := s.txCreator.Create(ctx, CreateTransactionInput{
		UserID:        d.UserID,
		AmountCents:   d.OriginalCents,
		Type:          txType,
		Category:      "debt",
		Description:   desc,
		IsDebtRelated: true,
		RelatedDebtID: &debtID,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("debt_id", d.DebtID).Msg("Failed to record debt origin transaction")
		return
	}
	if err := s.repo.SetOriginTransaction(ctx, d.DebtID, t.TransactionID); err != nil {
		s.logger.Error().Err(err).Str("debt_id", d.DebtID).Msg("Failed to link origin transaction")
		return
	}
	d.OriginTransactionID = &t.TransactionID
}

// recordPaymentTransaction records the cash movement of a payment: settling
// what I owe is an expense, receiving a repayment is income.
func (s *debtService) recordPaymentTransaction(ctx context.Context, d *model.Debt, amountCents int64) {
	if s.txCreator == nil {
		return
	}
	txType := model.TransactionExpense
	desc := fmt.Sprintf("Debt payment to %s", d.PersonName)
	if d.Type == model.DebtOwedToMe {
		txType = model.TransactionIncome
		desc = fmt.Sprintf("Debt payment from %s", d.PersonName)
	}
	debtID := d.DebtID
	_, err := s.txCreator.Create(ctx, CreateTransactionInput{
		UserID:        d.UserID,
		AmountCents:   amountCents,
		Type:          txType,
		Category:      "debt",
		Description:   desc,
		IsDebtRelated: true,
		RelatedDebtID: &debtID,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("debt_id", d.DebtID).Msg("Failed to record debt payment transaction")
	}
}

// resyncActiveDebts recomputes the derived active-debts counter from the
// debt store. Best effort: the counter drives limit checks only.
func (s *debtService) resyncActiveDebts(ctx context.Context, userID string) {
	count, err := s.repo.CountActiveDebts(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to count active debts")
		return
	}
	if err := s.usage.SetActiveDebtsCount(ctx, userID, count); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to sync active debts counter")
	}
}

func (s *debtService) Get(ctx context.Context, id string) (*model.Debt, error) {
	d, err := s.repo.GetDebtByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, &NotFoundError{Resource: "debt", ID: id}
	}
	return d, nil
}

func (s *debtService) GetWithPayments(ctx context.Context, id string) (*DebtWithPayments, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DebtWithPayments{Debt: *d, Payments: payments}, nil
}

func (s *debtService) List(ctx context.Context, ref model.UserRef, status *model.DebtStatus) ([]model.Debt, error) {
	if status != nil {
		switch *status {
		case model.DebtActive, model.DebtPaid, model.DebtCancelled:
		default:
			return nil, NewValidationError("unknown debt status %q", *status)
		}
	}
	userID, err := s.identity.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.repo.ListDebts(ctx, userID, status)
}

func (s *debtService) Update(ctx context.Context, id string, input UpdateDebtInput) (*model.Debt, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.PersonName != nil {
		name := strings.TrimSpace(*input.PersonName)
		if name == "" {
			return nil, NewValidationError("person name must not be empty")
		}
		d.PersonName = name
	}
	if input.Description != nil {
		d.Description = strings.TrimSpace(*input.Description)
	}
	if input.ClearDue {
		d.DueDate = nil
	} else if input.DueDate != nil {
		d.DueDate = input.DueDate
	}
	if err := s.repo.UpdateDebtDetails(ctx, d); err != nil {
		if errors.Is(err, repository.ErrDebtNotFound) {
			return nil, &NotFoundError{Resource: "debt", ID: id}
		}
		return nil, err
	}
	return d, nil
}

func (s *debtService) Pay(ctx context.Context, debtID string, amountCents int64, note string) (*model.Debt, *model.DebtPayment, error) {
	if amountCents <= 0 {
		return nil, nil, NewValidationError("payment amount must be positive")
	}

	d, payment, err := s.repo.ApplyPayment(ctx, debtID, amountCents, strings.TrimSpace(note))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDebtNotFound):
			return nil, nil, &NotFoundError{Resource: "debt", ID: debtID}
		case errors.Is(err, repository.ErrDebtNotActive):
			return nil, nil, &BusinessRuleError{Message: "payments are only accepted on active debts"}
		case errors.Is(err, repository.ErrPaymentExceedsRemaining):
			return nil, nil, NewValidationError("payment exceeds remaining debt amount")
		default:
			s.logger.Error().Err(err).Str("debt_id", debtID).Msg("Failed to apply payment")
			return nil, nil, err
		}
	}

	s.recordPaymentTransaction(ctx, d, amountCents)
	if d.Status == model.DebtPaid {
		s.resyncActiveDebts(ctx, d.UserID)
	}

	s.logger.Info().
		Str("debt_id", d.DebtID).
		Int64("amount_cents", amountCents).
		Int64("remaining_cents", d.RemainingCents).
		Str("status", string(d.Status)).
		Msg("Payment applied")
	return d, payment, nil
}

func (s *debtService) PayFull(ctx context.Context, debtID string, note string) (*model.Debt, *model.DebtPayment, error) {
	d, err := s.Get(ctx, debtID)
	if err != nil {
		return nil, nil, err
	}
	if d.Status != model.DebtActive {
		return nil, nil, &BusinessRuleError{Message: "payments are only accepted on active debts"}
	}
	return s.Pay(ctx, debtID, d.RemainingCents, note)
}

func (s *debtService) GetPayment(ctx context.Context, paymentID string) (*model.DebtPayment, error) {
	p, err := s.repo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NotFoundError{Resource: "payment", ID: paymentID}
	}
	return p, nil
}

func (s *debtService) DeletePayment(ctx context.Context, paymentID string) (*model.Debt, error) {
	d, payment, err := s.repo.RevertPayment(ctx, paymentID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPaymentNotFound):
			return nil, &NotFoundError{Resource: "payment", ID: paymentID}
		case errors.Is(err, repository.ErrDebtNotFound):
			return nil, &NotFoundError{Resource: "debt", ID: paymentID}
		default:
			s.logger.Error().Err(err).Str("payment_id", paymentID).Msg("Failed to revert payment")
			return nil, err
		}
	}

	// The revert may have reopened a paid debt.
	s.resyncActiveDebts(ctx, d.UserID)

	s.logger.Info().
		Str("debt_id", d.DebtID).
		Str("payment_id", payment.PaymentID).
		Int64("restored_cents", payment.AmountCents).
		Msg("Payment reverted")
	return d, nil
}

func (s *debtService) Cancel(ctx context.Context, id string) (*model.Debt, error) {
	d, err := s.repo.CancelDebt(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDebtNotFound):
			return nil, &NotFoundError{Resource: "debt", ID: id}
		case errors.Is(err, repository.ErrDebtNotActive):
			return nil, &BusinessRuleError{Message: "only active debts can be cancelled"}
		default:
			s.logger.Error().Err(err).Str("debt_id", id).Msg("Failed to cancel debt")
			return nil, err
		}
	}
	s.resyncActiveDebts(ctx, d.UserID)
	s.logger.Info().Str("debt_id", d.DebtID).Msg("Debt cancelled")
	return d, nil
}

func (s *debtService) Delete(ctx context.Context, id string) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteDebt(ctx, id); err != nil {
		if errors.Is(err, repository.ErrDebtNotFound) {
			return &NotFoundError{Resource: "debt", ID: id}
		}
		s.logger.Error().Err(err).Str("debt_id", id).Msg("Failed to delete debt")
		return err
	}
	s.resyncActiveDebts(ctx, d.UserID)
	s.logger.Info().Str("debt_id", id).Msg("Debt deleted")
	return nil
}

func (s *debtService) Summary(ctx context.Context, ref model.UserRef) (*model.DebtSummary, error) {
	userID, err := s.identity.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.repo.SummarizeActiveDebts(ctx, userID)
}
