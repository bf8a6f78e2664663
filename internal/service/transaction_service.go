package service

import (
	"context"
	"strings"
	"time"

	"fintrack/internal/model"
	"fintrack/internal/pubsub"
	"fintrack/internal/repository"

	"github.com/rs/zerolog"
)

// CreateTransactionInput carries everything needed to record a money
// movement. Debt-related creations set IsDebtRelated and RelatedDebtID.
type CreateTransactionInput struct {
	UserID        string
	AmountCents   int64
	Type          model.TransactionType
	Category      string
	Description   string
	OccurredAt    time.Time
	IsDebtRelated bool
	RelatedDebtID *string
}

// TransactionService defines business logic methods for transactions.
type TransactionService interface {
	Create(ctx context.Context, input CreateTransactionInput) (*model.Transaction, error)
	Get(ctx context.Context, id string) (*model.Transaction, error)
	List(ctx context.Context, userID string, limit, offset int) ([]model.Transaction, error)
	Delete(ctx context.Context, id string) error
}

type transactionService struct {
	repo       repository.TransactionRepository
	usage      UsageService
	publisher  pubsub.Publisher
	eventTopic string
	now        func() time.Time
	logger     zerolog.Logger
}

// NewTransactionService creates a new TransactionService with a scoped
// logger. The publisher may be nil when eventing is not configured.
func NewTransactionService(
	repo repository.TransactionRepository,
	usage UsageService,
	publisher pubsub.Publisher,
	eventTopic string,
	logger zerolog.Logger,
) TransactionService {
	return &transactionService{
		repo:       repo,
		usage:      usage,
		publisher:  publisher,
		eventTopic: eventTopic,
		now:        time.Now,
		logger:     logger.With().Str("service", "TransactionService").Logger(),
	}
}

func (s *transactionService) Create(ctx context.Context, input CreateTransactionInput) (*model.Transaction, error) {
	if input.AmountCents <= 0 {
		return nil, NewValidationError("amount must be positive")
	}
	if !input.Type.Valid() {
		return nil, NewValidationError("unknown transaction type %q", input.Type)
	}

	res, err := s.usage.CheckLimit(ctx, input.UserID, model.LimitTransactions)
	if err != nil {
		// Fail open: a broken usage store must not block recording money.
		s.logger.Error().Err(err).Str("user_id", input.UserID).Msg("Transaction limit check failed, allowing")
	} else if !res.Allowed {
		return nil, &LimitExceededError{
			LimitType:    model.LimitTransactions,
			Limit:        derefOrZero(res.Limit),
			CurrentUsage: res.CurrentUsage,
		}
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}
	t := &model.Transaction{
		UserID:        input.UserID,
		AmountCents:   input.AmountCents,
		Type:          input.Type,
		Category:      strings.TrimSpace(input.Category),
		Description:   strings.TrimSpace(input.Description),
		OccurredAt:    occurredAt,
		IsDebtRelated: input.IsDebtRelated,
		RelatedDebtID: input.RelatedDebtID,
	}
	if err := s.repo.CreateTransaction(ctx, t); err != nil {
		s.logger.Error().Err(err).Str("user_id", input.UserID).Msg("Failed to create transaction")
		return nil, err
	}

	// Best-effort bookkeeping; the transaction is already committed.
	if err := s.usage.IncrementUsage(ctx, input.UserID, model.LimitTransactions); err != nil {
		s.logger.Error().Err(err).Str("user_id", input.UserID).Msg("Failed to increment transactions counter")
	}
	s.publish(ctx, "transaction.created", t.UserID, t.TransactionID)

	return t, nil
}

func (s *transactionService) Get(ctx context.Context, id string) (*model.Transaction, error) {
	t, err := s.repo.GetTransactionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &NotFoundError{Resource: "transaction", ID: id}
	}
	return t, nil
}

func (s *transactionService) List(ctx context.Context, userID string, limit, offset int) ([]model.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}

func (s *transactionService) Delete(ctx context.Context, id string) error {
	t, err := s.repo.GetTransactionByID(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return &NotFoundError{Resource: "transaction", ID: id}
	}
	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("transaction_id", id).Msg("Failed to delete transaction")
		return err
	}

	if err := s.usage.DecrementUsage(ctx, t.UserID, model.LimitTransactions); err != nil {
		s.logger.Error().Err(err).Str("user_id", t.UserID).Msg("Failed to decrement transactions counter")
	}
	s.publish(ctx, "transaction.deleted", t.UserID, t.TransactionID)
	return nil
}

func (s *transactionService) publish(ctx context.Context, eventType, userID, entityID string) {
	if s.publisher == nil {
		return
	}
	_, err := s.publisher.PublishEvent(ctx, s.eventTopic, pubsub.Event{
		Type:     eventType,
		UserID:   userID,
		EntityID: entityID,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}

func derefOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
