package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"fintrack/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// IngestResult reports what a single ingestion produced.
type IngestResult struct {
	Transactions []model.Transaction `json:"transactions"`
	Debts        []model.Debt        `json:"debts"`
	Skipped      int                 `json:"skipped"`
}

// IngestService turns free-form user input (typed text or a voice
// recording) into transactions and debts via the parser service.
type IngestService interface {
	IngestText(ctx context.Context, ref model.UserRef, text string) (*IngestResult, error)
	// IngestVoice stores the recording, has the parser transcribe and
	// extract it, and counts one voice input against the user's quota.
	IngestVoice(ctx context.Context, ref model.UserRef, audio io.Reader, contentType string) (*IngestResult, error)
}

type ingestService struct {
	parser        ParserClient
	identity      IdentityResolver
	usage         UsageService
	transactions  TransactionService
	debts         DebtService
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	bucketName    string
	logger        zerolog.Logger
}

// NewIngestService creates a new IngestService with a scoped logger.
func NewIngestService(
	parser ParserClient,
	identity IdentityResolver,
	usage UsageService,
	transactions TransactionService,
	debts DebtService,
	s3Client *s3.Client,
	bucketName string,
	logger zerolog.Logger,
) IngestService {
	return &ingestService{
		parser:        parser,
		identity:      identity,
		usage:         usage,
		transactions:  transactions,
		debts:         debts,
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		bucketName:    bucketName,
		logger:        logger.With().Str("service", "IngestService").Logger(),
	}
}

func (s *ingestService) IngestText(ctx context.Context, ref model.UserRef, text string) (*IngestResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, NewValidationError("text must not be empty")
	}
	userID, err := s.identity.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	items, err := s.parser.ParseText(ctx, userID, text)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Text parsing failed")
		return nil, err
	}
	return s.createItems(ctx, userID, items)
}

func (s *ingestService) IngestVoice(ctx context.Context, ref model.UserRef, audio io.Reader, contentType string) (*IngestResult, error) {
	userID, err := s.identity.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	res, err := s.usage.CheckLimit(ctx, userID, model.LimitVoiceInputs)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Voice limit check failed, allowing")
	} else if !res.Allowed {
		return nil, &LimitExceededError{
			LimitType:    model.LimitVoiceInputs,
			Limit:        derefOrZero(res.Limit),
			CurrentUsage: res.CurrentUsage,
		}
	}

	storagePath := fmt.Sprintf("voice/%s/%s", userID, uuid.New().String())
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(storagePath),
		Body:        audio,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to store voice recording")
		return nil, fmt.Errorf("storing voice recording: %w", err)
	}

	// The parser fetches the recording itself; hand it a short-lived URL.
	presigned, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(storagePath),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return nil, fmt.Errorf("presigning voice recording URL: %w", err)
	}

	items, err := s.parser.ParseVoice(ctx, userID, presigned.URL)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Voice parsing failed")
		return nil, err
	}

	// The recording was processed, so it counts even if item creation below
	// partially fails.
	if err := s.usage.IncrementUsage(ctx, userID, model.LimitVoiceInputs); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to increment voice inputs counter")
	}

	return s.createItems(ctx, userID, items)
}

// createItems persists each parsed item. A limit denial aborts the batch and
// propagates so the caller sees the quota; any other per-item failure skips
// just that item.
func (s *ingestService) createItems(ctx context.Context, userID string, items []ParsedItem) (*IngestResult, error) {
	result := &IngestResult{
		Transactions: []model.Transaction{},
		Debts:        []model.Debt{},
	}
	for _, item := range items {
		switch item.Kind {
		case ParsedKindTransaction:
			t, err := s.transactions.Create(ctx, CreateTransactionInput{
				UserID:      userID,
				AmountCents: item.AmountCents,
				Type:        item.Type,
				Category:    item.Category,
				Description: item.Description,
			})
			if err != nil {
				var limitErr *LimitExceededError
				if errors.As(err, &limitErr) {
					return nil, err
				}
				s.logger.Warn().Err(err).Str("user_id", userID).Msg("Skipping unprocessable parsed transaction")
				result.Skipped++
				continue
			}
			result.Transactions = append(result.Transactions, *t)

		case ParsedKindDebt:
			d, err := s.debts.Create(ctx, CreateDebtInput{
				Ref:              model.CanonicalRef(userID),
				Type:             item.DebtType,
				PersonName:       item.PersonName,
				AmountCents:      item.AmountCents,
				Currency:         item.Currency,
				Description:      item.Description,
				MoneyTransferred: item.MoneyTransferred,
			})
			if err != nil {
				var limitErr *LimitExceededError
				if errors.As(err, &limitErr) {
					return nil, err
				}
				s.logger.Warn().Err(err).Str("user_id", userID).Msg("Skipping unprocessable parsed debt")
				result.Skipped++
				continue
			}
			result.Debts = append(result.Debts, *d)

		default:
			s.logger.Warn().Str("kind", item.Kind).Msg("Parser returned unknown item kind")
			result.Skipped++
		}
	}
	return result, nil
}
