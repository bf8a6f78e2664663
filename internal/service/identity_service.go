package service

import (
	"context"
	"fmt"
	"strconv"

	"fintrack/internal/model"
	"fintrack/internal/repository"

	"github.com/rs/zerolog"
)

// IdentityResolver turns a tagged user reference into a canonical user id.
// Resolution happens once at the boundary; the accounting and debt cores
// only ever see canonical ids.
type IdentityResolver interface {
	Resolve(ctx context.Context, ref model.UserRef) (string, error)
}

type identityService struct {
	userRepo repository.UserRepository
	logger   zerolog.Logger
}

// NewIdentityService creates a new IdentityResolver with a scoped logger.
func NewIdentityService(userRepo repository.UserRepository, logger zerolog.Logger) IdentityResolver {
	return &identityService{
		userRepo: userRepo,
		logger:   logger.With().Str("service", "IdentityService").Logger(),
	}
}

func (s *identityService) Resolve(ctx context.Context, ref model.UserRef) (string, error) {
	switch ref.Kind {
	case model.RefCanonical:
		u, err := s.userRepo.GetUserByID(ctx, ref.Value)
		if err != nil {
			return "", fmt.Errorf("resolving canonical id: %w", err)
		}
		if u == nil {
			return "", &NotFoundError{Resource: "user", ID: ref.Value}
		}
		return u.UserID, nil

	case model.RefTelegram:
		telegramID, err := strconv.ParseInt(ref.Value, 10, 64)
		if err != nil {
			return "", NewValidationError("invalid telegram id %q", ref.Value)
		}
		u, err := s.userRepo.GetUserByTelegramID(ctx, telegramID)
		if err != nil {
			return "", fmt.Errorf("resolving telegram id: %w", err)
		}
		if u == nil {
			return "", &NotFoundError{Resource: "user", ID: ref.Value}
		}
		return u.UserID, nil

	case model.RefGuest:
		if ref.Value == "" {
			return "", NewValidationError("guest key must not be empty")
		}
		u, err := s.userRepo.GetUserByGuestKey(ctx, ref.Value)
		if err != nil {
			return "", fmt.Errorf("resolving guest key: %w", err)
		}
		if u != nil {
			return u.UserID, nil
		}
		// Guests are provisioned on first use.
		guestKey := ref.Value
		created := &model.User{GuestKey: &guestKey, Name: "Guest"}
		if err := s.userRepo.CreateUser(ctx, created); err != nil {
			return "", fmt.Errorf("provisioning guest user: %w", err)
		}
		s.logger.Info().Str("user_id", created.UserID).Msg("Provisioned guest user")
		return created.UserID, nil

	default:
		return "", NewValidationError("unknown user reference kind %q", ref.Kind)
	}
}
