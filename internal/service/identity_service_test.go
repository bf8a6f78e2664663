package service

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/model"

	"github.com/rs/zerolog"
)

func TestResolveCanonical(t *testing.T) {
	ctx := context.Background()
	userRepo := newFakeUserRepo()
	u := &model.User{Name: "Test User"}
	if err := userRepo.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	svc := NewIdentityService(userRepo, zerolog.Nop())

	got, err := svc.Resolve(ctx, model.CanonicalRef(u.UserID))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != u.UserID {
		t.Errorf("Resolve = %q, want %q", got, u.UserID)
	}

	_, err = svc.Resolve(ctx, model.CanonicalRef("no-such-user"))
	var notFoundErr *NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestResolveTelegram(t *testing.T) {
	ctx := context.Background()
	userRepo := newFakeUserRepo()
	telegramID := int64(123456789)
	u := &model.User{Name: "Telegram User", TelegramID: &telegramID}
	if err := userRepo.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	svc := NewIdentityService(userRepo, zerolog.Nop())

	got, err := svc.Resolve(ctx, model.UserRef{Kind: model.RefTelegram, Value: "123456789"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != u.UserID {
		t.Errorf("Resolve = %q, want %q", got, u.UserID)
	}

	_, err = svc.Resolve(ctx, model.UserRef{Kind: model.RefTelegram, Value: "not-a-number"})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("garbled telegram id: expected ValidationError, got %v", err)
	}
}

func TestResolveGuestProvisionsOnFirstUse(t *testing.T) {
	ctx := context.Background()
	userRepo := newFakeUserRepo()
	svc := NewIdentityService(userRepo, zerolog.Nop())

	ref := model.UserRef{Kind: model.RefGuest, Value: "device-abc"}
	first, err := svc.Resolve(ctx, ref)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if first == "" {
		t.Fatal("expected a provisioned user id")
	}

	// The same guest key resolves to the same user.
	second, err := svc.Resolve(ctx, ref)
	if err != nil {
		t.Fatalf("Resolve again: %v", err)
	}
	if second != first {
		t.Errorf("second resolve = %q, want %q", second, first)
	}
	if len(userRepo.users) != 1 {
		t.Errorf("users provisioned = %d, want 1", len(userRepo.users))
	}

	_, err = svc.Resolve(ctx, model.UserRef{Kind: model.RefGuest})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("empty guest key: expected ValidationError, got %v", err)
	}
}

func TestResolveUnknownKind(t *testing.T) {
	svc := NewIdentityService(newFakeUserRepo(), zerolog.Nop())
	_, err := svc.Resolve(context.Background(), model.UserRef{Kind: "email", Value: "x@example.com"})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
