package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jotterapp/jotter-server/internal/domain"
	"github.com/jotterapp/jotter-server/internal/id"
	"github.com/jotterapp/jotter-server/internal/store"
)

func newTestRefreshToken(t *testing.T, userID, hash string, expiresAt time.Time) *domain.RefreshToken {
	t.Helper()

	tokenID, err := id.Generate("rt")
	if err != nil {
		t.Fatalf("generate token id: %v", err)
	}
	return &domain.RefreshToken{
		ID:        tokenID,
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "token@example.com")
	token := newTestRefreshToken(t, user.ID, "hash-roundtrip", time.Now().Add(time.Hour))

	if err := s.CreateRefreshToken(ctx, token); err != nil {
		t.Fatalf("create refresh token: %v", err)
	}

	got, err := s.GetActiveRefreshToken(ctx, "hash-roundtrip")
	if err != nil {
		t.Fatalf("get active token: %v", err)
	}
	if got.ID != token.ID {
		t.Errorf("expected token %s, got %s", token.ID, got.ID)
	}
	if got.UserID != user.ID {
		t.Errorf("expected user %s, got %s", user.ID, got.UserID)
	}
	if got.Revoked {
		t.Error("fresh token should not be revoked")
	}
}

func TestGetActiveRefreshTokenExcludesExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "expired@example.com")
	token := newTestRefreshToken(t, user.ID, "hash-expired", time.Now().Add(-time.Minute))

	if err := s.CreateRefreshToken(ctx, token); err != nil {
		t.Fatalf("create refresh token: %v", err)
	}

	_, err := s.GetActiveRefreshToken(ctx, "hash-expired")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for expired token, got %v", err)
	}
}

func TestRotateRefreshToken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "rotate@example.com")
	old := newTestRefreshToken(t, user.ID, "hash-old", time.Now().Add(time.Hour))
	if err := s.CreateRefreshToken(ctx, old); err != nil {
		t.Fatalf("create refresh token: %v", err)
	}

	successor := newTestRefreshToken(t, user.ID, "hash-new", time.Now().Add(time.Hour))
	if err := s.RotateRefreshToken(ctx, old.ID, successor); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	// Old token is dead.
	if _, err := s.GetActiveRefreshToken(ctx, "hash-old"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected old token revoked, got %v", err)
	}

	// Successor is live.
	got, err := s.GetActiveRefreshToken(ctx, "hash-new")
	if err != nil {
		t.Fatalf("get successor: %v", err)
	}
	if got.ID != successor.ID {
		t.Errorf("expected successor %s, got %s", successor.ID, got.ID)
	}
}

func TestRotateRefreshTokenOnlyOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "replay@example.com")
	old := newTestRefreshToken(t, user.ID, "hash-once", time.Now().Add(time.Hour))
	if err := s.CreateRefreshToken(ctx, old); err != nil {
		t.Fatalf("create refresh token: %v", err)
	}

	first := newTestRefreshToken(t, user.ID, "hash-first", time.Now().Add(time.Hour))
	if err := s.RotateRefreshToken(ctx, old.ID, first); err != nil {
		t.Fatalf("first rotate: %v", err)
	}

	// A second rotation of the same token must fail without inserting
	// its successor.
	second := newTestRefreshToken(t, user.ID, "hash-second", time.Now().Add(time.Hour))
	err := s.RotateRefreshToken(ctx, old.ID, second)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on replayed rotation, got %v", err)
	}
	if _, err := s.GetActiveRefreshToken(ctx, "hash-second"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("replayed rotation leaked a successor: %v", err)
	}
}

func TestDeleteExpiredRefreshTokens(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "cleanup@example.com")

	expired := newTestRefreshToken(t, user.ID, "hash-stale", time.Now().Add(-time.Hour))
	live := newTestRefreshToken(t, user.ID, "hash-live", time.Now().Add(time.Hour))
	for _, token := range []*domain.RefreshToken{expired, live} {
		if err := s.CreateRefreshToken(ctx, token); err != nil {
			t.Fatalf("create refresh token: %v", err)
		}
	}

	n, err := s.DeleteExpiredRefreshTokens(ctx)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}

	if _, err := s.GetActiveRefreshToken(ctx, "hash-live"); err != nil {
		t.Errorf("live token should survive cleanup: %v", err)
	}
}
