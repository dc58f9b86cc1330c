package providers

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jotterapp/jotter-server/internal/auth"
	"github.com/jotterapp/jotter-server/internal/config"
	"github.com/jotterapp/jotter-server/internal/domain"
	"github.com/jotterapp/jotter-server/internal/logger"
	"github.com/jotterapp/jotter-server/internal/store"
)

func newTestInjector(t *testing.T) *do.RootScope {
	t.Helper()

	injector := do.New()
	do.ProvideValue(injector, &config.Config{
		Data: config.DataConfig{BasePath: t.TempDir()},
	})
	do.ProvideValue(injector, &logger.Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	do.Provide(injector, ProvideStore)

	t.Cleanup(func() {
		_ = injector.Shutdown()
	})

	return injector
}

func TestProvideTokenCleanupJob_PurgesExpiredTokensOnStartup(t *testing.T) {
	ctx := context.Background()
	injector := newTestInjector(t)
	storeHandle := do.MustInvoke[*StoreHandle](injector)

	user := &domain.User{
		ID:           "user_cleanup",
		Email:        "cleanup@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, storeHandle.CreateUser(ctx, user))

	expired := &domain.RefreshToken{
		ID:        "rt_expired",
		UserID:    user.ID,
		TokenHash: auth.HashRefreshToken("expired-secret"),
		ExpiresAt: time.Now().Add(-time.Hour),
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}
	require.NoError(t, storeHandle.CreateRefreshToken(ctx, expired))

	live := &domain.RefreshToken{
		ID:        "rt_live",
		UserID:    user.ID,
		TokenHash: auth.HashRefreshToken("live-secret"),
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	require.NoError(t, storeHandle.CreateRefreshToken(ctx, live))

	do.Provide(injector, ProvideTokenCleanupJob)
	job := do.MustInvoke[*TokenCleanupJob](injector)
	t.Cleanup(func() { _ = job.Shutdown() })

	// The startup sweep runs before the provider returns, so a second
	// sweep finds nothing left to delete.
	count, err := storeHandle.DeleteExpiredRefreshTokens(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// The live token survived the sweep.
	got, err := storeHandle.GetActiveRefreshToken(ctx, live.TokenHash)
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)

	_, err = storeHandle.GetActiveRefreshToken(ctx, expired.TokenHash)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
