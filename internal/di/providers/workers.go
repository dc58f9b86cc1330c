package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/jotterapp/jotter-server/internal/logger"
)

// tokenCleanupInterval is how often expired refresh tokens are purged.
const tokenCleanupInterval = 1 * time.Hour

// TokenCleanupJob runs periodic expired refresh token cleanup.
type TokenCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *TokenCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideTokenCleanupJob provides the periodic refresh token cleanup job.
// Expired tokens are already invisible to lookups; the job keeps the
// table from accumulating dead rows.
func ProvideTokenCleanupJob(i do.Injector) (*TokenCleanupJob, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	// Initial cleanup on startup
	if count, err := storeHandle.DeleteExpiredRefreshTokens(ctx); err != nil {
		log.Warn("Initial token cleanup failed", "error", err)
	} else if count > 0 {
		log.Info("Initial token cleanup completed", "deleted", count)
	}

	go func() {
		ticker := time.NewTicker(tokenCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if count, err := storeHandle.DeleteExpiredRefreshTokens(ctx); err != nil {
					log.Warn("Token cleanup failed", "error", err)
				} else if count > 0 {
					log.Info("Token cleanup completed", "deleted", count)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Token cleanup job started")

	return &TokenCleanupJob{cancel: cancel}, nil
}
