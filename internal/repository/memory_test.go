package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"riverside/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionRepository(t *testing.T) {
	repo := NewMemorySessionRepository(time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetSession", func(t *testing.T) {
		snapshot := &models.SessionSnapshot{
			ID:    "sess-123",
			State: models.BookingState{CurrentStep: models.StepRoomSelection},
		}
		err := repo.SetSession(ctx, snapshot)
		require.NoError(t, err)

		got, err := repo.GetSession(ctx, "sess-123")
		require.NoError(t, err)
		assert.Equal(t, snapshot, got)
	})

	t.Run("ClearSession", func(t *testing.T) {
		err := repo.ClearSession(ctx, "sess-123")
		require.NoError(t, err)
		got, _ := repo.GetSession(ctx, "sess-123")
		assert.Nil(t, got)
	})

	t.Run("ExpiredSession", func(t *testing.T) {
		shortRepo := NewMemorySessionRepository(10 * time.Millisecond)
		snapshot := &models.SessionSnapshot{ID: "sess-ttl"}
		require.NoError(t, shortRepo.SetSession(ctx, snapshot))

		time.Sleep(20 * time.Millisecond)
		got, err := shortRepo.GetSession(ctx, "sess-ttl")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		key := "client-456"
		allowed, _ := repo.CheckRateLimit(ctx, key, 2, time.Second)
		assert.True(t, allowed)
		allowed, _ = repo.CheckRateLimit(ctx, key, 2, time.Second)
		assert.True(t, allowed)
		allowed, _ = repo.CheckRateLimit(ctx, key, 2, time.Second)
		assert.False(t, allowed)

		// Wait for expiry
		time.Sleep(time.Second + 10*time.Millisecond)
		allowed, _ = repo.CheckRateLimit(ctx, key, 2, time.Second)
		assert.True(t, allowed)
	})

	t.Run("RateLimitConcurrent", func(t *testing.T) {
		key := "client-789"
		const limit = 30
		const requests = 50

		var wg sync.WaitGroup
		var allowedCount int64
		for i := 0; i < requests; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				allowed, err := repo.CheckRateLimit(ctx, key, limit, time.Minute)
				assert.NoError(t, err)
				if allowed {
					atomic.AddInt64(&allowedCount, 1)
				}
			}()
		}
		wg.Wait()

		// No increment may be lost: exactly limit requests pass.
		assert.EqualValues(t, limit, allowedCount)
	})
}
