package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainerrors "github.com/caldermont/data-governance-backend/internal/domain/errors"
	"github.com/caldermont/data-governance-backend/internal/service/gapanalysis"
)

func newTestStore(t *testing.T) (*RedisStatusStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStatusStoreWithClient(client, zap.NewNop(), time.Hour)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestRedisStatusStore_SetAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	status := &gapanalysis.Status{
		AnalysisID:     uuid.New(),
		State:          gapanalysis.StateRunning,
		Stage:          "documentation",
		AssetsAnalyzed: 12,
		GapsFound:      4,
		StartedAt:      time.Now().UTC().Truncate(time.Second),
		UpdatedAt:      time.Now().UTC().Truncate(time.Second),
	}

	require.NoError(t, store.Set(ctx, status))

	loaded, err := store.Get(ctx, status.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, status.AnalysisID, loaded.AnalysisID)
	assert.Equal(t, gapanalysis.StateRunning, loaded.State)
	assert.Equal(t, "documentation", loaded.Stage)
	assert.Equal(t, 12, loaded.AssetsAnalyzed)
	assert.Equal(t, 4, loaded.GapsFound)
}

func TestRedisStatusStore_OverwriteKeepsLatest(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	status := &gapanalysis.Status{AnalysisID: uuid.New(), State: gapanalysis.StateRunning}
	require.NoError(t, store.Set(ctx, status))

	status.State = gapanalysis.StateCompleted
	status.GapsFound = 7
	require.NoError(t, store.Set(ctx, status))

	loaded, err := store.Get(ctx, status.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, gapanalysis.StateCompleted, loaded.State)
	assert.Equal(t, 7, loaded.GapsFound)
}

func TestRedisStatusStore_UnknownIDReturnsNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeNotFound))
}

func TestRedisStatusStore_EntriesExpire(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	status := &gapanalysis.Status{AnalysisID: uuid.New(), State: gapanalysis.StateCompleted}
	require.NoError(t, store.Set(ctx, status))

	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, status.AnalysisID)
	assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeNotFound))
}
