package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type brokenStore struct{}

func (brokenStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func (brokenStore) IsProcessed(context.Context, string) (bool, error) { return false, nil }

func (brokenStore) Close() error { return nil }

func TestIdempotentHandler_SkipsDuplicates(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	inner := &recordingHandler{types: []string{"ArticleAdded"}}
	h := NewIdempotentHandler("touch", inner, store, shared.DefaultIdempotencyConfig(), zap.NewNop())

	event := newTestEvent("ArticleAdded")
	ctx := context.Background()
	require.NoError(t, h.Handle(ctx, event))
	require.NoError(t, h.Handle(ctx, event))

	assert.Equal(t, 1, inner.count())
	assert.Equal(t, IdempotencyStats{Processed: 1, Duplicates: 1}, h.Stats())
	assert.Equal(t, []string{"ArticleAdded"}, h.EventTypes())
}

func TestIdempotentHandler_NamesScopeKeys(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	a := &recordingHandler{}
	b := &recordingHandler{}
	cfg := shared.DefaultIdempotencyConfig()
	ha := NewIdempotentHandler("touch", a, store, cfg, zap.NewNop())
	hb := NewIdempotentHandler("audit", b, store, cfg, zap.NewNop())

	event := newTestEvent("ArticleRemoved")
	require.NoError(t, ha.Handle(context.Background(), event))
	require.NoError(t, hb.Handle(context.Background(), event))

	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
}

func TestIdempotentHandler_StoreErrorStillProcesses(t *testing.T) {
	inner := &recordingHandler{}
	h := NewIdempotentHandler("touch", inner, brokenStore{}, shared.DefaultIdempotencyConfig(), zap.NewNop())

	require.NoError(t, h.Handle(context.Background(), newTestEvent("ArticleAdded")))
	assert.Equal(t, 1, inner.count())
}

func TestIdempotentHandler_Disabled(t *testing.T) {
	inner := &recordingHandler{}
	h := NewIdempotentHandler("touch", inner, brokenStore{}, shared.IdempotencyConfig{}, zap.NewNop())

	event := newTestEvent("ArticleAdded")
	require.NoError(t, h.Handle(context.Background(), event))
	require.NoError(t, h.Handle(context.Background(), event))
	assert.Equal(t, 2, inner.count())
}

func TestIdempotentHandler_CountsFailures(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	inner := &recordingHandler{err: errors.New("boom")}
	h := NewIdempotentHandler("touch", inner, store, shared.DefaultIdempotencyConfig(), zap.NewNop())

	assert.Error(t, h.Handle(context.Background(), newTestEvent("ArticleAdded")))
	assert.Equal(t, int64(1), h.Stats().Failed)
}
