package clients

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloud-ru/installments-go/internal/amendment"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReader struct {
	mu     sync.Mutex
	calls  int
	detail amendment.FinancingDetail
	err    error
}

func (r *countingReader) Detail(_ context.Context, _ string) (amendment.FinancingDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.detail, r.err
}

func newTestCache(t *testing.T, next FinancingReader) (*CachedFinancing, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewCachedFinancing(next, rdb, time.Minute, quietLogger()), mr
}

func TestCachedFinancingHitAndMiss(t *testing.T) {
	next := &countingReader{detail: amendment.FinancingDetail{
		TotalPaid:        decimal.NewFromInt(1000),
		TotalCouteAmount: decimal.NewFromInt(12000),
	}}
	cache, mr := newTestCache(t, next)
	ctx := context.Background()

	first, err := cache.Detail(ctx, "F-1")
	require.NoError(t, err)
	second, err := cache.Detail(ctx, "F-1")
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.True(t, first.TotalPaid.Equal(second.TotalPaid))
	assert.True(t, second.Debt().Equal(decimal.NewFromInt(12000)))
	assert.True(t, mr.Exists(financingKeyPrefix+"F-1"))
	assert.Equal(t, time.Minute, mr.TTL(financingKeyPrefix+"F-1"))

	mr.FastForward(2 * time.Minute)
	_, err = cache.Detail(ctx, "F-1")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedFinancingInvalidate(t *testing.T) {
	next := &countingReader{}
	cache, mr := newTestCache(t, next)
	ctx := context.Background()

	_, err := cache.Detail(ctx, "F-2")
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, "F-2"))
	assert.False(t, mr.Exists(financingKeyPrefix+"F-2"))

	_, err = cache.Detail(ctx, "F-2")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedFinancingSourceError(t *testing.T) {
	boom := errors.New("financing service down")
	cache, mr := newTestCache(t, &countingReader{err: boom})

	_, err := cache.Detail(context.Background(), "F-3")
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(financingKeyPrefix+"F-3"))
}

func TestCachedFinancingCorruptedEntry(t *testing.T) {
	next := &countingReader{detail: amendment.FinancingDetail{TotalPaid: decimal.NewFromInt(5)}}
	cache, mr := newTestCache(t, next)
	require.NoError(t, mr.Set(financingKeyPrefix+"F-4", "{broken"))

	detail, err := cache.Detail(context.Background(), "F-4")
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls)
	assert.True(t, detail.TotalPaid.Equal(decimal.NewFromInt(5)))
}

func TestCachedFinancingRedisDown(t *testing.T) {
	next := &countingReader{detail: amendment.FinancingDetail{TotalPaid: decimal.NewFromInt(7)}}
	cache, mr := newTestCache(t, next)
	mr.Close()

	detail, err := cache.Detail(context.Background(), "F-5")
	require.NoError(t, err)
	assert.True(t, detail.TotalPaid.Equal(decimal.NewFromInt(7)))
}
