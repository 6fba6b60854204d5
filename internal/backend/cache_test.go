package backend

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"chitti-admin/internal/models"
)

func newCachedAPI(t *testing.T, inner API) (*CachedAPI, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCachedAPI(inner, rdb, time.Minute), mr
}

func TestCachedListReadsThrough(t *testing.T) {
	inner := &countingAPI{rows: []models.Payment{{
		ID: "1", Phone: "9876543210", PaidAmount: decimal.NewFromInt(500),
		UTRNumber: "UTR12345", ApprovalStatus: models.StatusPending, CreatedAt: "2025-01-02T03:04:05",
	}}}
	c, mr := newCachedAPI(t, inner)
	ctx := context.Background()

	first, err := c.ListPayments(ctx)
	require.NoError(t, err)
	second, err := c.ListPayments(ctx)
	require.NoError(t, err)

	require.Equal(t, int32(1), inner.calls.Load())
	require.True(t, mr.Exists(keyPayments))
	require.Equal(t, first[0].CreatedAt, second[0].CreatedAt)
	require.True(t, first[0].PaidAmount.Equal(second[0].PaidAmount))
}

func TestWriteInvalidates(t *testing.T) {
	inner := &countingAPI{}
	c, mr := newCachedAPI(t, inner)
	ctx := context.Background()

	_, err := c.ListPayments(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists(keyPayments))

	_, err = c.UpdatePayment(ctx, models.PaymentStatusUpdate{Phone: "9876543210", CreatedAt: "x", ApprovalStatus: models.StatusApproved})
	require.NoError(t, err)
	require.False(t, mr.Exists(keyPayments))

	_, err = c.ListPayments(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(2), inner.calls.Load())
}

func TestRedisDownFallsThrough(t *testing.T) {
	inner := &countingAPI{}
	c, mr := newCachedAPI(t, inner)
	mr.Close()

	_, err := c.ListPayments(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), inner.calls.Load())
}

func TestWithoutRedisEveryCallHitsBackend(t *testing.T) {
	inner := &countingAPI{}
	c := NewCachedAPI(inner, nil, time.Minute)
	for i := 0; i < 3; i++ {
		_, err := c.ListPayments(context.Background())
		require.NoError(t, err)
	}
	require.Equal(t, int32(3), inner.calls.Load())
}

// slowAPI holds ListPayments until release is closed so a write can land mid-fetch.
type slowAPI struct {
	countingAPI
	started chan struct{}
	release chan struct{}
}

func (f *slowAPI) ListPayments(ctx context.Context) ([]models.Payment, error) {
	close(f.started)
	<-f.release
	return f.countingAPI.ListPayments(ctx)
}

func TestFetchOverlappingWriteIsNotCached(t *testing.T) {
	inner := &slowAPI{
		countingAPI: countingAPI{rows: []models.Payment{{Phone: "9876543210", CreatedAt: "x", ApprovalStatus: models.StatusPending}}},
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	c, mr := newCachedAPI(t, inner)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := c.ListPayments(ctx)
		done <- err
	}()
	<-inner.started

	_, err := c.UpdatePayment(ctx, models.PaymentStatusUpdate{Phone: "9876543210", CreatedAt: "x", ApprovalStatus: models.StatusApproved})
	require.NoError(t, err)
	close(inner.release)
	require.NoError(t, <-done)

	require.False(t, mr.Exists(keyPayments))
	require.EqualValues(t, 1, c.generation(keyPayments))
}
