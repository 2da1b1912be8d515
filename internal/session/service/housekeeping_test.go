package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/covergate/sessiond/pkg/clockx"
	"github.com/covergate/sessiond/pkg/idx"
	"github.com/covergate/sessiond/pkg/tokenx"
)

func TestSweepPrunesOnlySafelyExpiredLedgerRows(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	clock := clockx.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	hk := NewHousekeepingService(
		st,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock,
		time.Hour,
		tokenx.DefaultRefreshTokenTTL,
		24*time.Hour,
	)

	now := clock.Now()
	ledger := st.UsedRefreshTokens()

	ancient := idx.New().String()
	recent := idx.New().String()
	require.NoError(t, ledger.MarkUsed(ctx, ancient, now.Add(-tokenx.DefaultRefreshTokenTTL-48*time.Hour), now))
	require.NoError(t, ledger.MarkUsed(ctx, recent, now.Add(-time.Hour), now))

	hk.Sweep(ctx)

	used, err := ledger.HasBeenUsed(ctx, ancient)
	require.NoError(t, err)
	require.False(t, used)

	used, err = ledger.HasBeenUsed(ctx, recent)
	require.NoError(t, err)
	require.True(t, used, "rows inside the refresh TTL window must survive")
}
