package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kaizenhq/event-ledger/internal/ledger"
	"github.com/kaizenhq/event-ledger/internal/notify"
	"github.com/kaizenhq/event-ledger/internal/store"
)

type allowAll struct{}

func (allowAll) Authorized(ctx context.Context, principal string) bool { return true }

func TestCheckBeforeInit(t *testing.T) {
	st := store.NewMemory()
	a, err := New(st, time.Minute, zap.NewNop())
	require.NoError(t, err)

	sum, supply, err := a.Check(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum)
	assert.Zero(t, supply)
}

func TestCheckHoldsAfterLedgerActivity(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	rewards := ledger.NewRewardLedger(st, allowAll{}, notify.Nop{}, zap.NewNop())

	require.NoError(t, rewards.Init(ctx, "admin", "Reward", "RWD", 0, 1000))
	require.NoError(t, rewards.SetEventReward(ctx, "admin", 1, 100))
	_, err := rewards.ClaimEventReward(ctx, "alice", 1)
	require.NoError(t, err)
	require.NoError(t, rewards.Mint(ctx, "admin", 250))

	a, err := New(st, time.Minute, zap.NewNop())
	require.NoError(t, err)

	sum, supply, err := a.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), supply)
	assert.Equal(t, supply, sum)
}

func TestCheckDetectsDivergence(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	rewards := ledger.NewRewardLedger(st, allowAll{}, notify.Nop{}, zap.NewNop())
	require.NoError(t, rewards.Init(ctx, "admin", "Reward", "RWD", 0, 1000))

	// Corrupt a balance behind the ledger's back.
	require.NoError(t, st.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Put(ctx, ledger.BalanceKeyPrefix+"ghost", int64(7))
	}))

	a, err := New(st, time.Minute, zap.NewNop())
	require.NoError(t, err)

	sum, supply, err := a.Check(ctx)
	require.ErrorIs(t, err, ErrConservation)
	assert.Equal(t, int64(1007), sum)
	assert.Equal(t, int64(1000), supply)
}
