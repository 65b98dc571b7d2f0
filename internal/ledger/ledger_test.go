package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kaizenhq/event-ledger/internal/notify"
	"github.com/kaizenhq/event-ledger/internal/store"
)

// allowGate authorizes exactly the principals it contains.
type allowGate map[string]bool

func (g allowGate) Authorized(ctx context.Context, principal string) bool {
	return g[principal]
}

// allowAll authorizes everyone; used where authorization is not under test.
type allowAll struct{}

func (allowAll) Authorized(ctx context.Context, principal string) bool { return true }

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

var testTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store        *store.Memory
	events       *EventLedger
	collectibles *CollectibleRegistry
	rewards      *RewardLedger
}

func newFixture(t *testing.T, gate Gate) *fixture {
	t.Helper()
	st := store.NewMemory()
	clock := fixedClock{at: testTime}
	log := zap.NewNop()
	return &fixture{
		store:        st,
		events:       NewEventLedger(st, gate, clock, notify.Nop{}, log),
		collectibles: NewCollectibleRegistry(st, gate, clock, notify.Nop{}, log),
		rewards:      NewRewardLedger(st, gate, notify.Nop{}, log),
	}
}

// balanceSum re-derives the conservation left-hand side from storage.
func (f *fixture) balanceSum(t *testing.T) int64 {
	t.Helper()
	var sum int64
	err := f.store.View(context.Background(), func(ctx context.Context, tx store.Tx) error {
		keys, err := tx.Keys(ctx, BalanceKeyPrefix)
		if err != nil {
			return err
		}
		for _, key := range keys {
			var balance int64
			if _, err := tx.Get(ctx, key, &balance); err != nil {
				return err
			}
			sum += balance
		}
		return nil
	})
	require.NoError(t, err)
	return sum
}

// requireConservation asserts Σ balances == total supply.
func (f *fixture) requireConservation(t *testing.T) {
	t.Helper()
	info, err := f.rewards.TokenInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, info.TotalSupply, f.balanceSum(t), "conservation violated")
}
