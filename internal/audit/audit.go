// Package audit periodically re-derives the reward ledger's conservation
// invariant from persisted state: the sum of all balances must equal total
// supply. The ledgers maintain the invariant by construction; the auditor
// is an operational tripwire that pages when storage and bookkeeping ever
// disagree. Pure read path, no invariant depends on it.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/kaizenhq/event-ledger/internal/ledger"
	"github.com/kaizenhq/event-ledger/internal/model"
	"github.com/kaizenhq/event-ledger/internal/store"
)

// ErrConservation is returned by Check when balances and supply diverge.
var ErrConservation = errors.New("balance sum does not equal total supply")

// Auditor runs the conservation check on a schedule.
type Auditor struct {
	store     store.Store
	log       *zap.Logger
	scheduler gocron.Scheduler
	interval  time.Duration
}

// New builds an Auditor with its own gocron scheduler.
func New(st store.Store, interval time.Duration, log *zap.Logger) (*Auditor, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Auditor{
		store:     st,
		log:       log.Named("audit"),
		scheduler: scheduler,
		interval:  interval,
	}, nil
}

// Start registers the audit job and starts the scheduler.
func (a *Auditor) Start() error {
	_, err := a.scheduler.NewJob(
		gocron.DurationJob(a.interval),
		gocron.NewTask(a.run),
		gocron.WithName("conservation-audit"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("register audit job: %w", err)
	}
	a.scheduler.Start()
	a.log.Info("conservation auditor started", zap.Duration("interval", a.interval))
	return nil
}

// Stop shuts the scheduler down.
func (a *Auditor) Stop() {
	if err := a.scheduler.Shutdown(); err != nil {
		a.log.Error("scheduler shutdown failed", zap.Error(err))
	}
}

func (a *Auditor) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sum, supply, err := a.Check(ctx)
	switch {
	case errors.Is(err, ErrConservation):
		a.log.Error("conservation violated",
			zap.Int64("balance_sum", sum),
			zap.Int64("total_supply", supply),
		)
	case err != nil:
		a.log.Error("audit failed", zap.Error(err))
	default:
		a.log.Debug("conservation holds", zap.Int64("total_supply", supply))
	}
}

// Check sums every persisted balance and compares it to total supply.
// Before the reward ledger is initialized there is nothing to audit and
// Check reports zero/zero with no error.
func (a *Auditor) Check(ctx context.Context) (balanceSum, totalSupply int64, err error) {
	err = a.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var info model.RewardTokenInfo
		ok, err := tx.Get(ctx, ledger.KeyRewardInfo, &info)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		totalSupply = info.TotalSupply

		keys, err := tx.Keys(ctx, ledger.BalanceKeyPrefix)
		if err != nil {
			return err
		}
		for _, key := range keys {
			var balance int64
			if _, err := tx.Get(ctx, key, &balance); err != nil {
				return err
			}
			balanceSum += balance
		}
		if balanceSum != totalSupply {
			return ErrConservation
		}
		return nil
	})
	return balanceSum, totalSupply, err
}
