package ledger

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kaizenhq/event-ledger/internal/model"
	"github.com/kaizenhq/event-ledger/internal/notify"
	"github.com/kaizenhq/event-ledger/internal/store"
)

// RewardLedger owns per-principal balances, per-event reward amounts, and
// per-(principal, event) claim markers. The conservation rule (the sum of
// all balances equals total supply) holds after every operation because
// each write pairs a debit with a credit inside one transaction; only Mint
// moves total supply, and it moves the admin balance by the same amount in
// the same transaction.
type RewardLedger struct {
	store store.Store
	gate  Gate
	pub   notify.Publisher
	log   *zap.Logger
}

// NewRewardLedger constructs a RewardLedger.
func NewRewardLedger(st store.Store, gate Gate, pub notify.Publisher, log *zap.Logger) *RewardLedger {
	return &RewardLedger{
		store: st,
		gate:  gate,
		pub:   pub,
		log:   log.Named("reward"),
	}
}

// Init creates the token record and credits the entire initial supply to
// the admin. This is the only place total supply is first established.
func (l *RewardLedger) Init(ctx context.Context, admin, name, symbol string, decimals uint32, totalSupply int64) error {
	if totalSupply < 0 {
		return fmt.Errorf("initial supply %d: %w", totalSupply, ErrInvalidAmount)
	}

	err := l.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		if ok, err := hasKey(ctx, tx, KeyRewardInfo); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("reward ledger: %w", ErrAlreadyInitialized)
		}
		info := model.RewardTokenInfo{
			Name:        name,
			Symbol:      symbol,
			Decimals:    decimals,
			TotalSupply: totalSupply,
		}
		if err := tx.Put(ctx, KeyRewardInfo, info); err != nil {
			return err
		}
		if err := tx.Put(ctx, KeyRewardAdmin, admin); err != nil {
			return err
		}
		return tx.Put(ctx, balanceKey(admin), totalSupply)
	})
	if err != nil {
		return err
	}

	l.log.Info("reward ledger initialized",
		zap.String("admin", admin),
		zap.String("symbol", symbol),
		zap.Int64("total_supply", totalSupply),
	)
	return nil
}

// SetEventReward sets or replaces the per-claim reward for an event.
// Zero means "no reward configured" and is consumed by the claim path.
func (l *RewardLedger) SetEventReward(ctx context.Context, admin string, eventID uint64, amount int64) error {
	if !l.gate.Authorized(ctx, admin) {
		return fmt.Errorf("set event reward: %w", ErrUnauthorized)
	}
	// A negative reward would let claims drive balances below zero.
	if amount < 0 {
		return fmt.Errorf("event reward %d: %w", amount, ErrInvalidAmount)
	}

	err := l.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := l.requireStoredAdmin(ctx, tx, admin); err != nil {
			return err
		}
		return tx.Put(ctx, eventRewardKey(eventID), amount)
	})
	if err != nil {
		return err
	}

	l.log.Info("event reward set",
		zap.Uint64("event_id", eventID),
		zap.Int64("amount", amount),
	)
	return nil
}

// ClaimEventReward pays the configured reward for an event to the user,
// exactly once per (user, event) pair, out of the admin's pool balance.
// Returns the amount paid.
func (l *RewardLedger) ClaimEventReward(ctx context.Context, user string, eventID uint64) (int64, error) {
	if !l.gate.Authorized(ctx, user) {
		return 0, fmt.Errorf("claim reward: %w", ErrUnauthorized)
	}

	var amount int64
	err := l.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		if ok, err := hasKey(ctx, tx, claimKey(user, eventID)); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("user %s event %d: %w", user, eventID, ErrAlreadyClaimed)
		}
		if _, err := tx.Get(ctx, eventRewardKey(eventID), &amount); err != nil {
			return err
		}
		if amount == 0 {
			return fmt.Errorf("event %d: %w", eventID, ErrNoRewardConfigured)
		}

		admin, err := l.admin(ctx, tx)
		if err != nil {
			return err
		}
		adminBalance, err := l.balance(ctx, tx, admin)
		if err != nil {
			return err
		}
		if adminBalance < amount {
			return fmt.Errorf("pool %d < reward %d: %w", adminBalance, amount, ErrInsufficientPool)
		}
		// The admin claiming from its own pool moves nothing; writing both
		// sides from the same stale read would inflate the balance.
		if user == admin {
			return tx.Put(ctx, claimKey(user, eventID), true)
		}
		userBalance, err := l.balance(ctx, tx, user)
		if err != nil {
			return err
		}

		if err := tx.Put(ctx, balanceKey(admin), adminBalance-amount); err != nil {
			return err
		}
		if err := tx.Put(ctx, balanceKey(user), userBalance+amount); err != nil {
			return err
		}
		return tx.Put(ctx, claimKey(user, eventID), true)
	})
	if err != nil {
		return 0, err
	}

	l.log.Info("reward claimed",
		zap.String("user", user),
		zap.Uint64("event_id", eventID),
		zap.Int64("amount", amount),
	)
	l.pub.Publish(ctx, "reward.claimed", map[string]any{
		"user": user, "event_id": eventID, "amount": amount,
	})
	return amount, nil
}

// BatchDistributeRewards pays the configured event reward to each recipient
// that has not yet claimed it, recording 0 for those who have. The up-front
// pool check multiplies the reward by the requested recipient count, not the
// eligible count, so a batch can be rejected even though skipping
// already-claimed entries would let it succeed.
func (l *RewardLedger) BatchDistributeRewards(ctx context.Context, admin string, eventID uint64, recipients []string) ([]int64, error) {
	if !l.gate.Authorized(ctx, admin) {
		return nil, fmt.Errorf("distribute rewards: %w", ErrUnauthorized)
	}

	amounts := make([]int64, 0, len(recipients))
	err := l.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := l.requireStoredAdmin(ctx, tx, admin); err != nil {
			return err
		}

		var reward int64
		if _, err := tx.Get(ctx, eventRewardKey(eventID), &reward); err != nil {
			return err
		}
		if reward == 0 {
			return fmt.Errorf("event %d: %w", eventID, ErrNoRewardConfigured)
		}

		adminBalance, err := l.balance(ctx, tx, admin)
		if err != nil {
			return err
		}
		// Division instead of multiplication: reward × count can wrap int64
		// and slip a huge payout past the check.
		if adminBalance/reward < int64(len(recipients)) {
			return fmt.Errorf("pool %d < %d rewards of %d: %w",
				adminBalance, len(recipients), reward, ErrInsufficientPool)
		}

		for _, recipient := range recipients {
			claimed, err := hasKey(ctx, tx, claimKey(recipient, eventID))
			if err != nil {
				return err
			}
			if claimed {
				amounts = append(amounts, 0)
				continue
			}
			// The admin paying itself is a net no-op on the pool; going
			// through the balance writes here would clobber the final pool
			// write below and break conservation.
			if recipient == admin {
				if err := tx.Put(ctx, claimKey(recipient, eventID), true); err != nil {
					return err
				}
				amounts = append(amounts, reward)
				continue
			}
			balance, err := l.balance(ctx, tx, recipient)
			if err != nil {
				return err
			}
			if err := tx.Put(ctx, balanceKey(recipient), balance+reward); err != nil {
				return err
			}
			if err := tx.Put(ctx, claimKey(recipient, eventID), true); err != nil {
				return err
			}
			adminBalance -= reward
			amounts = append(amounts, reward)
		}
		return tx.Put(ctx, balanceKey(admin), adminBalance)
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("rewards distributed",
		zap.Uint64("event_id", eventID),
		zap.Int("recipients", len(recipients)),
	)
	l.pub.Publish(ctx, "reward.distributed", map[string]any{
		"event_id": eventID, "amounts": amounts,
	})
	return amounts, nil
}

// Transfer moves tokens between principals. A transfer to oneself is
// validated like any other but writes nothing, so a stale double-read can
// never inflate the balance.
func (l *RewardLedger) Transfer(ctx context.Context, from, to string, amount int64) error {
	if !l.gate.Authorized(ctx, from) {
		return fmt.Errorf("transfer reward: %w", ErrUnauthorized)
	}
	if amount <= 0 {
		return fmt.Errorf("transfer amount %d: %w", amount, ErrInvalidAmount)
	}

	err := l.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		fromBalance, err := l.balance(ctx, tx, from)
		if err != nil {
			return err
		}
		if fromBalance < amount {
			return fmt.Errorf("balance %d < amount %d: %w", fromBalance, amount, ErrInsufficientBalance)
		}
		if from == to {
			return nil
		}
		toBalance, err := l.balance(ctx, tx, to)
		if err != nil {
			return err
		}
		if err := tx.Put(ctx, balanceKey(from), fromBalance-amount); err != nil {
			return err
		}
		return tx.Put(ctx, balanceKey(to), toBalance+amount)
	})
	if err != nil {
		return err
	}

	l.log.Info("reward transferred",
		zap.String("from", from),
		zap.String("to", to),
		zap.Int64("amount", amount),
	)
	l.pub.Publish(ctx, "reward.transferred", map[string]any{
		"from": from, "to": to, "amount": amount,
	})
	return nil
}

// Mint credits the admin balance and raises total supply by the same
// amount in one transaction. This is the only operation that changes total
// supply after Init.
func (l *RewardLedger) Mint(ctx context.Context, admin string, amount int64) error {
	if !l.gate.Authorized(ctx, admin) {
		return fmt.Errorf("mint reward: %w", ErrUnauthorized)
	}
	if amount <= 0 {
		return fmt.Errorf("mint amount %d: %w", amount, ErrInvalidAmount)
	}

	err := l.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := l.requireStoredAdmin(ctx, tx, admin); err != nil {
			return err
		}
		var info model.RewardTokenInfo
		ok, err := tx.Get(ctx, KeyRewardInfo, &info)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("reward ledger: %w", ErrNotInitialized)
		}
		// Supply is capped at MaxInt64; since every balance is at most the
		// supply, this also keeps the credit additions elsewhere from
		// wrapping.
		if amount > math.MaxInt64-info.TotalSupply {
			return fmt.Errorf("mint %d would overflow supply %d: %w",
				amount, info.TotalSupply, ErrInvalidAmount)
		}
		balance, err := l.balance(ctx, tx, admin)
		if err != nil {
			return err
		}
		info.TotalSupply += amount
		if err := tx.Put(ctx, KeyRewardInfo, info); err != nil {
			return err
		}
		return tx.Put(ctx, balanceKey(admin), balance+amount)
	})
	if err != nil {
		return err
	}

	l.log.Info("reward tokens minted",
		zap.String("admin", admin),
		zap.Int64("amount", amount),
	)
	l.pub.Publish(ctx, "reward.minted", map[string]any{"amount": amount})
	return nil
}

// Balance returns the principal's balance, zero if none recorded.
func (l *RewardLedger) Balance(ctx context.Context, principal string) (int64, error) {
	var balance int64
	err := l.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		balance, err = l.balance(ctx, tx, principal)
		return err
	})
	return balance, err
}

// TokenInfo returns the token record or ErrNotInitialized.
func (l *RewardLedger) TokenInfo(ctx context.Context) (*model.RewardTokenInfo, error) {
	var info model.RewardTokenInfo
	err := l.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		ok, err := tx.Get(ctx, KeyRewardInfo, &info)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("reward ledger: %w", ErrNotInitialized)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// HasClaimedReward reports whether the user already claimed for the event.
func (l *RewardLedger) HasClaimedReward(ctx context.Context, user string, eventID uint64) (bool, error) {
	var claimed bool
	err := l.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		claimed, err = hasKey(ctx, tx, claimKey(user, eventID))
		return err
	})
	return claimed, err
}

// GetEventReward returns the configured per-claim reward, zero if unset.
func (l *RewardLedger) GetEventReward(ctx context.Context, eventID uint64) (int64, error) {
	var amount int64
	err := l.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Get(ctx, eventRewardKey(eventID), &amount)
		return err
	})
	return amount, err
}

// GetAdmin returns the reward admin or ErrNotInitialized.
func (l *RewardLedger) GetAdmin(ctx context.Context) (string, error) {
	var admin string
	err := l.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		admin, err = l.admin(ctx, tx)
		return err
	})
	return admin, err
}

func (l *RewardLedger) balance(ctx context.Context, tx store.Tx, principal string) (int64, error) {
	var balance int64
	if _, err := tx.Get(ctx, balanceKey(principal), &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func (l *RewardLedger) admin(ctx context.Context, tx store.Tx) (string, error) {
	var admin string
	ok, err := tx.Get(ctx, KeyRewardAdmin, &admin)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("reward ledger: %w", ErrNotInitialized)
	}
	return admin, nil
}

func (l *RewardLedger) requireStoredAdmin(ctx context.Context, tx store.Tx, caller string) error {
	admin, err := l.admin(ctx, tx)
	if err != nil {
		return err
	}
	if admin != caller {
		return fmt.Errorf("only admin may perform this operation: %w", ErrUnauthorized)
	}
	return nil
}
