package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kaizenhq/event-ledger/internal/model"
	"github.com/kaizenhq/event-ledger/internal/notify"
	"github.com/kaizenhq/event-ledger/internal/store"
)

// CollectibleRegistry owns token-id → owner and token-id → metadata records
// for attendance collectibles. Minting is admin-gated; a token has exactly
// one owner at a time, mirrored in the owner's relation list.
type CollectibleRegistry struct {
	store  store.Store
	gate   Gate
	clock  Clock
	pub    notify.Publisher
	log    *zap.Logger
	tokens store.Counter
}

// NewCollectibleRegistry constructs a CollectibleRegistry.
func NewCollectibleRegistry(st store.Store, gate Gate, clock Clock, pub notify.Publisher, log *zap.Logger) *CollectibleRegistry {
	return &CollectibleRegistry{
		store:  st,
		gate:   gate,
		clock:  clock,
		pub:    pub,
		log:    log.Named("collectible"),
		tokens: store.NewCounter(KeyNFTCounter),
	}
}

// Init records the minting admin. Calling it twice fails with
// ErrAlreadyInitialized.
func (r *CollectibleRegistry) Init(ctx context.Context, admin string) error {
	err := r.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		if ok, err := hasKey(ctx, tx, KeyNFTAdmin); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("collectible registry: %w", ErrAlreadyInitialized)
		}
		return tx.Put(ctx, KeyNFTAdmin, admin)
	})
	if err != nil {
		return err
	}
	r.log.Info("collectible registry initialized", zap.String("admin", admin))
	return nil
}

// MintEventNFT mints one collectible to the recipient for an event.
// Admin-only; returns the new token id.
func (r *CollectibleRegistry) MintEventNFT(ctx context.Context, to string, eventID uint64, name, description, image string) (uint64, error) {
	var tokenID uint64
	err := r.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := r.requireAdmin(ctx, tx); err != nil {
			return err
		}
		var err error
		tokenID, err = r.mintLocked(ctx, tx, to, eventID, name, description, image)
		return err
	})
	if err != nil {
		return 0, err
	}

	r.log.Info("collectible minted",
		zap.Uint64("token_id", tokenID),
		zap.Uint64("event_id", eventID),
		zap.String("to", to),
	)
	r.pub.Publish(ctx, "collectible.minted", map[string]any{
		"token_id": tokenID, "event_id": eventID, "to": to,
	})
	return tokenID, nil
}

// BatchMintEventNFTs mints one collectible per recipient in input order and
// returns the ids in the same order. The batch is a single atomic unit: a
// failure anywhere leaves nothing minted.
func (r *CollectibleRegistry) BatchMintEventNFTs(ctx context.Context, recipients []string, eventID uint64, name, description, image string) ([]uint64, error) {
	tokenIDs := make([]uint64, 0, len(recipients))
	err := r.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := r.requireAdmin(ctx, tx); err != nil {
			return err
		}
		for _, to := range recipients {
			id, err := r.mintLocked(ctx, tx, to, eventID, name, description, image)
			if err != nil {
				return err
			}
			tokenIDs = append(tokenIDs, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Info("collectibles batch minted",
		zap.Uint64("event_id", eventID),
		zap.Int("count", len(tokenIDs)),
	)
	r.pub.Publish(ctx, "collectible.batch_minted", map[string]any{
		"event_id": eventID, "token_ids": tokenIDs,
	})
	return tokenIDs, nil
}

// mintLocked allocates a token id and writes owner, metadata, and both
// relation lists. Caller must already hold a writable transaction and have
// checked admin authorization.
func (r *CollectibleRegistry) mintLocked(ctx context.Context, tx store.Tx, to string, eventID uint64, name, description, image string) (uint64, error) {
	tokenID, err := r.tokens.Next(ctx, tx)
	if err != nil {
		return 0, err
	}
	meta := model.CollectibleMetadata{
		Name:          name,
		Description:   description,
		Image:         image,
		EventID:       eventID,
		MintTimestamp: r.clock.Now(),
	}
	if err := tx.Put(ctx, nftOwnerKey(tokenID), to); err != nil {
		return 0, err
	}
	if err := tx.Put(ctx, nftMetaKey(tokenID), meta); err != nil {
		return 0, err
	}
	if err := store.IndexAppend(ctx, tx, ownerNFTsKey(to), tokenID); err != nil {
		return 0, err
	}
	if err := store.IndexAppend(ctx, tx, eventNFTsKey(eventID), tokenID); err != nil {
		return 0, err
	}
	return tokenID, nil
}

// Transfer reassigns a token to a new owner, detaching it from the old
// owner's list and appending it to the new owner's.
func (r *CollectibleRegistry) Transfer(ctx context.Context, from, to string, tokenID uint64) error {
	if !r.gate.Authorized(ctx, from) {
		return fmt.Errorf("transfer collectible: %w", ErrUnauthorized)
	}

	err := r.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		var owner string
		ok, err := tx.Get(ctx, nftOwnerKey(tokenID), &owner)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("token %d: %w", tokenID, ErrNotFound)
		}
		if owner != from {
			return fmt.Errorf("token %d is not owned by %s: %w", tokenID, from, ErrUnauthorized)
		}
		if err := tx.Put(ctx, nftOwnerKey(tokenID), to); err != nil {
			return err
		}
		if _, err := store.IndexRemoveFirst(ctx, tx, ownerNFTsKey(from), tokenID); err != nil {
			return err
		}
		return store.IndexAppend(ctx, tx, ownerNFTsKey(to), tokenID)
	})
	if err != nil {
		return err
	}

	r.log.Info("collectible transferred",
		zap.Uint64("token_id", tokenID),
		zap.String("from", from),
		zap.String("to", to),
	)
	r.pub.Publish(ctx, "collectible.transferred", map[string]any{
		"token_id": tokenID, "from": from, "to": to,
	})
	return nil
}

// UpdateAdmin hands minting rights to a new principal. Only the current
// admin may call it.
func (r *CollectibleRegistry) UpdateAdmin(ctx context.Context, currentAdmin, newAdmin string) error {
	if !r.gate.Authorized(ctx, currentAdmin) {
		return fmt.Errorf("update admin: %w", ErrUnauthorized)
	}

	err := r.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		admin, err := r.admin(ctx, tx)
		if err != nil {
			return err
		}
		if admin != currentAdmin {
			return fmt.Errorf("only admin may update admin: %w", ErrUnauthorized)
		}
		return tx.Put(ctx, KeyNFTAdmin, newAdmin)
	})
	if err != nil {
		return err
	}
	r.log.Info("collectible admin updated", zap.String("admin", newAdmin))
	return nil
}

// OwnerOf returns the current owner of a token or ErrNotFound.
func (r *CollectibleRegistry) OwnerOf(ctx context.Context, tokenID uint64) (string, error) {
	var owner string
	err := r.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		ok, err := tx.Get(ctx, nftOwnerKey(tokenID), &owner)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("token %d: %w", tokenID, ErrNotFound)
		}
		return nil
	})
	return owner, err
}

// TokenMetadata returns a token's metadata or ErrNotFound.
func (r *CollectibleRegistry) TokenMetadata(ctx context.Context, tokenID uint64) (*model.CollectibleMetadata, error) {
	var meta model.CollectibleMetadata
	err := r.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		ok, err := tx.Get(ctx, nftMetaKey(tokenID), &meta)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("token %d: %w", tokenID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// TokensOfOwner returns the token ids held by a principal in mint/transfer
// order.
func (r *CollectibleRegistry) TokensOfOwner(ctx context.Context, owner string) ([]uint64, error) {
	var tokens []uint64
	err := r.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		tokens, err = store.IndexList[uint64](ctx, tx, ownerNFTsKey(owner))
		return err
	})
	return tokens, err
}

// EventNFTs returns the token ids minted for an event in mint order.
func (r *CollectibleRegistry) EventNFTs(ctx context.Context, eventID uint64) ([]uint64, error) {
	var tokens []uint64
	err := r.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		tokens, err = store.IndexList[uint64](ctx, tx, eventNFTsKey(eventID))
		return err
	})
	return tokens, err
}

// TotalSupply returns the number of tokens ever minted.
func (r *CollectibleRegistry) TotalSupply(ctx context.Context) (uint64, error) {
	var supply uint64
	err := r.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		supply, err = r.tokens.Current(ctx, tx)
		return err
	})
	return supply, err
}

// TokenExists reports whether the token has been minted.
func (r *CollectibleRegistry) TokenExists(ctx context.Context, tokenID uint64) (bool, error) {
	var exists bool
	err := r.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		exists, err = hasKey(ctx, tx, nftOwnerKey(tokenID))
		return err
	})
	return exists, err
}

// GetAdmin returns the minting admin or ErrNotInitialized.
func (r *CollectibleRegistry) GetAdmin(ctx context.Context) (string, error) {
	var admin string
	err := r.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		admin, err = r.admin(ctx, tx)
		return err
	})
	return admin, err
}

// requireAdmin loads the stored admin and checks the gate for it.
func (r *CollectibleRegistry) requireAdmin(ctx context.Context, tx store.Tx) error {
	admin, err := r.admin(ctx, tx)
	if err != nil {
		return err
	}
	if !r.gate.Authorized(ctx, admin) {
		return fmt.Errorf("admin authorization required: %w", ErrUnauthorized)
	}
	return nil
}

func (r *CollectibleRegistry) admin(ctx context.Context, tx store.Tx) (string, error) {
	var admin string
	ok, err := tx.Get(ctx, KeyNFTAdmin, &admin)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("collectible registry: %w", ErrNotInitialized)
	}
	return admin, nil
}
