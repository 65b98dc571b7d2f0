package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectibleInitOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, allowAll{})

	require.NoError(t, f.collectibles.Init(ctx, "admin"))

	admin, err := f.collectibles.GetAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin", admin)

	err = f.collectibles.Init(ctx, "other")
	require.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestCollectibleUninitialized(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, allowAll{})

	_, err := f.collectibles.GetAdmin(ctx)
	require.ErrorIs(t, err, ErrNotInitialized)

	_, err = f.collectibles.MintEventNFT(ctx, "alice", 1, "Badge", "", "ipfs://x")
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestMintEventNFT(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, allowAll{})
	require.NoError(t, f.collectibles.Init(ctx, "admin"))

	tokenID, err := f.collectibles.MintEventNFT(ctx, "alice", 7, "Badge", "attendance badge", "ipfs://img")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tokenID)

	owner, err := f.collectibles.OwnerOf(ctx, tokenID)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	meta, err := f.collectibles.TokenMetadata(ctx, tokenID)
	require.NoError(t, err)
	assert.Equal(t, "Badge", meta.Name)
	assert.Equal(t, uint64(7), meta.EventID)
	assert.Equal(t, testTime, meta.MintTimestamp)

	owned, err := f.collectibles.TokensOfOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []uint64{tokenID}, owned)

	eventTokens, err := f.collectibles.EventNFTs(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []uint64{tokenID}, eventTokens)

	supply, err := f.collectibles.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), supply)

	exists, err := f.collectibles.TokenExists(ctx, tokenID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMintRequiresAdminAuthorization(t *testing.T) {
	ctx := context.Background()
	// Gate authorizes nobody: the stored admin fails its auth check.
	f := newFixture(t, allowGate{})
	require.NoError(t, f.collectibles.Init(ctx, "admin"))

	_, err := f.collectibles.MintEventNFT(ctx, "alice", 1, "Badge", "", "")
	require.ErrorIs(t, err, ErrUnauthorized)

	supply, err := f.collectibles.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Zero(t, supply)
}

func TestBatchMintOrderAndAtomicity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, allowAll{})
	require.NoError(t, f.collectibles.Init(ctx, "admin"))

	recipients := []string{"alice", "bob", "carol"}
	ids, err := f.collectibles.BatchMintEventNFTs(ctx, recipients, 3, "Badge", "", "ipfs://img")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids)

	for i, r := range recipients {
		owner, err := f.collectibles.OwnerOf(ctx, ids[i])
		require.NoError(t, err)
		assert.Equal(t, r, owner)
	}

	eventTokens, err := f.collectibles.EventNFTs(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, ids, eventTokens)
}

func TestBatchMintUnauthorizedLeavesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, allowGate{})
	require.NoError(t, f.collectibles.Init(ctx, "admin"))

	_, err := f.collectibles.BatchMintEventNFTs(ctx, []string{"alice", "bob"}, 3, "Badge", "", "")
	require.ErrorIs(t, err, ErrUnauthorized)

	supply, err := f.collectibles.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Zero(t, supply)

	tokens, err := f.collectibles.EventNFTs(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestTransferReassignsOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, allowAll{})
	require.NoError(t, f.collectibles.Init(ctx, "admin"))

	tokenID, err := f.collectibles.MintEventNFT(ctx, "alice", 1, "Badge", "", "")
	require.NoError(t, err)

	require.NoError(t, f.collectibles.Transfer(ctx, "alice", "bob", tokenID))

	owner, err := f.collectibles.OwnerOf(ctx, tokenID)
	require.NoError(t, err)
	assert.Equal(t, "bob", owner)

	aliceTokens, err := f.collectibles.TokensOfOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, aliceTokens)

	bobTokens, err := f.collectibles.TokensOfOwner(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []uint64{tokenID}, bobTokens)
}

func TestTransferRoundTripRestoresLists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, allowAll{})
	require.NoError(t, f.collectibles.Init(ctx, "admin"))

	var ids []uint64
	for i := 0; i < 3; i++ {
		id, err := f.collectibles.MintEventNFT(ctx, "alice", 1, "Badge", "", "")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	// Move the middle token to bob and back.
	require.NoError(t, f.collectibles.Transfer(ctx, "alice", "bob", ids[1]))
	require.NoError(t, f.collectibles.Transfer(ctx, "bob", "alice", ids[1]))

	owner, err := f.collectibles.OwnerOf(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	aliceTokens, err := f.collectibles.TokensOfOwner(ctx, "alice")
	require.NoError(t, err)
	// Same contents; the returned token re-enters at the tail.
	assert.ElementsMatch(t, ids, aliceTokens)
	assert.Equal(t, []uint64{ids[0], ids[2], ids[1]}, aliceTokens)

	bobTokens, err := f.collectibles.TokensOfOwner(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, bobTokens)
}

func TestTransferNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, allowAll{})
	require.NoError(t, f.collectibles.Init(ctx, "admin"))

	err := f.collectibles.Transfer(ctx, "alice", "bob", 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTransferNotOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, allowAll{})
	require.NoError(t, f.collectibles.Init(ctx, "admin"))

	tokenID, err := f.collectibles.MintEventNFT(ctx, "alice", 1, "Badge", "", "")
	require.NoError(t, err)

	err = f.collectibles.Transfer(ctx, "mallory", "bob", tokenID)
	require.ErrorIs(t, err, ErrUnauthorized)

	owner, err := f.collectibles.OwnerOf(ctx, tokenID)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)
}

func TestUpdateAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, allowAll{})
	require.NoError(t, f.collectibles.Init(ctx, "admin"))

	err := f.collectibles.UpdateAdmin(ctx, "mallory", "mallory")
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, f.collectibles.UpdateAdmin(ctx, "admin", "admin2"))
	admin, err := f.collectibles.GetAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin2", admin)

	// Old admin has lost its rights.
	_, err = f.collectibles.MintEventNFT(ctx, "alice", 1, "Badge", "", "")
	require.NoError(t, err) // allowAll gate: new admin authorizes

	err = f.collectibles.UpdateAdmin(ctx, "admin", "admin3")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenExistsFalseForUnminted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, allowAll{})
	require.NoError(t, f.collectibles.Init(ctx, "admin"))

	exists, err := f.collectibles.TokenExists(ctx, 42)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.collectibles.OwnerOf(ctx, 42)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.collectibles.TokenMetadata(ctx, 42)
	require.ErrorIs(t, err, ErrNotFound)
}
