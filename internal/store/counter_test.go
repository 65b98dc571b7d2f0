package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterStartsAtOne(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	c := NewCounter("test:counter")

	require.NoError(t, st.Update(ctx, func(ctx context.Context, tx Tx) error {
		id, err := c.Next(ctx, tx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), id)
		return nil
	}))
}

func TestCounterStrictlyIncreasing(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	c := NewCounter("test:counter")

	var ids []uint64
	for i := 0; i < 5; i++ {
		require.NoError(t, st.Update(ctx, func(ctx context.Context, tx Tx) error {
			id, err := c.Next(ctx, tx)
			require.NoError(t, err)
			ids = append(ids, id)
			return nil
		}))
	}
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, ids)
}

func TestCounterCurrentDoesNotConsume(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	c := NewCounter("test:counter")

	require.NoError(t, st.Update(ctx, func(ctx context.Context, tx Tx) error {
		_, err := c.Next(ctx, tx)
		return err
	}))

	require.NoError(t, st.View(ctx, func(ctx context.Context, tx Tx) error {
		cur, err := c.Current(ctx, tx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), cur)
		return nil
	}))

	require.NoError(t, st.Update(ctx, func(ctx context.Context, tx Tx) error {
		id, err := c.Next(ctx, tx)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), id)
		return nil
	}))
}

func TestCountersAreIndependent(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	a := NewCounter("counter:a")
	b := NewCounter("counter:b")

	require.NoError(t, st.Update(ctx, func(ctx context.Context, tx Tx) error {
		for i := 0; i < 3; i++ {
			if _, err := a.Next(ctx, tx); err != nil {
				return err
			}
		}
		id, err := b.Next(ctx, tx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), id)
		return nil
	}))
}

func TestCounterNotConsumedByFailedUpdate(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	c := NewCounter("test:counter")

	_ = st.Update(ctx, func(ctx context.Context, tx Tx) error {
		_, err := c.Next(ctx, tx)
		require.NoError(t, err)
		return assert.AnError
	})

	require.NoError(t, st.Update(ctx, func(ctx context.Context, tx Tx) error {
		id, err := c.Next(ctx, tx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), id, "rolled-back increment must not leak")
		return nil
	}))
}
