package tx

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "trustgate/pkg/domain-errors"
)

func TestMemoryRunner(t *testing.T) {
	t.Run("propagates fn error", func(t *testing.T) {
		r := NewMemoryRunner()
		boom := errors.New("boom")
		assert.ErrorIs(t, r.RunInTx(context.Background(), func(context.Context) error { return boom }), boom)
	})

	t.Run("nested calls join the outer unit", func(t *testing.T) {
		r := NewMemoryRunner()
		inner := false
		err := r.RunInTx(context.Background(), func(txCtx context.Context) error {
			return r.RunInTx(txCtx, func(context.Context) error {
				inner = true
				return nil
			})
		})
		require.NoError(t, err)
		assert.True(t, inner)
	})

	t.Run("serializes concurrent units", func(t *testing.T) {
		r := NewMemoryRunner()
		counter := 0
		var wg sync.WaitGroup
		for range 100 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = r.RunInTx(context.Background(), func(context.Context) error {
					v := counter
					counter = v + 1
					return nil
				})
			}()
		}
		wg.Wait()
		assert.Equal(t, 100, counter)
	})

	t.Run("cancelled context is a timeout", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewMemoryRunner().RunInTx(ctx, func(context.Context) error { return nil })
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})
}

func TestFromWithoutTx(t *testing.T) {
	_, ok := From(context.Background())
	assert.False(t, ok)
	assert.Equal(t, context.Background(), WithTx(context.Background(), nil))
}
