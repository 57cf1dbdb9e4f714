package inmemdb

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/censo/core"
)

func TestDB_GetSet(t *testing.T) {
	ctx := context.Background()
	db := Open()

	_, err := db.Get(ctx, "missing")
	assert.Equal(t, core.ErrKeyNotFound, err)

	val := []byte("true")
	require.NoError(t, db.Set(ctx, core.KeyAdminAuthenticated, val))
	val[0] = 'X' // stored value must not alias the caller's slice

	got, err := db.Get(ctx, core.KeyAdminAuthenticated)
	require.NoError(t, err)
	assert.Equal(t, "true", string(got))

	db.Delete(core.KeyAdminAuthenticated)
	_, err = db.Get(ctx, core.KeyAdminAuthenticated)
	assert.Equal(t, core.ErrKeyNotFound, err)
}

func TestDB_Update(t *testing.T) {
	ctx := context.Background()
	db := Open()

	t.Run("abort keeps value", func(t *testing.T) {
		require.NoError(t, db.Set(ctx, "k", []byte("1")))
		boom := errors.New("boom")
		err := db.Update(ctx, "k", func([]byte) ([]byte, error) { return []byte("2"), boom })
		assert.Equal(t, boom, err)
		got, _ := db.Get(ctx, "k")
		assert.Equal(t, "1", string(got))
	})

	t.Run("missing key receives nil", func(t *testing.T) {
		err := db.Update(ctx, "new", func(current []byte) ([]byte, error) {
			assert.Nil(t, current)
			return []byte("v"), nil
		})
		require.NoError(t, err)
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		require.NoError(t, db.Set(ctx, "counter", []byte("0")))
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = db.Update(ctx, "counter", func(current []byte) ([]byte, error) {
					n, _ := strconv.Atoi(string(current))
					return []byte(strconv.Itoa(n + 1)), nil
				})
			}()
		}
		wg.Wait()
		got, _ := db.Get(ctx, "counter")
		assert.Equal(t, "50", string(got))
	})
}
