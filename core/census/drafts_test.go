package census

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrafts(t *testing.T) {
	ds := NewDrafts(newTestRegistry(t), time.Hour)

	d := ds.New()
	assert.NotEmpty(t, d.ID())
	assert.Equal(t, 1, ds.Count())

	got, err := ds.Get(d.ID())
	require.NoError(t, err)
	assert.Same(t, d, got)

	ds.Delete(d.ID())
	_, err = ds.Get(d.ID())
	assert.Equal(t, ErrDraftNotFound, err)
}

func TestDrafts_expire(t *testing.T) {
	ds := NewDrafts(newTestRegistry(t), 50*time.Millisecond)
	d := ds.New()

	// each access slides the expiration
	for i := 0; i < 3; i++ {
		time.Sleep(30 * time.Millisecond)
		_, err := ds.Get(d.ID())
		require.NoError(t, err)
	}

	time.Sleep(80 * time.Millisecond)
	_, err := ds.Get(d.ID())
	assert.Equal(t, ErrDraftNotFound, err)
}
