package fdset

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectorClosesEverythingOnCollect(t *testing.T) {

	r1, w1, err := os.Pipe()
	require.NoError(t, err)
	r2, w2, err := os.Pipe()
	require.NoError(t, err)

	c := New()
	c.Add(r1)
	c.Add(w1)
	c.Add(r2)
	c.Add(w2)
	require.Equal(t, 4, c.Len())

	c.Collect()
	require.Equal(t, 0, c.Len())

	// Closing an already-closed file returns an error; confirm Collect
	// actually closed them rather than just forgetting about them.
	require.Error(t, r1.Close())
}

func TestCollectorCollectIsIdempotent(t *testing.T) {
	c := New()
	c.Collect()
	c.Collect()
	require.Equal(t, 0, c.Len())
}

func TestCollectorRemoveDropsWithoutClosing(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	c := New()
	c.Add(r)
	c.Add(w)
	c.Remove(w)
	require.Equal(t, 1, c.Len())

	c.Collect()
	// w was removed before Collect, so it must still be open.
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
}

func TestCollectorAddIgnoresNil(t *testing.T) {
	c := New()
	c.Add(nil)
	require.Equal(t, 0, c.Len())
}
