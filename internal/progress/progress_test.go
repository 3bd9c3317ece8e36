package progress

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Run("empty path disables tracking", func(t *testing.T) {
		tr, err := Open("")
		require.NoError(t, err)
		assert.IsType(t, Disabled{}, tr)

		require.NoError(t, tr.Record("a"))
		assert.False(t, tr.Contains("a"))
		assert.Equal(t, 0, tr.Len())
		assert.NoError(t, tr.Close())
	})

	t.Run("creates missing log", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "nested", "completed.csv")
		tr, err := Open(p)
		require.NoError(t, err)
		defer tr.Close()

		assert.Equal(t, 0, tr.Len())
		_, err = os.Stat(p)
		assert.NoError(t, err)
	})

	t.Run("replays first field of each row", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "completed.csv")
		require.NoError(t, os.WriteFile(p, []byte("A\n\"C\",extra\n\n"), 0644))

		tr, err := Open(p)
		require.NoError(t, err)
		defer tr.Close()

		assert.True(t, tr.Contains("A"))
		assert.True(t, tr.Contains("C"))
		assert.False(t, tr.Contains("B"))
		assert.Equal(t, 2, tr.Len())
	})
}

func TestLog_Record(t *testing.T) {
	p := filepath.Join(t.TempDir(), "completed.csv")

	l, err := OpenLog(p)
	require.NoError(t, err)
	require.NoError(t, l.Record("ark:/21198/z1"))
	require.NoError(t, l.Record("B"))
	require.NoError(t, l.Record("B"))

	// durable before close
	bs, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "ark:/21198/z1\nB\n", string(bs))

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	reopened, err := OpenLog(p)
	require.NoError(t, err)
	defer reopened.Close()
	assert.True(t, reopened.Contains("ark:/21198/z1"))
	assert.True(t, reopened.Contains("B"))

	require.NoError(t, reopened.Record("C"))
	bs, err = os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "ark:/21198/z1\nB\nC\n", string(bs))
}

func TestLog_UnterminatedRow(t *testing.T) {
	p := filepath.Join(t.TempDir(), "completed.csv")
	require.NoError(t, os.WriteFile(p, []byte("A"), 0644))

	l, err := OpenLog(p)
	require.NoError(t, err)
	assert.True(t, l.Contains("A"))
	require.NoError(t, l.Record("B"))
	require.NoError(t, l.Close())

	bs, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "A\nB\n", string(bs))

	reopened, err := OpenLog(p)
	require.NoError(t, err)
	defer reopened.Close()
	assert.True(t, reopened.Contains("A"))
	assert.True(t, reopened.Contains("B"))
	assert.False(t, reopened.Contains("AB"))
	assert.Equal(t, 2, reopened.Len())
}
