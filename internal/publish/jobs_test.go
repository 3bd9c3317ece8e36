package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJobs(t *testing.T) {
	jobs, skipped, err := ReadJobs(strings.NewReader("A,/images/a.tif\nbroken\n\"B\",\"/images/b, copy.tif\",extra\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, []Job{
		{ID: "A", Path: "/images/a.tif"},
		{ID: "B", Path: "/images/b, copy.tif"},
	}, jobs)
}

func TestLoadJobs(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "1.csv")
	second := filepath.Join(dir, "2.csv")
	require.NoError(t, os.WriteFile(first, []byte("A,/a.tif\n"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("B,/b.tif\n"), 0644))

	t.Run("keeps source order", func(t *testing.T) {
		jobs, err := LoadJobs([]string{second, first}, nil)
		require.NoError(t, err)
		assert.Equal(t, []Job{{ID: "B", Path: "/b.tif"}, {ID: "A", Path: "/a.tif"}}, jobs)
	})

	t.Run("missing source", func(t *testing.T) {
		missing := filepath.Join(dir, "missing.csv")
		_, err := LoadJobs([]string{first, missing}, nil)
		assert.ErrorIs(t, err, ErrJobSource)
		assert.Contains(t, err.Error(), missing)
	})
}
