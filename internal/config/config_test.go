package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewThumbnailerFromFile(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		c, err := NewThumbnailerFromFile("testdata/thumbnailer.yml")
		require.NoError(t, err)

		assert.Equal(t, "debug", c.Logger.Level)
		assert.Equal(t, "/sinai/cifsemel", c.Reconcile.Root)
		assert.Equal(t, DefaultExtension, c.Reconcile.Extension)
		assert.Equal(t, "200,", c.Publish.Size)
		assert.Equal(t, "us-west-2", c.Publish.Region)
		assert.Equal(t, RepositoryS3, c.Publish.Repository)
		assert.Equal(t, 80, c.Publish.Quality)
		assert.NoError(t, c.Reconcile.Validate())
		assert.NoError(t, c.Publish.Validate())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewThumbnailerFromFile("testdata/missing.yml")
		assert.Error(t, err)
	})

	t.Run("empty path loads defaults", func(t *testing.T) {
		c, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DefaultRegion, c.Publish.Region)
		assert.Equal(t, DefaultQuality, c.Publish.Quality)
	})
}

func TestValidate(t *testing.T) {
	r := Reconcile{Dir: "d", Inventory: "i", Root: "/r", Output: "o"}
	assert.NoError(t, r.Validate())

	noRoot := r
	noRoot.Root = ""
	err := noRoot.Validate()
	assert.ErrorIs(t, err, ErrMissing)
	assert.Contains(t, err.Error(), "--path")

	p := Default().Publish
	p.Dir = "jobs"
	p.Size = "200,"
	assert.ErrorIs(t, p.Validate(), ErrMissing)

	p.Bucket = "b"
	assert.NoError(t, p.Validate())

	p.Repository = RepositoryLocal
	assert.ErrorIs(t, p.Validate(), ErrMissing)
	p.LocalPath = "/tmp/out"
	assert.NoError(t, p.Validate())

	p.Repository = RepositoryStdout
	assert.NoError(t, p.Validate())

	p.Repository = "ftp"
	assert.Error(t, p.Validate())

	p.Repository = RepositoryS3
	p.Quality = 0
	assert.Error(t, p.Validate())
}

func publishFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("publish", pflag.ContinueOnError)
	flags.StringP("dir", "d", "", "")
	flags.StringP("size", "s", "", "")
	flags.StringP("bucket", "b", "", "")
	flags.StringP("region", "r", DefaultRegion, "")
	flags.Bool("force-path-style", false, "")
	flags.Int("quality", DefaultQuality, "")
	flags.String("log-level", "", "")
	return flags
}

func TestPublish_Resolve(t *testing.T) {
	t.Run("flags override file", func(t *testing.T) {
		c, err := NewThumbnailerFromFile("testdata/thumbnailer.yml")
		require.NoError(t, err)

		flags := publishFlags()
		require.NoError(t, flags.Parse([]string{"--bucket", "other", "--force-path-style"}))
		require.NoError(t, c.Publish.Resolve(flags))

		assert.Equal(t, "other", c.Publish.Bucket)
		assert.True(t, c.Publish.ForcePathStyle)
		assert.Equal(t, "us-west-2", c.Publish.Region)
		assert.Equal(t, "/data/completed.csv", c.Publish.Progress)
		assert.Equal(t, 80, c.Publish.Quality)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("THUMBNAILER_REGION", "eu-west-1")
		t.Setenv("THUMBNAILER_QUALITY", "70")

		c, err := NewThumbnailerFromFile("testdata/thumbnailer.yml")
		require.NoError(t, err)

		flags := publishFlags()
		require.NoError(t, flags.Parse(nil))
		require.NoError(t, c.Publish.Resolve(flags))
		assert.Equal(t, "eu-west-1", c.Publish.Region)
		assert.Equal(t, 70, c.Publish.Quality)
	})

	t.Run("flag defaults without file", func(t *testing.T) {
		p := Default().Publish
		flags := publishFlags()
		require.NoError(t, flags.Parse([]string{"-d", "jobs", "-s", "!100,100", "-b", "thumbs"}))
		require.NoError(t, p.Resolve(flags))

		assert.Equal(t, "jobs", p.Dir)
		assert.Equal(t, "!100,100", p.Size)
		assert.Equal(t, DefaultRegion, p.Region)
		assert.NoError(t, p.Validate())
	})
}

func TestLogger_Resolve(t *testing.T) {
	l := Logger{Level: "info"}
	flags := publishFlags()
	require.NoError(t, flags.Parse([]string{"--log-level", "warn"}))
	require.NoError(t, l.Resolve(flags))
	assert.Equal(t, "warn", l.Level)

	logger, err := l.Build()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = Logger{Level: "loud"}.Build()
	assert.Error(t, err)
}
