package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "THUMBNAILER"

// newViper returns a viper instance reading THUMBNAILER_* environment
// variables, with dashes in flag names mapped to underscores.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Resolve overlays flags and environment variables onto r. Values loaded
// from the config file only take effect when neither is set.
func (r *Reconcile) Resolve(flags *pflag.FlagSet) error {
	v := newViper()
	v.SetDefault("dir", r.Dir)
	v.SetDefault("csv", r.Inventory)
	v.SetDefault("path", r.Root)
	v.SetDefault("output", r.Output)
	v.SetDefault("ext", r.Extension)

	if err := v.BindPFlags(flags); err != nil {
		return err
	}
	return v.Unmarshal(r)
}

func (p *Publish) Resolve(flags *pflag.FlagSet) error {
	v := newViper()
	v.SetDefault("dir", p.Dir)
	v.SetDefault("size", p.Size)
	v.SetDefault("csv", p.Progress)
	v.SetDefault("repository", p.Repository)
	v.SetDefault("bucket", p.Bucket)
	v.SetDefault("region", p.Region)
	v.SetDefault("profile", p.Profile)
	v.SetDefault("endpoint", p.Endpoint)
	v.SetDefault("force-path-style", p.ForcePathStyle)
	v.SetDefault("prefix", p.Prefix)
	v.SetDefault("local-path", p.LocalPath)
	v.SetDefault("quality", p.Quality)
	v.SetDefault("report", p.Report)
	v.SetDefault("status-addr", p.StatusAddr)

	if err := v.BindPFlags(flags); err != nil {
		return err
	}
	return v.Unmarshal(p)
}

// Resolve takes the level from --log-level, THUMBNAILER_LOG_LEVEL or the
// config file, in that order.
func (l *Logger) Resolve(flags *pflag.FlagSet) error {
	v := newViper()
	v.SetDefault("log-level", l.Level)
	if f := flags.Lookup("log-level"); f != nil {
		if err := v.BindPFlag("log-level", f); err != nil {
			return err
		}
	}
	l.Level = v.GetString("log-level")
	return nil
}
