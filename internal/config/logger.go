package config

import (
	"go.uber.org/zap"
)

// Build returns a development logger at the configured level.
func (l Logger) Build() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if l.Level != "" {
		level, err := zap.ParseAtomicLevel(l.Level)
		if err != nil {
			return nil, err
		}
		cfg.Level = level
	}
	return cfg.Build()
}
