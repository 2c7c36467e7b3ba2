package db

import (
	"strings"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/config"
)

type MariaDbConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ConfigFromSettings picks the MariaDB pool settings out of the service config.
func ConfigFromSettings(s *config.Settings) MariaDbConfig {
	return MariaDbConfig{
		DSN:             s.MariaDBDSN,
		MaxOpenConns:    s.MaxOpenConns,
		MaxIdleConns:    s.MaxIdleConns,
		ConnMaxLifetime: s.ConnMaxLifetime,
	}
}

// WithMultiStatements returns a copy whose DSN allows several statements per
// Exec, which the migration files need.
func (c MariaDbConfig) WithMultiStatements() MariaDbConfig {
	if strings.Contains(c.DSN, "multiStatements=") {
		return c
	}
	sep := "?"
	if strings.Contains(c.DSN, "?") {
		sep = "&"
	}
	c.DSN += sep + "multiStatements=true"
	return c
}
