package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// MinTokenSecretLength is the shortest accepted auth.token_secret.
const MinTokenSecretLength = 32

var (
	prefixPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	logLevels     = []string{"debug", "info", "warn", "error"}
	logFormats    = []string{"text", "json"}
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
//
// The token secret is optional here: the admin CLI never issues tokens.
// RequireTokenSecret is the extra check the HTTP server makes.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535 (got %d)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0 (got %s)", c.Server.ShutdownTimeout)
	}

	if err := c.Storage.validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	if c.Auth.TokenSecret != "" && len(c.Auth.TokenSecret) < MinTokenSecretLength {
		return fmt.Errorf("auth.token_secret must be at least %d characters (got %d)", MinTokenSecretLength, len(c.Auth.TokenSecret))
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be > 0 (got %s)", c.Auth.TokenTTL)
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be 4-31 (got %d)", c.Auth.BcryptCost)
	}

	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("log.level must be one of %v (got %q)", logLevels, c.Log.Level)
	}
	if !slices.Contains(logFormats, strings.ToLower(c.Log.Format)) {
		return fmt.Errorf("log.format must be one of %v (got %q)", logFormats, c.Log.Format)
	}

	return nil
}

// RequireTokenSecret fails when no session token secret is configured.
func (c *Config) RequireTokenSecret() error {
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("auth.token_secret is required to serve HTTP (set AUTH_TOKEN_SECRET)")
	}
	return nil
}

func (s *StorageConfig) validate() error {
	switch s.Driver {
	case DriverSQLite:
		if strings.TrimSpace(s.Path) == "" {
			return fmt.Errorf("path is required for the sqlite driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("driver must be %q or %q (got %q)", DriverSQLite, DriverMemory, s.Driver)
	}

	// The prefix becomes the first segment of every key, so it follows the
	// same character rules as user ids.
	if !prefixPattern.MatchString(s.Prefix) {
		return fmt.Errorf("prefix must match %s (got %q)", prefixPattern, s.Prefix)
	}
	if s.MaxPageCount < 0 {
		return fmt.Errorf("max_page_count must be >= 0 (got %d)", s.MaxPageCount)
	}
	if s.MemoryQuota < 0 {
		return fmt.Errorf("memory_quota must be >= 0 (got %d)", s.MemoryQuota)
	}
	return nil
}
