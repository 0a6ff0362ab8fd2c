package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charlesng35/userprofile/internal/auth"
	"github.com/charlesng35/userprofile/internal/cache"
	"github.com/charlesng35/userprofile/internal/modules"
	"github.com/charlesng35/userprofile/internal/services"
)

// RedisClientConfig returns the connection options of the Redis cache.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	r := c.Redis
	return cache.RedisConfig{
		Address:  strings.TrimSpace(r.Address),
		Username: strings.TrimSpace(r.Username),
		Password: r.Password,
		DB:       r.DB,
		TLS:      r.TLS,
		Timeout:  r.Timeout,
	}
}

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// BootstrapAdmin converts the bootstrap settings for services.EnsureBootstrapAdmin.
func (c AuthConfig) BootstrapAdmin() services.BootstrapAdmin {
	return services.BootstrapAdmin{
		Email:    strings.TrimSpace(c.Bootstrap.Email),
		Name:     strings.TrimSpace(c.Bootstrap.Name),
		Password: c.Bootstrap.Password,
	}
}

// RateWindow returns the rate limit window, defaulting to one minute.
func (c RateLimitSettings) RateWindow() time.Duration {
	if c.Window <= 0 {
		return time.Minute
	}
	return c.Window
}

// CompanionModules converts the configured companion modules.
func (c ModulesConfig) CompanionModules() []modules.Companion {
	out := make([]modules.Companion, 0, len(c.Companions))
	for _, companion := range c.Companions {
		out = append(out, modules.Companion{
			ID:      strings.TrimSpace(companion.ID),
			Version: strings.TrimSpace(companion.Version),
			Active:  companion.Active,
		})
	}
	return out
}

// InstallerOptions assembles the installer options, reading the default field list
// from profile.elements_file when one is configured.
func (c *Config) InstallerOptions() (modules.Options, error) {
	opts := modules.Options{DefaultFormat: c.Profile.ElementsFormat}
	for _, dep := range c.Modules.Dependencies {
		opts.Dependencies = append(opts.Dependencies, modules.Dependency{
			Module:     strings.TrimSpace(dep.Module),
			MinVersion: strings.TrimSpace(dep.MinVersion),
		})
	}

	if path := strings.TrimSpace(c.Profile.ElementsFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return modules.Options{}, fmt.Errorf("read profile.elements_file: %w", err)
		}
		opts.DefaultElements = string(data)
	}
	return opts, nil
}
