package config

import (
	"github.com/spf13/viper"
)

// SetDefaults sets default configuration values
func SetDefaults(v *viper.Viper) {
	// Prompt defaults
	v.SetDefault("prompts.directories", []string{})
	v.SetDefault("prompts.defaults_dir", "")
	v.SetDefault("prompts.base_source", "")
	v.SetDefault("prompts.root_dir", "")
	v.SetDefault("prompts.recursion_depth", 3)
	v.SetDefault("prompts.cache", true)
	v.SetDefault("prompts.temp_ttl", "24h")
	v.SetDefault("prompts.watch_debounce", "250ms")

	// Store defaults
	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", DefaultStorePath())
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", AppName+":")

	// State defaults
	v.SetDefault("state.history_limit", 50)

	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "simple")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Health check defaults
	v.SetDefault("health.enabled", true)
}
