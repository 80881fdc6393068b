// Package config loads the static cluster configuration described in
// spec.md §6.4: the ordered server list, the address-space size, the
// cache size, and the timeouts that govern peer RPCs and remote leases.
// The configuration is identical across every member of the cluster
// except for ServerIndex, which fixes one process's identity.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds everything a member process needs to know at startup.
// Every field is read once; the cluster's server list and address
// partitioning never change at runtime (§1 Non-goals: dynamic membership).
type Config struct {
	// ServerIndex is this process's position in Servers. It fixes both
	// the listening endpoint and the owned address range
	// [i*(MemorySize/N), (i+1)*(MemorySize/N)).
	ServerIndex int `env:"MEMBER_INDEX,required"`

	// Servers is the ordered, comma-separated list of "host:port" peer
	// endpoints. Identical on every member.
	Servers string `env:"MEMBER_SERVERS,required"`

	// MemorySize is the size of the flat global address space [0, MemorySize).
	MemorySize int `env:"MEMORY_SIZE" envDefault:"300"`

	// CacheSize is the number of slots in each member's direct-mapped cache.
	CacheSize int `env:"CACHE_SIZE" envDefault:"32"`

	// ConnectionTimeout bounds an outbound peer dial (§5 Cancellation and timeouts).
	ConnectionTimeout time.Duration `env:"CONNECTION_TIMEOUT" envDefault:"5s"`

	// LeaseTimeout is the default lease duration used when a remote read
	// needs to lease-lock the home server (§4.4 step 3).
	LeaseTimeout time.Duration `env:"LEASE_TIMEOUT" envDefault:"5s"`

	// MetricsAddr is where this member exposes Prometheus metrics.
	// This is operator tooling, not part of the client wire protocol.
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`

	// AcceptRate and AcceptBurst shape the connection acceptor (glue
	// concern, §2 table row "Connection acceptor").
	AcceptRate  float64 `env:"ACCEPT_RATE" envDefault:"500"`
	AcceptBurst int     `env:"ACCEPT_BURST" envDefault:"200"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// ServerList splits Servers into its ordered endpoint slice.
func (c *Config) ServerList() []string {
	parts := strings.Split(c.Servers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SelfEndpoint returns this member's own "host:port" endpoint.
func (c *Config) SelfEndpoint() string {
	servers := c.ServerList()
	if c.ServerIndex < 0 || c.ServerIndex >= len(servers) {
		return ""
	}
	return servers[c.ServerIndex]
}

// LoadConfig reads configuration from an optional .env file and then from
// the process environment (environment variables win). Priority: ENV vars
// > .env file > defaults, matching the teacher's LoadConfig.
func LoadConfig(logger *zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if logger != nil {
			logger.Info().Msg("no .env file found, using environment variables only")
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	servers := c.ServerList()
	if len(servers) < 2 {
		return fmt.Errorf("MEMBER_SERVERS must list at least 2 peer endpoints, got %d", len(servers))
	}
	if c.ServerIndex < 0 || c.ServerIndex >= len(servers) {
		return fmt.Errorf("MEMBER_INDEX %d out of range for %d servers", c.ServerIndex, len(servers))
	}
	if c.MemorySize <= 0 {
		return fmt.Errorf("MEMORY_SIZE must be > 0, got %d", c.MemorySize)
	}
	if c.MemorySize%len(servers) != 0 {
		return fmt.Errorf("MEMORY_SIZE (%d) must be evenly divisible by the number of servers (%d)", c.MemorySize, len(servers))
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("CACHE_SIZE must be > 0, got %d", c.CacheSize)
	}
	if c.ConnectionTimeout <= 0 {
		return fmt.Errorf("CONNECTION_TIMEOUT must be > 0, got %s", c.ConnectionTimeout)
	}
	if c.LeaseTimeout <= 0 {
		return fmt.Errorf("LEASE_TIMEOUT must be > 0, got %s", c.LeaseTimeout)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error (got: %s)", c.LogLevel)
	}
	validLogFormats := map[string]bool{"json": true, "pretty": true}
	if !validLogFormats[c.LogFormat] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, pretty (got: %s)", c.LogFormat)
	}

	return nil
}

// Print writes a human-readable configuration dump to stdout, for
// local/startup debugging before the structured logger is wired up.
func (c *Config) Print() {
	fmt.Println("=== Member Configuration ===")
	fmt.Printf("Server index:      %d\n", c.ServerIndex)
	fmt.Printf("Self endpoint:     %s\n", c.SelfEndpoint())
	fmt.Printf("Servers:           %v\n", c.ServerList())
	fmt.Printf("Memory size:       %d\n", c.MemorySize)
	fmt.Printf("Cache size:        %d\n", c.CacheSize)
	fmt.Printf("Connection timeout: %s\n", c.ConnectionTimeout)
	fmt.Printf("Lease timeout:     %s\n", c.LeaseTimeout)
	fmt.Printf("Metrics addr:      %s\n", c.MetricsAddr)
	fmt.Println("=============================")
}

// LogConfig emits the same information via structured logging.
func (c *Config) LogConfig(logger zerolog.Logger) {
	logger.Info().
		Int("server_index", c.ServerIndex).
		Str("self_endpoint", c.SelfEndpoint()).
		Strs("servers", c.ServerList()).
		Int("memory_size", c.MemorySize).
		Int("cache_size", c.CacheSize).
		Dur("connection_timeout", c.ConnectionTimeout).
		Dur("lease_timeout", c.LeaseTimeout).
		Str("metrics_addr", c.MetricsAddr).
		Msg("member configuration loaded")
}
