package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/dhcpwire/internal/endpoint"
)

const defaultAdminAddr = "127.0.0.1:9067"

// listenConfig is everything "dhcpctl listen" needs.
type listenConfig struct {
	Endpoint    endpoint.Config
	AdminAddr   string
	CORSOrigins []string
}

func defaultListenConfig() listenConfig {
	return listenConfig{
		Endpoint:  endpoint.DefaultConfig(),
		AdminAddr: defaultAdminAddr,
	}
}

// dhcpctl config.toml key mapping to listener settings.
type fileConfig struct {
	Addr              string   `toml:"addr"`
	AdminAddr         string   `toml:"admin_addr"`
	AdminCORSOrigins  []string `toml:"admin_cors_origins"`
	ReadTimeout       string   `toml:"read_timeout"`
	WriteTimeout      string   `toml:"write_timeout"`
	MaxPacketSize     int      `toml:"max_packet_size"`
	Validate          bool     `toml:"validate"`
	BackoffInitial    string   `toml:"backoff_initial"`
	BackoffMax        string   `toml:"backoff_max"`
	BackoffMultiplier float64  `toml:"backoff_multiplier"`
	BackoffJitter     bool     `toml:"backoff_jitter"`
}

// loadListenConfig overlays the keys present in path on the defaults.
func loadListenConfig(path string) (listenConfig, error) {
	cfg := defaultListenConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return listenConfig{}, fmt.Errorf("load dhcpctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return listenConfig{}, fmt.Errorf("load dhcpctl config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("addr") {
		cfg.Endpoint.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("admin_cors_origins") {
		cfg.CORSOrigins = normalizeOrigins(raw.AdminCORSOrigins)
	}
	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"read_timeout", raw.ReadTimeout, &cfg.Endpoint.ReadTimeout},
		{"write_timeout", raw.WriteTimeout, &cfg.Endpoint.WriteTimeout},
		{"backoff_initial", raw.BackoffInitial, &cfg.Endpoint.Backoff.InitialDelay},
		{"backoff_max", raw.BackoffMax, &cfg.Endpoint.Backoff.MaxDelay},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return listenConfig{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}
	if meta.IsDefined("max_packet_size") {
		cfg.Endpoint.MaxPacketSize = raw.MaxPacketSize
	}
	if meta.IsDefined("validate") {
		cfg.Endpoint.Validate = raw.Validate
	}
	if meta.IsDefined("backoff_multiplier") {
		cfg.Endpoint.Backoff.Multiplier = raw.BackoffMultiplier
	}
	if meta.IsDefined("backoff_jitter") {
		cfg.Endpoint.Backoff.Jitter = raw.BackoffJitter
	}

	cfg.Endpoint = cfg.Endpoint.WithDefaults()
	if err := cfg.Endpoint.Check(); err != nil {
		return listenConfig{}, err
	}
	return cfg, nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		if v := strings.TrimRight(strings.TrimSpace(origin), "/"); v != "" {
			out = append(out, v)
		}
	}
	return out
}
