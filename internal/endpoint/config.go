package endpoint

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

const (
	ServerPort = 67
	ClientPort = 68

	// MinPacketSize is the datagram every DHCP participant must accept.
	MinPacketSize = 576
)

var ErrInvalidConfig = errors.New("endpoint: invalid config")

// BackoffConfig defines retry backoff behavior for transient read errors.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines the UDP listener.
type Config struct {
	Addr          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxPacketSize int
	Validate      bool
	Backoff       BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		Addr:          fmt.Sprintf(":%d", ServerPort),
		ReadTimeout:   time.Second,
		WriteTimeout:  5 * time.Second,
		MaxPacketSize: 1500,
		Validate:      true,
		Backoff: BackoffConfig{
			InitialDelay: 50 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     2 * time.Second,
			Jitter:       true,
		},
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = def.Addr
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.MaxPacketSize <= 0 {
		c.MaxPacketSize = def.MaxPacketSize
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff.InitialDelay = def.Backoff.InitialDelay
	}
	if c.Backoff.Multiplier <= 0 {
		c.Backoff.Multiplier = def.Backoff.Multiplier
	}
	if c.Backoff.MaxDelay <= 0 {
		c.Backoff.MaxDelay = def.Backoff.MaxDelay
	}
	return c
}

func (c Config) Check() error {
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("%w: addr %q: %v", ErrInvalidConfig, c.Addr, err)
	}
	if c.MaxPacketSize < MinPacketSize {
		return fmt.Errorf("%w: max_packet_size %d below %d", ErrInvalidConfig, c.MaxPacketSize, MinPacketSize)
	}
	if c.Backoff.MaxDelay < c.Backoff.InitialDelay {
		return fmt.Errorf("%w: backoff max_delay below initial_delay", ErrInvalidConfig)
	}
	return nil
}
