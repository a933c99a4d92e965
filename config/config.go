// Package config holds runtime configuration. Values come from defaults,
// then environment variables, then command-line flags; there are no
// configuration files.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// Config holds all server configuration.
type Config struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxConnections int
	Env            string
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		Addr:           "127.0.0.1:8080",
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxConnections: 4096,
		Env:            "development",
	}
}

// LoadEnv applies environment overrides. PORT keeps the listen host and
// replaces only the port; ADDR replaces the whole address.
func (c *Config) LoadEnv() error {
	if addr := os.Getenv("ADDR"); addr != "" {
		c.Addr = addr
	}
	if port := os.Getenv("PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n <= 0 || n > 65535 {
			return fmt.Errorf("invalid PORT %q", port)
		}
		host := "127.0.0.1"
		if h, _, err := net.SplitHostPort(c.Addr); err == nil && h != "" {
			host = h
		}
		c.Addr = net.JoinHostPort(host, strconv.Itoa(n))
	}
	if env := os.Getenv("ENV"); env != "" {
		c.Env = env
	}
	if maxConns := os.Getenv("MAX_CONNECTIONS"); maxConns != "" {
		n, err := strconv.Atoi(maxConns)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid MAX_CONNECTIONS %q", maxConns)
		}
		c.MaxConnections = n
	}
	return nil
}
