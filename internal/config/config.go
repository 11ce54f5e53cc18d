// Package config provides configuration for the playlist builder.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultChannelsURL is the iptv-org channel catalog.
	DefaultChannelsURL = "https://raw.githubusercontent.com/iptv-org/database/refs/heads/master/data/channels.csv"
	// DefaultStreamsURL is the iptv-org stream endpoint list.
	DefaultStreamsURL = "https://iptv-org.github.io/api/streams.json"
)

// MatchMode selects how the catalog language attribute is compared to the target value.
type MatchMode string

const (
	// MatchEquals selects rows whose whole language value equals the target.
	MatchEquals MatchMode = "equals"
	// MatchContains selects rows whose language value holds the target as one delimited token.
	MatchContains MatchMode = "contains"
)

// ParseMatchMode converts a flag value into a MatchMode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch mode := MatchMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case MatchEquals, MatchContains:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid match mode %q (want %q or %q)", s, MatchEquals, MatchContains)
	}
}

// Config holds the application configuration.
type Config struct {
	// Sources
	ChannelsURL string
	StreamsURL  string

	// Filter
	LanguageField string
	Language      string
	MatchMode     MatchMode

	// Output
	OutputPath      string
	FilteredCSVPath string
	MergedCSVPath   string

	LogLevel string

	FetchTimeout    time.Duration
	RefreshInterval time.Duration
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ChannelsURL:   DefaultChannelsURL,
		StreamsURL:    DefaultStreamsURL,
		LanguageField: "languages",
		Language:      "fas",
		MatchMode:     MatchContains,
		OutputPath:    "playlist.m3u",
		LogLevel:      "info",
		FetchTimeout:  5 * time.Minute,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.ChannelsURL == "" {
		return errors.New("--channels is required")
	}

	if err := validateLocation(c.ChannelsURL); err != nil {
		return fmt.Errorf("invalid channels source: %w", err)
	}

	if c.StreamsURL == "" {
		return errors.New("--streams is required")
	}

	if err := validateLocation(c.StreamsURL); err != nil {
		return fmt.Errorf("invalid streams source: %w", err)
	}

	if strings.TrimSpace(c.LanguageField) == "" {
		return errors.New("--language-field must not be empty")
	}

	if strings.TrimSpace(c.Language) == "" {
		return errors.New("--language must not be empty")
	}

	if _, err := ParseMatchMode(string(c.MatchMode)); err != nil {
		return err
	}

	if c.OutputPath == "" {
		return errors.New("--output is required")
	}

	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout)
	}

	if c.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval must not be negative, got %s", c.RefreshInterval)
	}

	return nil
}

// Periodic reports whether the builder should keep rebuilding after the first run.
func (c *Config) Periodic() bool {
	return c.RefreshInterval > 0
}

// validateLocation accepts http(s) URLs and local paths.
func validateLocation(loc string) error {
	if !IsRemote(loc) {
		return nil
	}

	u, err := url.Parse(loc)
	if err != nil {
		return err
	}

	if u.Host == "" {
		return fmt.Errorf("missing host in %q", loc)
	}

	return nil
}

// IsRemote reports whether loc should be fetched over HTTP rather than read from disk.
func IsRemote(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}
