package server

import (
	"fmt"
	"time"

	// Embedded zone database so the reference timezone resolves in slim containers.
	_ "time/tzdata"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// BodyLimitMB caps request bodies, including multipart uploads.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"50"`
	// Timezone is the reference zone used to stamp record timestamps.
	Timezone string `mapstructure:"timezone" default:"America/Fortaleza"`
}

// Location resolves the configured reference time zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// BodyLimit returns the body limit in bytes.
func (c Config) BodyLimit() int {
	if c.BodyLimitMB <= 0 {
		return 4 * 1024 * 1024
	}
	return c.BodyLimitMB * 1024 * 1024
}
