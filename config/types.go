package config

import "strings"

// Logging controls the structured log sink. An empty File logs to stdout.
type Logging struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
	Compress   bool   `toml:"Compress"`
}

func (l *Logging) applyDefaults() {
	if strings.TrimSpace(l.Level) == "" {
		l.Level = "info"
	}
	if l.MaxSizeMB == 0 {
		l.MaxSizeMB = 100
	}
	if l.MaxBackups == 0 {
		l.MaxBackups = 5
	}
	if l.MaxAgeDays == 0 {
		l.MaxAgeDays = 28
	}
}

// RateLimit throttles claim submissions per client address.
type RateLimit struct {
	RatePerSecond float64 `toml:"RatePerSecond"`
	Burst         int     `toml:"Burst"`
	// MaxClients bounds the number of tracked limiter buckets.
	MaxClients int `toml:"MaxClients"`
}

func (r *RateLimit) applyDefaults() {
	if r.RatePerSecond == 0 {
		r.RatePerSecond = 5
	}
	if r.Burst == 0 {
		r.Burst = 10
	}
	if r.MaxClients == 0 {
		r.MaxClients = 10000
	}
}
