// Package config provides hierarchical configuration loading for SwarmForge.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the SwarmForge core service.
type Config struct {
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
	Cache    Cache    `yaml:"cache"`
	Pipeline Pipeline `yaml:"pipeline"`
	Swarm    Swarm    `yaml:"swarm"`
}

// Server holds HTTP gateway configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Cache holds archive cache configuration.
type Cache struct {
	MaxSizeMB int64 `yaml:"max_size_mb"`
}

// Pipeline holds agent names and archive behavior for the request pipeline.
type Pipeline struct {
	Coordinator string        `yaml:"coordinator"`
	Planner     string        `yaml:"planner"`
	Coder       string        `yaml:"coder"`
	Reviewer    string        `yaml:"reviewer"`
	Gateway     string        `yaml:"gateway"`
	User        string        `yaml:"user"`
	ArchiveTTL  time.Duration `yaml:"archive_ttl"`
}

// Swarm holds lifecycle configuration.
type Swarm struct {
	// Duration stops the swarm after it elapses; 0 runs until shutdown.
	Duration time.Duration `yaml:"duration"`
}

// Defaults returns a Config with sensible default values for local use.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
		},
		Logging: Logging{
			Level:   "info",
			Service: "swarmforge",
		},
		Cache: Cache{
			MaxSizeMB: 64,
		},
		Pipeline: Pipeline{
			Coordinator: "coordinator",
			Planner:     "planner",
			Coder:       "coder",
			Reviewer:    "reviewer",
			Gateway:     "gateway",
			User:        "user",
			ArchiveTTL:  time.Hour,
		},
		Swarm: Swarm{
			Duration: 0,
		},
	}
}
