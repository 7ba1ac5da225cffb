package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "swarmforge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "SWARMFORGE_PORT")
	setString(&cfg.Server.CORSOrigin, "SWARMFORGE_CORS_ORIGIN")
	setString(&cfg.Logging.Level, "SWARMFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "SWARMFORGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "SWARMFORGE_LOG_ASYNC")
	setInt64(&cfg.Cache.MaxSizeMB, "SWARMFORGE_CACHE_SIZE_MB")
	setString(&cfg.Pipeline.Coordinator, "SWARMFORGE_PIPELINE_COORDINATOR")
	setString(&cfg.Pipeline.Planner, "SWARMFORGE_PIPELINE_PLANNER")
	setString(&cfg.Pipeline.Coder, "SWARMFORGE_PIPELINE_CODER")
	setString(&cfg.Pipeline.Reviewer, "SWARMFORGE_PIPELINE_REVIEWER")
	setString(&cfg.Pipeline.Gateway, "SWARMFORGE_PIPELINE_GATEWAY")
	setString(&cfg.Pipeline.User, "SWARMFORGE_PIPELINE_USER")
	setDuration(&cfg.Pipeline.ArchiveTTL, "SWARMFORGE_ARCHIVE_TTL")
	setDuration(&cfg.Swarm.Duration, "SWARMFORGE_SWARM_DURATION")
}

// validate checks that required fields are set and agent names are unique.
// Duplicate names would fail later at bus registration; catching them here
// surfaces the misconfiguration synchronously at load.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Cache.MaxSizeMB < 1 {
		return errors.New("cache.max_size_mb must be >= 1")
	}

	names := map[string]string{
		"pipeline.coordinator": cfg.Pipeline.Coordinator,
		"pipeline.planner":     cfg.Pipeline.Planner,
		"pipeline.coder":       cfg.Pipeline.Coder,
		"pipeline.reviewer":    cfg.Pipeline.Reviewer,
		"pipeline.gateway":     cfg.Pipeline.Gateway,
		"pipeline.user":        cfg.Pipeline.User,
	}
	seen := make(map[string]string, len(names))
	for field, name := range names {
		if name == "" {
			return fmt.Errorf("%s is required", field)
		}
		if other, dup := seen[name]; dup {
			return fmt.Errorf("%s and %s share agent name %q", field, other, name)
		}
		seen[name] = field
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
