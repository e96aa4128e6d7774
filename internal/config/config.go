// Package config loads snapledger configuration with priority
// env > file > defaults, then validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after creation.
type Config struct {
	Store        StoreConfig        `json:"store" yaml:"store"`
	Registry     RegistryConfig     `json:"registry" yaml:"registry"`
	Equivalence  EquivalenceConfig  `json:"equivalence" yaml:"equivalence"`
	Family       FamilyConfig       `json:"family" yaml:"family"`
	Availability AvailabilityConfig `json:"availability" yaml:"availability"`
	Planner      PlannerConfig      `json:"planner" yaml:"planner"`
	Log          LogConfig          `json:"log" yaml:"log"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `json:"path" yaml:"path" validate:"required"`
}

// RegistryConfig bounds registry listings.
type RegistryConfig struct {
	ListLimit    int `json:"list_limit" yaml:"list_limit" validate:"gte=1"`
	MaxListLimit int `json:"max_list_limit" yaml:"max_list_limit" validate:"gte=1,gtefield=ListLimit"`
}

// EquivalenceConfig bounds equivalence closures.
type EquivalenceConfig struct {
	MaxNodes int `json:"max_nodes" yaml:"max_nodes" validate:"gte=1"`
}

// FamilyConfig bounds family listings.
type FamilyConfig struct {
	UnlinkedCap int `json:"unlinked_cap" yaml:"unlinked_cap" validate:"gte=1"`
}

// AvailabilityConfig controls calendar caching and preflight fan-out.
// Dir, when set, serves availability from <dir>/<owner>/<address>.yaml.
type AvailabilityConfig struct {
	Dir         string        `json:"dir" yaml:"dir"`
	CacheTTL    time.Duration `json:"cache_ttl" yaml:"cache_ttl" validate:"gt=0"`
	Concurrency int           `json:"concurrency" yaml:"concurrency" validate:"gte=1,lte=64"`
}

// PlannerConfig points at the MECE policy. An empty path means no
// partition is ever marginalized.
type PlannerConfig struct {
	PolicyPath string `json:"policy_path" yaml:"policy_path"`
}

// LogConfig selects the zap preset and level.
type LogConfig struct {
	Mode  string `json:"mode" yaml:"mode" validate:"oneof=dev development prod production"`
	Level string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store:        StoreConfig{Path: "snapledger.db"},
		Registry:     RegistryConfig{ListLimit: 100, MaxListLimit: 1000},
		Equivalence:  EquivalenceConfig{MaxNodes: 500},
		Family:       FamilyConfig{UnlinkedCap: 50},
		Availability: AvailabilityConfig{CacheTTL: 5 * time.Minute, Concurrency: 4},
		Log:          LogConfig{Mode: "dev", Level: "info"},
	}
}

var validate = validator.New()

// Load builds the configuration from defaults, the YAML file at path
// (skipped when path is empty) and SNAPLEDGER_* environment variables.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	num := func(name string, dst *int) {
		v, ok := lookup(name)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*dst = i
	}

	str("SNAPLEDGER_DB", &cfg.Store.Path)
	num("SNAPLEDGER_LIST_LIMIT", &cfg.Registry.ListLimit)
	num("SNAPLEDGER_MAX_LIST_LIMIT", &cfg.Registry.MaxListLimit)
	num("SNAPLEDGER_MAX_NODES", &cfg.Equivalence.MaxNodes)
	num("SNAPLEDGER_UNLINKED_CAP", &cfg.Family.UnlinkedCap)
	num("SNAPLEDGER_CONCURRENCY", &cfg.Availability.Concurrency)
	str("SNAPLEDGER_AVAILABILITY_DIR", &cfg.Availability.Dir)
	str("SNAPLEDGER_POLICY", &cfg.Planner.PolicyPath)
	str("SNAPLEDGER_LOG_MODE", &cfg.Log.Mode)
	str("SNAPLEDGER_LOG_LEVEL", &cfg.Log.Level)

	if v, ok := lookup("SNAPLEDGER_CACHE_TTL"); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("SNAPLEDGER_CACHE_TTL: %w", err))
		} else {
			cfg.Availability.CacheTTL = d
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}

// Validate checks every section against its constraints.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.ActualTag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
