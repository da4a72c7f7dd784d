package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and are replaced by defaults in cmd.
type Config struct {
	Addr        string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir   string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	GrammarsDir string `json:"grammars_dir" yaml:"grammars_dir" toml:"grammars_dir"`

	DefaultModel string `json:"default_model" yaml:"default_model" toml:"default_model"`
	LicenseKey   string `json:"license_key" yaml:"license_key" toml:"license_key"`

	// Orchestrator tunables, in seconds.
	IdleTimeoutS   int `json:"idle_timeout_s" yaml:"idle_timeout_s" toml:"idle_timeout_s"`
	CollapseGraceS int `json:"collapse_grace_s" yaml:"collapse_grace_s" toml:"collapse_grace_s"`
	GenTimeoutS    int `json:"generate_timeout_s" yaml:"generate_timeout_s" toml:"generate_timeout_s"`
	SweepIntervalS int `json:"sweep_interval_s" yaml:"sweep_interval_s" toml:"sweep_interval_s"`

	// LogLevel is one of debug|info|warn|error.
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`

	// CORSOrigins lists browser origins allowed to call the API; empty
	// leaves CORS disabled.
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`

	// Collaborator storage.
	ContextDBPath   string `json:"context_db_path" yaml:"context_db_path" toml:"context_db_path"`
	VoiceCacheDir   string `json:"voice_cache_dir" yaml:"voice_cache_dir" toml:"voice_cache_dir"`
	VoiceCacheMB    int    `json:"voice_cache_mb" yaml:"voice_cache_mb" toml:"voice_cache_mb"`
	VoiceCacheFiles int    `json:"voice_cache_files" yaml:"voice_cache_files" toml:"voice_cache_files"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
