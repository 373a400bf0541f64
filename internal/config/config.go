// Package config defines the rfmboard.yaml project configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. RFMBOARD_SERVER__ADDR.
const EnvPrefix = "RFMBOARD_"

// Config is the top-level rfmboard.yaml configuration.
type Config struct {
	Data   DataConfig   `koanf:"data" yaml:"data"`
	Report ReportConfig `koanf:"report" yaml:"report"`
	Server ServerConfig `koanf:"server" yaml:"server"`
	Git    GitConfig    `koanf:"git" yaml:"git"`
}

// DataConfig names the flat files of one project.
type DataConfig struct {
	RawPath       string `koanf:"raw_path" yaml:"raw_path"`
	CleanedPath   string `koanf:"cleaned_path" yaml:"cleaned_path"`
	SegmentedPath string `koanf:"segmented_path" yaml:"segmented_path"`
	ExportDir     string `koanf:"export_dir" yaml:"export_dir"`
	// ReferenceDate fixes "today" for age derivation, "YYYY-MM-DD".
	// Empty means the current date at run time.
	ReferenceDate string `koanf:"reference_date" yaml:"reference_date"`
}

// ReportConfig controls the derived views.
type ReportConfig struct {
	TopN         int `koanf:"top_n" yaml:"top_n"`
	TopLocations int `koanf:"top_locations" yaml:"top_locations"`
}

// ServerConfig controls the serve command.
type ServerConfig struct {
	Addr        string `koanf:"addr" yaml:"addr"`
	MaxTopLimit int    `koanf:"max_top_limit" yaml:"max_top_limit"`
}

// GitConfig controls git snapshots of generated output.
type GitConfig struct {
	AutoCommit  bool   `koanf:"auto_commit" yaml:"auto_commit"`
	AuthorName  string `koanf:"author_name" yaml:"author_name"`
	AuthorEmail string `koanf:"author_email" yaml:"author_email"`
}

// Default returns the configuration written by `rfmboard init`.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			RawPath:       "data/bank_transactions.csv",
			CleanedPath:   "output/cleaned_data.csv",
			SegmentedPath: "output/rfm_segmented.csv",
			ExportDir:     "exports",
		},
		Report: ReportConfig{
			TopN:         10,
			TopLocations: 10,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			MaxTopLimit: 100,
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "rfmboard",
			AuthorEmail: "rfmboard@banktrust.dev",
		},
	}
}

// Load builds a Config by layering, lowest to highest precedence:
// defaults, the YAML file at path (if it exists), then RFMBOARD_* environment
// variables. Env keys use "__" for nesting: RFMBOARD_DATA__RAW_PATH.
func Load(path string) (*Config, error) {
	cfg := Default()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("loading config %s: %w", path, err)
			}
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Report.TopN < 1 {
		return nil, errors.New("report.top_n must be at least 1")
	}
	if cfg.Server.Addr == "" {
		return nil, errors.New("server.addr must not be empty")
	}
	return cfg, nil
}

// envKey maps RFMBOARD_DATA__RAW_PATH to "data.raw_path". Double underscore
// separates nesting levels; single underscores belong to the field name.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes a Config as YAML.
func Save(path string, cfg *Config) error {
	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
