package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/natefinch/atomic"

	"sitepress/pkg/preprocess"
)

// BuildConfig holds the filesystem layout and run settings for one build.
type BuildConfig struct {
	IncludeDir        string `json:"include_dir"`
	PagesDir          string `json:"pages_dir"`
	OutputDir         string `json:"output_dir"`
	ConstantsPath     string `json:"constants_path"`
	LogLevel          string `json:"log_level"`
	Workers           int    `json:"workers"`
	StatsDatabasePath string `json:"stats_database_path"`
}

// Config is the top-level configuration struct that aggregates all other
// configs.
type Config struct {
	Build  *BuildConfig             `json:"build_config"`
	Engine *preprocess.EngineConfig `json:"engine_config"`
}

// DefaultBuildConfig creates a build configuration with default values:
// everything relative to the working directory, one worker, and build
// statistics recorded next to the output. Set StatsDatabasePath to an empty
// string to disable recording.
func DefaultBuildConfig() *BuildConfig {
	return &BuildConfig{
		IncludeDir:        "./include",
		PagesDir:          "./pages",
		OutputDir:         "./output",
		ConstantsPath:     "./constants.json",
		LogLevel:          "info",
		Workers:           1,
		StatsDatabasePath: "./sitepress_stats.db",
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := &Config{
		Build:  DefaultBuildConfig(),
		Engine: preprocess.DefaultEngineConfig(),
	}

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// The build can still run with defaults.
				fmt.Printf("warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}
