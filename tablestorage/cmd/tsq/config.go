package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "tsq.yaml"
	envPrefix      = "TSQ_"
)

// Config holds defaults for tsq commands. It is read from tsq.yaml, found
// by walking up from the working directory, and then overridden by TSQ_*
// environment variables (TSQ_LOG_LEVEL sets log.level).
type Config struct {
	// Fixture is the YAML fixture queried when --fixture is not given.
	Fixture string `yaml:"fixture" mapstructure:"fixture"`
	// Table is the table queried when --table is not given.
	Table string `yaml:"table" mapstructure:"table"`
	// Addr is where tsq serve listens when --addr is not given.
	Addr string    `yaml:"addr" mapstructure:"addr"`
	Log  LogConfig `yaml:"log" mapstructure:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

func loadConfig() (Config, error) {
	var cfg Config

	if path := findConfigFile(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := applyEnv(envPrefix, os.Environ(), &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv copies PREFIX_A_B=value variables onto the a.b key of target.
func applyEnv(prefix string, environ []string, target *Config) error {
	v := viper.New()
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		prop := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, prefix), "_", "."))
		v.Set(prop, value)
	}
	if err := v.Unmarshal(target); err != nil {
		return fmt.Errorf("read %s environment: %w", prefix, err)
	}
	return nil
}

func findConfigFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, configFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
