// Package config loads server configuration from an optional YAML file,
// the environment (including a .env file) and command-line flags, in that
// order of increasing precedence.
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the config file is looked for when no -config flag
// is given.
const DefaultPath = "inkwell.yaml"

type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"listen_addr"`
	// StoreURL selects the object-store backend: mem://, badger://path or
	// file://path.
	StoreURL string `yaml:"store_url"`
	// StorePrefix nests all keys under a sub-path inside the store.
	StorePrefix string `yaml:"store_prefix"`
	// AuthUser and AuthPasswordHash (bcrypt) guard the editor routes.
	// Leaving either empty disables auth.
	AuthUser         string `yaml:"auth_user"`
	AuthPasswordHash string `yaml:"auth_password_hash"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

func defaults() *Config {
	return &Config{
		ListenAddr: ":8080",
		StoreURL:   "badger://data/store",
		LogLevel:   "info",
	}
}

// Load resolves the configuration from args and the environment.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("inkwell", flag.ContinueOnError)
	configPath := fs.String("config", DefaultPath, "Path to config file")
	addr := fs.String("addr", "", "HTTP listen address")
	storeURL := fs.String("store", "", "Object store URL (mem://, badger://path, file://path)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := defaults()

	if data, err := os.ReadFile(*configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", *configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// A .env file is optional; real environment variables win over it.
	_ = godotenv.Load()
	applyEnv(cfg)

	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *storeURL != "" {
		cfg.StoreURL = *storeURL
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.ListenAddr, "INKWELL_ADDR")
	set(&cfg.StoreURL, "INKWELL_STORE_URL")
	set(&cfg.StorePrefix, "INKWELL_STORE_PREFIX")
	set(&cfg.AuthUser, "INKWELL_AUTH_USER")
	set(&cfg.AuthPasswordHash, "INKWELL_AUTH_PASSWORD_HASH")
	set(&cfg.LogLevel, "INKWELL_LOG_LEVEL")
}
