package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "journal.db"

// Config holds the server settings.
type Config struct {
	DataDir         string        `yaml:"data_dir"`
	Listen          string        `yaml:"listen"`
	UserHeader      string        `yaml:"user_header"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	OpenTimeout     time.Duration `yaml:"open_timeout"`
	InitialMmapSize int           `yaml:"initial_mmap_size"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DataDir:        "data",
		Listen:         ":8080",
		UserHeader:     "x-fj-user",
		RequestTimeout: 10 * time.Second,
		OpenTimeout:    time.Second,
	}
}

// DBPath returns the database file path inside DataDir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, DBFileName)
}

// Load builds the configuration from defaults, an optional YAML file, a .env
// file in the working directory and FJ_* environment variables, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// Variables already set in the environment win over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("FJ_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("FJ_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("FJ_USER_HEADER"); v != "" {
		c.UserHeader = v
	}
	if v := os.Getenv("FJ_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FJ_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = d
	}
	if v := os.Getenv("FJ_OPEN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FJ_OPEN_TIMEOUT: %w", err)
		}
		c.OpenTimeout = d
	}
	if v := os.Getenv("FJ_INITIAL_MMAP_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FJ_INITIAL_MMAP_SIZE: %w", err)
		}
		c.InitialMmapSize = n
	}
	return nil
}

// Validate reports settings the server cannot run with.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if c.Listen == "" {
		return errors.New("listen is required")
	}
	if c.UserHeader == "" {
		return errors.New("user_header is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	// bbolt waits for the file lock forever on a zero timeout.
	if c.OpenTimeout <= 0 {
		return fmt.Errorf("open_timeout must be positive, got %s", c.OpenTimeout)
	}
	if c.InitialMmapSize < 0 {
		return fmt.Errorf("initial_mmap_size must not be negative, got %d", c.InitialMmapSize)
	}
	return nil
}

// Log prints the effective settings.
func (c Config) Log() {
	log.Printf("[CONFIG] data_dir=%s listen=%s user_header=%s request_timeout=%s",
		c.DataDir, c.Listen, c.UserHeader, c.RequestTimeout)
}
