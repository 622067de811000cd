package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all tunables for a harvest run. Every knob that used to be
// process-wide mutable state (delay window, headless flag, per-page save)
// lives here and is threaded into the Harvester at construction.
type Config struct {
	// OutputDir receives the per-page capture files.
	OutputDir string `yaml:"output_dir"`
	// LogFile receives the leveled run log ("" disables the file tee).
	LogFile string `yaml:"log_file"`

	// MinDelaySec/MaxDelaySec bound the randomized pause between pages.
	MinDelaySec float64 `yaml:"min_delay_seconds"`
	MaxDelaySec float64 `yaml:"max_delay_seconds"`

	// Headless controls whether the browser renders without a window.
	Headless bool `yaml:"headless"`
	// SavePerPage must stay enabled for crash-safe incremental capture;
	// disabling it is allowed but removes that guarantee.
	SavePerPage bool `yaml:"save_per_page"`

	// MaxRetries bounds per-page transient failure retries.
	MaxRetries int `yaml:"max_retries"`
	// SessionRetries bounds browser-start attempts; exhausting it is the
	// only run-fatal failure.
	SessionRetries int `yaml:"session_retries"`
	// NavTimeoutSec converts a hung navigation into a transient failure.
	NavTimeoutSec int `yaml:"nav_timeout_seconds"`

	ChromeBin string `yaml:"chrome_bin"`
}

// Load reads the .env file and returns a Config populated from
// environment variables, with defaults matching the production run.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		OutputDir: getEnv("OUTPUT_DIR", "data/raw/por_pagina"),
		LogFile:   getEnv("LOG_FILE", "scraping.log"),

		MinDelaySec: getEnvFloat("MIN_DELAY_SECONDS", 5.0),
		MaxDelaySec: getEnvFloat("MAX_DELAY_SECONDS", 10.0),

		Headless:    getEnvBool("HEADLESS", false),
		SavePerPage: getEnvBool("SAVE_PER_PAGE", true),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		SessionRetries: getEnvInt("SESSION_RETRIES", 3),
		NavTimeoutSec:  getEnvInt("NAV_TIMEOUT_SECONDS", 90),

		ChromeBin: getEnv("CHROME_BIN", ""),
	}
}

// MergeFile overlays settings from a YAML config file onto c. Only keys
// present in the file are touched.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}
	return nil
}

// Validate rejects delay windows the anti-blocking protocol cannot honor.
func (c *Config) Validate() error {
	if c.MinDelaySec < 0 || c.MaxDelaySec < 0 {
		return fmt.Errorf("config: delay bounds must be non-negative (got %.1f–%.1f)",
			c.MinDelaySec, c.MaxDelaySec)
	}
	if c.MaxDelaySec < c.MinDelaySec {
		return fmt.Errorf("config: max delay %.1fs is below min delay %.1fs",
			c.MaxDelaySec, c.MinDelaySec)
	}
	if c.MaxRetries < 1 || c.SessionRetries < 1 {
		return fmt.Errorf("config: retry budgets must be at least 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
