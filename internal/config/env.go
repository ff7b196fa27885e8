package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables that override file settings.
const (
	EnvListenAddr        = "SMARTBUD_LISTEN_ADDR"
	EnvClassifierURL     = "SMARTBUD_CLASSIFIER_URL"
	EnvClassifierTimeout = "SMARTBUD_CLASSIFIER_TIMEOUT"
	EnvLogLevel          = "SMARTBUD_LOG_LEVEL"
	EnvLogFormat         = "SMARTBUD_LOG_FORMAT"
	EnvCategories        = "SMARTBUD_CATEGORIES" // comma-separated
)

// LoadDotEnv loads variables from .env files into the process environment.
// Missing files are ignored; variables already set are not overridden.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// ApplyEnv overrides cfg with any SMARTBUD_* variables that are set.
// Unparseable durations are ignored.
func (c *Config) ApplyEnv() {
	if v := getEnv(EnvListenAddr); v != "" {
		c.Server.ListenAddr = v
	}
	if v := getEnv(EnvClassifierURL); v != "" {
		c.Classifier.BaseURL = v
	}
	if v := getEnv(EnvClassifierTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Classifier.Timeout = d
		}
	}
	if v := getEnv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := getEnv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := getEnv(EnvCategories); v != "" {
		c.Categories.Desired = strings.Split(v, ",")
	}
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
