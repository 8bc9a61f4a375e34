/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	BaseURL     string // Public base URL (e.g., http://192.168.1.20:8080)

	DBPath    string // sqlite database file
	MediaRoot string // root of served audio files
	PlayerBin string // playout binary (ffplay-compatible)

	RosterPath string // optional YAML persona roster

	// VO generation service. Empty VOServiceURL means the built-in
	// /api/v1/vo-segments endpoint on this process.
	VOServiceURL string

	// AI credentials; when either is empty the mock generator is used.
	AnthropicAPIKey  string
	AnthropicBaseURL string
	AnthropicModel   string
	ElevenLabsAPIKey string
	ElevenLabsURL    string

	// Station context stubs surfaced in VO scripts.
	Temperature   int
	ContestActive bool
}

// Load reads environment variables, applies defaults, and validates the
// result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("PEACH95_ENV", "development"),
		HTTPBind:    getEnv("PEACH95_HTTP_BIND", "0.0.0.0"),
		HTTPPort:    getEnvInt("PEACH95_HTTP_PORT", 8080),
		BaseURL:     getEnv("PEACH95_BASE_URL", ""),

		DBPath:    getEnv("PEACH95_DB_PATH", "./peach95.db"),
		MediaRoot: getEnv("PEACH95_MEDIA_ROOT", "./media"),
		PlayerBin: getEnv("PEACH95_PLAYER_BIN", "ffplay"),

		RosterPath: getEnv("PEACH95_ROSTER_PATH", ""),

		VOServiceURL: getEnv("PEACH95_VO_SERVICE_URL", ""),

		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL: getEnv("PEACH95_ANTHROPIC_BASE_URL", ""),
		AnthropicModel:   getEnv("PEACH95_ANTHROPIC_MODEL", ""),
		ElevenLabsAPIKey: getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsURL:    getEnv("PEACH95_ELEVENLABS_URL", ""),

		Temperature:   getEnvInt("PEACH95_TEMPERATURE", 72),
		ContestActive: getEnvBool("PEACH95_CONTEST_ACTIVE", false),
	}

	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid PEACH95_HTTP_PORT %d", cfg.HTTPPort)
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("PEACH95_DB_PATH must not be empty")
	}
	if cfg.MediaRoot == "" {
		return nil, fmt.Errorf("PEACH95_MEDIA_ROOT must not be empty")
	}
	return cfg, nil
}

// AIConfigured reports whether both AI credentials are present.
func (c *Config) AIConfigured() bool {
	return c.AnthropicAPIKey != "" && c.ElevenLabsAPIKey != ""
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return def
}
