// Package config loads application settings from an optional TOML file
// with environment variable overrides. Every tunable has a default, so
// the zero-configuration path (no file, no env) yields a working app.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config holds all application configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	LLM    LLMConfig    `toml:"llm"`
	Layout LayoutConfig `toml:"layout"`
	Force  ForceConfig  `toml:"force"`
	Visual VisualConfig `toml:"visual"`
}

// ServerConfig controls the HTTP listener and session persistence.
type ServerConfig struct {
	Addr           string   `toml:"addr" validate:"required"`
	DBPath         string   `toml:"db_path"` // empty selects the in-memory store
	SessionTTL     Duration `toml:"session_ttl"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// LLMConfig controls provider selection and generation behavior.
type LLMConfig struct {
	// Provider is "gemini", "openai", or "auto". Auto picks gemini when
	// GEMINI_API_KEY is set, otherwise openai when LLM_ENDPOINT is set.
	Provider        string   `toml:"provider" validate:"oneof=auto gemini openai"`
	GeminiModel     string   `toml:"gemini_model" validate:"required"`
	OpenAIModel     string   `toml:"openai_model"`
	Endpoint        string   `toml:"endpoint"`
	APIKey          string   `toml:"-"` // env only, never read from file
	MaxAttempts     int      `toml:"max_attempts" validate:"min=1"`
	RetryDelay      Duration `toml:"retry_delay"`
	StarterTerms    int      `toml:"starter_terms" validate:"min=1"`
	FurtherTerms    int      `toml:"further_terms" validate:"min=1"`
	SuggestionTerms int      `toml:"suggestion_terms" validate:"min=1"`
}

// LayoutConfig controls the tree layout pass.
type LayoutConfig struct {
	LevelStep    float64 `toml:"level_step" validate:"gt=0"`    // vertical distance per unit of node distance
	SiblingGap   float64 `toml:"sibling_gap" validate:"gt=0"`   // horizontal width allotted per leaf
	TargetRadius float64 `toml:"target_radius" validate:"gt=0"` // rescale bound on the farthest node
}

// ForceConfig controls the force-directed refinement pass.
type ForceConfig struct {
	Iterations int     `toml:"iterations" validate:"min=0"`
	Attract    float64 `toml:"attract"`
	Repel      float64 `toml:"repel"`
}

// VisualConfig controls node sizing and emphasis.
type VisualConfig struct {
	RootSize   float64 `toml:"root_size"`
	RootMin    float64 `toml:"root_min"`
	RootShrink float64 `toml:"root_shrink"` // size lost per non-root node
	NodeBase   float64 `toml:"node_base"`
	NodeScale  float64 `toml:"node_scale"` // size gained per unit of breadth
	FlashScale float64 `toml:"flash_scale"`
	DimOpacity float64 `toml:"dim_opacity"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:       ":8080",
			SessionTTL: Duration(2 * time.Hour),
		},
		LLM: LLMConfig{
			Provider:        "auto",
			GeminiModel:     "gemini-2.0-flash",
			OpenAIModel:     "neuralmagic/Meta-Llama-3.1-8B-Instruct-quantized.w4a16",
			MaxAttempts:     5,
			RetryDelay:      Duration(time.Second),
			StarterTerms:    4,
			FurtherTerms:    3,
			SuggestionTerms: 4,
		},
		Layout: LayoutConfig{
			LevelStep:    5,
			SiblingGap:   5,
			TargetRadius: 10,
		},
		Force: ForceConfig{
			Iterations: 100,
			Attract:    0.02,
			Repel:      0.2,
		},
		Visual: VisualConfig{
			RootSize:   120,
			RootMin:    80,
			RootShrink: 2,
			NodeBase:   50,
			NodeScale:  30,
			FlashScale: 1.25,
			DimOpacity: 0.4,
		},
	}
}

// Load builds the effective configuration: defaults, then the TOML file
// at path (skipped when path is empty or the file does not exist), then
// environment overrides. The result is validated before returning.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to defaults
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers environment variables over the file values. These are
// the same variables the app has always honored, so secrets stay out of
// config files.
func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			c.Server.Addr = ":" + port
		}
	}
	c.Server.Addr = getEnv("ELIE_ADDR", c.Server.Addr)
	c.Server.DBPath = getEnv("ELIE_DB", c.Server.DBPath)

	if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.LLM.Provider != "openai" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "auto" {
			c.LLM.Provider = "gemini"
		}
	}
	if endpoint := os.Getenv("LLM_ENDPOINT"); endpoint != "" && c.LLM.Provider != "gemini" {
		c.LLM.Endpoint = endpoint
		c.LLM.APIKey = getEnv("LLM_API_KEY", c.LLM.APIKey)
		if c.LLM.Provider == "auto" {
			c.LLM.Provider = "openai"
		}
	}
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("config: %s failed %q validation", e.Namespace(), e.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}
	if c.LLM.Provider == "openai" && c.LLM.Endpoint == "" {
		return fmt.Errorf("config: openai provider requires LLM_ENDPOINT")
	}
	return nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
