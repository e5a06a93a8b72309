// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

// GoogleConfig holds everything needed to reach Firestore: the
// service-account credentials file and the project the collections live in.
// TokenURL and Scope are overridable for tests; empty means the real
// Google endpoints.
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	ProjectID       string `yaml:"project_id"`
	DatabaseID      string `yaml:"database_id"` // "(default)" when empty
	TokenURL        string `yaml:"token_url"`
	Scope           string `yaml:"scope"`
	BaseURL         string `yaml:"base_url"`
}

type QueueConfig struct {
	JobCollection    string        `yaml:"job_collection"`
	MemoryCollection string        `yaml:"memory_collection"`
	SweepInterval    time.Duration `yaml:"sweep_interval"`
	StaleAfter       time.Duration `yaml:"stale_after"`
	MaxRetries       int           `yaml:"max_retries"`
	LockTTL          time.Duration `yaml:"lock_ttl"`
}

type AIConfig struct {
	GeminiKey    string        `yaml:"gemini_key"`
	GeminiURL    string        `yaml:"gemini_url"`
	OpenAIKey    string        `yaml:"openai_key"`
	OpenAIURL    string        `yaml:"openai_url"` // any chat-completions-compatible base URL
	DefaultModel string        `yaml:"default_model"`
	Timeout      time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	URL      string `yaml:"url"` // empty disables the cross-instance sweep lock
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Google GoogleConfig `yaml:"google"`
	Queue  QueueConfig  `yaml:"queue"`
	AI     AIConfig     `yaml:"ai"`
	Redis  RedisConfig  `yaml:"redis"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	// Minimal validation
	if cfg.Server.Port == 0 {
		return nil, errors.New("server.port is required")
	}
	if cfg.Google.ProjectID == "" && cfg.Google.CredentialsFile != "" {
		return nil, errors.New("google.project_id is required when credentials are set")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Google.DatabaseID == "" {
		cfg.Google.DatabaseID = "(default)"
	}
	if cfg.Queue.JobCollection == "" {
		cfg.Queue.JobCollection = "job_queue"
	}
	if cfg.Queue.MemoryCollection == "" {
		cfg.Queue.MemoryCollection = "corporate_memory"
	}
	if cfg.Queue.SweepInterval <= 0 {
		cfg.Queue.SweepInterval = time.Minute
	}
	if cfg.Queue.StaleAfter <= 0 {
		cfg.Queue.StaleAfter = 10 * time.Minute
	}
	if cfg.Queue.MaxRetries <= 0 {
		cfg.Queue.MaxRetries = 3
	}
	if cfg.Queue.LockTTL <= 0 {
		cfg.Queue.LockTTL = 30 * time.Second
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 30 * time.Second
	}
}
