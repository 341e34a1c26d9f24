package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Events struct {
		CacheTTL         string `yaml:"cacheTTL"`
		RolloverSchedule string `yaml:"rolloverSchedule"`
	} `yaml:"events"`
	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`
	Auth struct {
		Secret string `yaml:"secret"`
	} `yaml:"auth"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads YAML config from path, then applies environment overrides. A .env file in
// the working directory is loaded first when present. A missing YAML file is not an error
// so the service can be configured from the environment alone.
func Load(path string) (Config, error) {
	cfg := Config{}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	overrides := []struct {
		key    string
		target *string
	}{
		{"PORT", &c.Server.Port},
		{"MONGO_URI", &c.Mongo.URI},
		{"MONGO_DATABASE", &c.Mongo.Database},
		{"REDIS_ADDR", &c.Redis.Addr},
		{"REDIS_PASSWORD", &c.Redis.Password},
		{"POSTGRES_URL", &c.Postgres.URL},
		{"QUIZ_TTL", &c.Quiz.TTL},
		{"EVENTS_CACHE_TTL", &c.Events.CacheTTL},
		{"EVENTS_ROLLOVER_SCHEDULE", &c.Events.RolloverSchedule},
		{"NATS_URL", &c.NATS.URL},
		{"AUTH_SECRET", &c.Auth.Secret},
		{"LOG_LEVEL", &c.Log.Level},
		{"LOG_FORMAT", &c.Log.Format},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.target = v
		}
	}
	if v, ok := os.LookupEnv("REDIS_DB"); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.Redis.DB = db
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "trivia"
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
