// Package config loads the YAML configuration shared by the CLI and the
// server.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config struct for YAML configuration
type Config struct {
	GRPCPort  int    `yaml:"GRPC_PORT"`
	HTTPPort  int    `yaml:"HTTP_PORT"`
	JWTSecret string `yaml:"JWT_SECRET"`

	// DBDriver is "sqlite" or "postgres". DBDSN overrides the discrete
	// connection fields when set.
	DBDriver   string `yaml:"DB_DRIVER"`
	DBDSN      string `yaml:"DB_DSN"`
	DBHost     string `yaml:"DB_HOST"`
	DBPort     int    `yaml:"DB_PORT"`
	DBUser     string `yaml:"DB_USER"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBName     string `yaml:"DB_NAME"`
	DBSSLMode  string `yaml:"DB_SSLMODE"`

	KafkaBrokers []string `yaml:"KAFKA_BROKERS"`
	Topic        string   `yaml:"TOPIC"`
	// RequestTopic, when set, makes serve consume analysis_requested events.
	RequestTopic string `yaml:"REQUEST_TOPIC"`
	GroupID      string `yaml:"KAFKA_GROUP_ID"`

	RedisAddr     string        `yaml:"REDIS_ADDR"`
	RedisPassword string        `yaml:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"REDIS_DB"`
	NewsCacheTTL  time.Duration `yaml:"NEWS_CACHE_TTL"`

	RegistryBaseURL     string        `yaml:"REGISTRY_BASE_URL"`
	RegistryDocumentURL string        `yaml:"REGISTRY_DOCUMENT_URL"`
	RegistryAPIKey      string        `yaml:"REGISTRY_API_KEY"`
	DocumentDelay       time.Duration `yaml:"DOCUMENT_DELAY"`

	NewsBaseURL     string        `yaml:"NEWS_BASE_URL"`
	NewsWindowYears int           `yaml:"NEWS_WINDOW_YEARS"`
	NewsTimeout     time.Duration `yaml:"NEWS_TIMEOUT"`
	NewsMaxPacing   time.Duration `yaml:"NEWS_MAX_PACING"`

	RedFlagCountriesPath string `yaml:"RED_FLAG_COUNTRIES_PATH"`
	FakeNamesPath        string `yaml:"FAKE_NAMES_PATH"`
	ScoreWeightsPath     string `yaml:"SCORE_WEIGHTS_PATH"`
}

// Environment variables overriding the file.
const (
	EnvAPIKey    = "CH_API_KEY"
	EnvJWTSecret = "JWT_SECRET"
	EnvDBDSN     = "DB_DSN"
)

// Load reads the YAML file at path, applies environment overrides (after
// loading a .env file when present) and fills defaults.
func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// a missing .env file is not an error
	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.RegistryAPIKey = v
	}
	if v := os.Getenv(EnvJWTSecret); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv(EnvDBDSN); v != "" {
		c.DBDSN = v
	}
}

func (c *Config) applyDefaults() {
	if c.GRPCPort == 0 {
		c.GRPCPort = 50051
	}
	if c.HTTPPort == 0 {
		c.HTTPPort = 8080
	}
	if c.DBDriver == "" {
		c.DBDriver = "sqlite"
	}
	if c.DBDriver == "sqlite" && c.DBDSN == "" {
		c.DBDSN = "companyrisk.db"
	}
	if c.Topic == "" {
		c.Topic = "company.scored"
	}
	if c.GroupID == "" {
		c.GroupID = "companyrisk"
	}
	if c.NewsWindowYears == 0 {
		c.NewsWindowYears = 10
	}
	if c.NewsTimeout == 0 {
		c.NewsTimeout = 15 * time.Second
	}
	if c.NewsMaxPacing == 0 {
		c.NewsMaxPacing = 2 * time.Second
	}
	if c.DocumentDelay == 0 {
		c.DocumentDelay = 5 * time.Second
	}
	if c.NewsCacheTTL == 0 {
		c.NewsCacheTTL = 24 * time.Hour
	}
	if c.RedFlagCountriesPath == "" {
		c.RedFlagCountriesPath = "datasets/red_flag_countries.json"
	}
	if c.FakeNamesPath == "" {
		c.FakeNamesPath = "datasets/fake_names.json"
	}
	if c.ScoreWeightsPath == "" {
		c.ScoreWeightsPath = "datasets/score_weights.json"
	}
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch strings.ToLower(c.DBDriver) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.NewsWindowYears < 0 {
		return fmt.Errorf("NEWS_WINDOW_YEARS must not be negative")
	}
	if c.RequestTopic != "" && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("REQUEST_TOPIC requires KAFKA_BROKERS")
	}
	return nil
}
