// Package config loads service settings from a YAML file, then applies
// overrides from the environment (optionally seeded from a .env file).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PathEnv names the variable that points to an alternative config file.
const PathEnv = "ARTLIX_CONFIG"

// DefaultPath is relative to the repository root.
var DefaultPath = filepath.Join("internal", "jobbot", "config", "config.yaml")

type Config struct {
	GRPCPort int `yaml:"GRPC_PORT"`
	HTTPPort int `yaml:"HTTP_PORT"`

	DBDriver   string `yaml:"DB_DRIVER"`
	DBHost     string `yaml:"DB_HOST"`
	DBPort     int    `yaml:"DB_PORT"`
	DBUser     string `yaml:"DB_USER"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBName     string `yaml:"DB_NAME"`
	DBSSLMode  string `yaml:"DB_SSLMODE"`

	KafkaBrokers []string `yaml:"KAFKA_BROKERS"`
	Topic        string   `yaml:"TOPIC"`
	RelayGroupID string   `yaml:"RELAY_GROUP_ID"`

	AutomationBaseURL string `yaml:"AUTOMATION_BASE_URL"`
	AutomationSecret  string `yaml:"AUTOMATION_SECRET"`

	TelegramBotToken      string `yaml:"TELEGRAM_BOT_TOKEN"`
	TelegramWebhookSecret string `yaml:"TELEGRAM_WEBHOOK_SECRET"`

	RedisAddr     string `yaml:"REDIS_ADDR"`
	RedisPassword string `yaml:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"REDIS_DB"`

	JWTSecret string `yaml:"JWT_SECRET"`

	ClassifierMinLength int     `yaml:"CLASSIFIER_MIN_LENGTH"`
	ChatRateLimit       float64 `yaml:"CHAT_RATE_LIMIT"`
	ChatRateBurst       int     `yaml:"CHAT_RATE_BURST"`
}

// Load reads path (or $ARTLIX_CONFIG, or DefaultPath when path is empty)
// and applies environment overrides. A missing file is not an error when
// the environment supplies everything.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = getEnv(PathEnv, DefaultPath)
	}

	cfg := defaults()
	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		GRPCPort:            50051,
		HTTPPort:            8080,
		DBDriver:            "postgres",
		DBPort:              5432,
		DBSSLMode:           "disable",
		Topic:               "artlix-events",
		RelayGroupID:        "artlix-automation-relay",
		ClassifierMinLength: 15,
		ChatRateLimit:       1,
		ChatRateBurst:       10,
	}
}

func (c *Config) applyEnv() {
	c.GRPCPort = getEnvInt("GRPC_PORT", c.GRPCPort)
	c.HTTPPort = getEnvInt("HTTP_PORT", c.HTTPPort)

	c.DBDriver = getEnv("DB_DRIVER", c.DBDriver)
	c.DBHost = getEnv("DB_HOST", c.DBHost)
	c.DBPort = getEnvInt("DB_PORT", c.DBPort)
	c.DBUser = getEnv("DB_USER", c.DBUser)
	c.DBPassword = getEnv("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnv("DB_NAME", c.DBName)
	c.DBSSLMode = getEnv("DB_SSLMODE", c.DBSSLMode)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.KafkaBrokers = splitTrim(v, ",")
	}
	c.Topic = getEnv("TOPIC", c.Topic)
	c.RelayGroupID = getEnv("RELAY_GROUP_ID", c.RelayGroupID)

	c.AutomationBaseURL = getEnv("AUTOMATION_BASE_URL", c.AutomationBaseURL)
	c.AutomationSecret = getEnv("AUTOMATION_SECRET", c.AutomationSecret)

	c.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramBotToken)
	c.TelegramWebhookSecret = getEnv("TELEGRAM_WEBHOOK_SECRET", c.TelegramWebhookSecret)

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)

	c.ClassifierMinLength = getEnvInt("CLASSIFIER_MIN_LENGTH", c.ClassifierMinLength)
	c.ChatRateLimit = getEnvFloat("CHAT_RATE_LIMIT", c.ChatRateLimit)
	c.ChatRateBurst = getEnvInt("CHAT_RATE_BURST", c.ChatRateBurst)
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	var problems []string
	if c.GRPCPort <= 0 || c.HTTPPort <= 0 {
		problems = append(problems, "GRPC_PORT and HTTP_PORT must be positive")
	}
	if c.GRPCPort == c.HTTPPort {
		problems = append(problems, "GRPC_PORT and HTTP_PORT must differ")
	}
	if c.TelegramBotToken == "" {
		problems = append(problems, "TELEGRAM_BOT_TOKEN is required")
	}
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.AutomationBaseURL != "" && c.AutomationSecret == "" {
		problems = append(problems, "AUTOMATION_SECRET is required with AUTOMATION_BASE_URL")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
