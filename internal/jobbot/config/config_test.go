package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
GRPC_PORT: 6000
HTTP_PORT: 6001
DB_DRIVER: sqlite
DB_NAME: /tmp/artlix.db
KAFKA_BROKERS: [kafka-1:9092, kafka-2:9092]
TELEGRAM_BOT_TOKEN: "123:abc"
JWT_SECRET: secret
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.GRPCPort)
	assert.Equal(t, 6001, cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 15, cfg.ClassifierMinLength, "defaults survive a partial file")
	assert.Equal(t, "artlix-events", cfg.Topic)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
TELEGRAM_BOT_TOKEN: "from-file"
JWT_SECRET: secret
HTTP_PORT: 8080
`)
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", " a:1 , b:2 ,")
	t.Setenv("CHAT_RATE_LIMIT", "2.5")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.TelegramBotToken)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.KafkaBrokers)
	assert.Equal(t, 2.5, cfg.ChatRateLimit)
	assert.Equal(t, 0, cfg.RedisDB, "unparsable values keep the previous setting")
}

func TestLoad_MissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, 50051, cfg.GRPCPort)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "GRPC_PORT: [not an int"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaults()
		cfg.TelegramBotToken = "token"
		cfg.JWTSecret = "secret"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing token", mutate: func(c *Config) { c.TelegramBotToken = "" }, wantErr: "TELEGRAM_BOT_TOKEN"},
		{name: "missing jwt secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "same ports", mutate: func(c *Config) { c.HTTPPort = c.GRPCPort }, wantErr: "must differ"},
		{name: "automation without secret", mutate: func(c *Config) { c.AutomationBaseURL = "http://automation:5678" }, wantErr: "AUTOMATION_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
