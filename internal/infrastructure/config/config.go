package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	// Telegram application credentials. All three are required; the process
	// must not start without them.
	AppID    string `env:"APP_ID,    required"`
	AppHash  string `env:"APP_HASH,  required"`
	BotToken string `env:"BOT_TOKEN, required"`

	Port           string        `env:"PORT,             default=8080"`
	Env            string        `env:"ENV,              default=development"`
	LogLevel       string        `env:"LOG_LEVEL,        default=info"`
	RefreshEvery   time.Duration `env:"REFRESH_INTERVAL, default=600s"`
	JadlogBaseURL  string        `env:"JADLOG_BASE_URL"`
	AdminJWTSecret string        `env:"ADMIN_JWT_SECRET, default=dev-secret"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=jadlog_bot"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
// A missing required secret is a startup error, not a recoverable condition.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
