package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Redis
	RedisURL string `mapstructure:"REDIS_URL"`

	// Optimization
	SalaryCap  int `mapstructure:"SALARY_CAP"`
	RosterSize int `mapstructure:"ROSTER_SIZE"`
	MaxLineups int `mapstructure:"MAX_LINEUPS"`

	// Discovery
	TrainingSplit float64 `mapstructure:"TRAINING_SPLIT"`
	EnsembleSize  int     `mapstructure:"ENSEMBLE_SIZE"`

	// Backtest
	BacktestWorkers int `mapstructure:"BACKTEST_WORKERS"`

	// AI hindsight source
	OpenAIAPIKey            string `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel             string `mapstructure:"OPENAI_MODEL"`
	AIRateLimit             int    `mapstructure:"AI_RATE_LIMIT"`
	AIMaxGames              int    `mapstructure:"AI_MAX_GAMES"`
	CircuitBreakerThreshold int    `mapstructure:"CIRCUIT_BREAKER_THRESHOLD"`

	// CORS
	CorsOrigins []string `mapstructure:"CORS_ORIGINS"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("SALARY_CAP", 50000)
	viper.SetDefault("ROSTER_SIZE", 5)
	viper.SetDefault("MAX_LINEUPS", 150)
	viper.SetDefault("TRAINING_SPLIT", 0.75)
	viper.SetDefault("ENSEMBLE_SIZE", 3)
	viper.SetDefault("BACKTEST_WORKERS", 4)
	viper.SetDefault("OPENAI_API_KEY", "")
	viper.SetDefault("OPENAI_MODEL", "")
	viper.SetDefault("AI_RATE_LIMIT", 5) // requests per minute
	viper.SetDefault("AI_MAX_GAMES", 10)
	viper.SetDefault("CIRCUIT_BREAKER_THRESHOLD", 5)
	viper.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")

	viper.AutomaticEnv()

	// Missing .env is fine; env vars and defaults cover everything.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Viper reads comma-joined lists as one string.
	if len(cfg.CorsOrigins) == 1 && strings.Contains(cfg.CorsOrigins[0], ",") {
		cfg.CorsOrigins = strings.Split(cfg.CorsOrigins[0], ",")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.SalaryCap <= 0 {
		return fmt.Errorf("SALARY_CAP must be positive, got %d", c.SalaryCap)
	}
	if c.RosterSize < 2 {
		return fmt.Errorf("ROSTER_SIZE must be at least 2, got %d", c.RosterSize)
	}
	if c.TrainingSplit <= 0 || c.TrainingSplit >= 1 {
		return fmt.Errorf("TRAINING_SPLIT must be in (0,1), got %v", c.TrainingSplit)
	}
	if c.BacktestWorkers < 1 {
		return fmt.Errorf("BACKTEST_WORKERS must be at least 1, got %d", c.BacktestWorkers)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
