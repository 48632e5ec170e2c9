package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
	OAuth    OAuthConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// ServerURL is the externally reachable base URL, used to build the
	// OAuth callback. ClientURL is where the web client lives.
	ServerURL string
	ClientURL string
	Prod      bool
}

type DatabaseConfig struct {
	URI string
}

// RedisConfig is optional; an empty URI disables rate limiting and presence.
type RedisConfig struct {
	URI string
}

// KafkaConfig is optional; no brokers means no event publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("CHAT_HOST", "")
	viper.SetDefault("CHAT_PORT", "8080")
	viper.SetDefault("CHAT_READ_TIMEOUT", 30*time.Second)
	viper.SetDefault("CHAT_WRITE_TIMEOUT", 30*time.Second)
	viper.SetDefault("CHAT_IDLE_TIMEOUT", 60*time.Second)
	viper.SetDefault("SERVER_URL", "http://localhost:8080")
	viper.SetDefault("CLIENT_URL", "http://localhost:5173")
	viper.SetDefault("ACCESS_TOKEN_TTL", 15*time.Minute)
	viper.SetDefault("REFRESH_TOKEN_TTL", 14*24*time.Hour)
	viper.SetDefault("KAFKA_TOPIC", "chat-messages")
	viper.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host:         viper.GetString("CHAT_HOST"),
			Port:         viper.GetString("CHAT_PORT"),
			ReadTimeout:  viper.GetDuration("CHAT_READ_TIMEOUT"),
			WriteTimeout: viper.GetDuration("CHAT_WRITE_TIMEOUT"),
			IdleTimeout:  viper.GetDuration("CHAT_IDLE_TIMEOUT"),
			ServerURL:    viper.GetString("SERVER_URL"),
			ClientURL:    viper.GetString("CLIENT_URL"),
			Prod:         viper.GetString("GO_ENV") == "production",
		},
		Database: DatabaseConfig{
			URI: viper.GetString("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URI: viper.GetString("REDIS_URL"),
		},
		Kafka: KafkaConfig{
			Brokers: viper.GetStringSlice("KAFKA_BROKERS"),
			Topic:   viper.GetString("KAFKA_TOPIC"),
		},
		Auth: AuthConfig{
			AccessSecret:  viper.GetString("ACCESS_TOKEN_SECRET"),
			RefreshSecret: viper.GetString("REFRESH_TOKEN_SECRET"),
			AccessTTL:     viper.GetDuration("ACCESS_TOKEN_TTL"),
			RefreshTTL:    viper.GetDuration("REFRESH_TOKEN_TTL"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     viper.GetString("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: viper.GetString("GOOGLE_CLIENT_SECRET"),
		},
	}

	if cfg.Database.URI == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.Auth.AccessSecret == "" || cfg.Auth.RefreshSecret == "" {
		return nil, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required")
	}

	return cfg, nil
}
