// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server      ServerConfig
	Mongo       MongoConfig
	Redis       RedisConfig
	YouTube     YouTubeConfig
	Recommender RecommenderConfig
	Session     SessionConfig
	Admin       AdminConfig
	Logging     LoggingConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

// MongoConfig contains document store connection configuration.
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig contains the redis connection shared by sessions and the
// background task queue.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// YouTubeConfig contains catalog API configuration. All calls
// authenticate with the session's OAuth access token.
type YouTubeConfig struct {
	CallTimeout time.Duration
}

// RecommenderConfig contains the ranking engine knobs.
type RecommenderConfig struct {
	SubscriptionSampleSize int
	ChannelVideoSampleSize int
	SearchWindow           int
	WorkerConcurrency      int
}

// SessionConfig contains session cookie and expiry configuration.
type SessionConfig struct {
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

// AdminConfig contains API keys accepted by the admin endpoints.
type AdminConfig struct {
	APIKeys []string
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Mongo
	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "recommender")

	// Redis
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// YouTube
	viper.SetDefault("youtube.calltimeout", 10*time.Second)

	// Recommender
	viper.SetDefault("recommender.subscriptionsamplesize", 5)
	viper.SetDefault("recommender.channelvideosamplesize", 5)
	viper.SetDefault("recommender.searchwindow", 0) // 0 = full served batch
	viper.SetDefault("recommender.workerconcurrency", 10)

	// Session
	viper.SetDefault("session.ttl", 24*time.Hour)
	viper.SetDefault("session.cookiename", "feed_session")
	viper.SetDefault("session.cookiesecure", false)

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.file", "")
}
