/**
 * @description
 * This package handles the configuration management for the service. It uses
 * the Viper library to read configuration from environment variables,
 * providing a centralized and straightforward way to manage application
 * settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the payment-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort              string `mapstructure:"SERVER_PORT"`
	DatabaseURL             string `mapstructure:"DATABASE_URL"`
	JWTSecret               string `mapstructure:"JWT_SECRET"`
	JWTTTLMinutes           int    `mapstructure:"JWT_TTL_MINUTES"`
	AuthHeaderName          string `mapstructure:"AUTH_HEADER_NAME"`
	AuthTokenPrefix         string `mapstructure:"AUTH_TOKEN_PREFIX"`
	LoginMaxFailedAttempts  int    `mapstructure:"LOGIN_MAX_FAILED_ATTEMPTS"`
	LoginRateLimitPerMinute int    `mapstructure:"LOGIN_RATE_LIMIT_PER_MINUTE"`
	StripeAPIBaseURL        string `mapstructure:"STRIPE_API_BASE_URL"`
	StripeSecretKey         string `mapstructure:"STRIPE_SECRET_KEY"`
	RabbitMQURL             string `mapstructure:"RABBITMQ_URL"`
	MailEventExchange       string `mapstructure:"MAIL_EVENT_EXCHANGE"`
	RedisURL                string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix    string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	WebAppDomainURL         string `mapstructure:"WEB_APP_DOMAIN_URL"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("JWT_TTL_MINUTES", 1440)
	viper.SetDefault("AUTH_HEADER_NAME", "Authorization")
	viper.SetDefault("AUTH_TOKEN_PREFIX", "Bearer ")
	viper.SetDefault("LOGIN_MAX_FAILED_ATTEMPTS", 10)
	viper.SetDefault("LOGIN_RATE_LIMIT_PER_MINUTE", 0)
	viper.SetDefault("STRIPE_API_BASE_URL", "https://api.stripe.com")
	viper.SetDefault("MAIL_EVENT_EXCHANGE", "user_events")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "payment:rate_limit")
	viper.SetDefault("WEB_APP_DOMAIN_URL", "http://localhost:3000")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("JWT_TTL_MINUTES")
	_ = viper.BindEnv("AUTH_HEADER_NAME")
	_ = viper.BindEnv("AUTH_TOKEN_PREFIX")
	_ = viper.BindEnv("LOGIN_MAX_FAILED_ATTEMPTS")
	_ = viper.BindEnv("LOGIN_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("STRIPE_API_BASE_URL")
	_ = viper.BindEnv("STRIPE_SECRET_KEY")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("MAIL_EVENT_EXCHANGE")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("WEB_APP_DOMAIN_URL")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}

	if strings.TrimSpace(config.JWTSecret) == "" {
		return config, errors.New("JWT_SECRET must be set")
	}
	if config.JWTTTLMinutes <= 0 {
		config.JWTTTLMinutes = 1440
	}
	if strings.TrimSpace(config.AuthHeaderName) == "" {
		config.AuthHeaderName = "Authorization"
	}
	if config.LoginMaxFailedAttempts <= 0 {
		config.LoginMaxFailedAttempts = 10
	}

	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "payment:rate_limit"
	}
	config.WebAppDomainURL = strings.TrimRight(strings.TrimSpace(config.WebAppDomainURL), "/")

	return
}
