package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Transport TransportConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DBConfig is optional; request history is disabled when Host is empty.
type DBConfig struct {
	Host    string
	Port    int
	User    string
	Pass    string
	Name    string
	SSLMode string
	DSN     string
}

func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

type TransportConfig struct {
	// BaseURL resolves relative request URLs.
	BaseURL             string
	RequestTimeout      time.Duration
	MaxRequestTimeout   time.Duration
	MaxResponseBodySize int64
	// AllowPrivateTargets disables the check against loopback and private
	// network destinations.
	AllowPrivateTargets bool
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

func LoadConfig() (*Config, error) {
	dBConfig := DBConfig{
		Host:    os.Getenv("DB_HOST"),
		User:    os.Getenv("DB_USER"),
		Pass:    os.Getenv("DB_PASS"),
		Name:    os.Getenv("DB_NAME"),
		SSLMode: getEnv("DB_SSLMODE", "disable"),
	}
	if dBConfig.Enabled() {
		dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
		if err != nil {
			return nil, fmt.Errorf("invalid DB_PORT: %v", err)
		}
		dBConfig.Port = dbPort
		dBConfig.DSN = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			dBConfig.Host, dBConfig.Port, dBConfig.User, dBConfig.Pass, dBConfig.Name, dBConfig.SSLMode,
		)
	}

	serverConfig := ServerConfig{
		Port:         getEnv("SERVER_PORT", "8080"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 100 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	maxBody, err := strconv.ParseInt(getEnv("MAX_RESPONSE_BODY_SIZE", "10485760"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_RESPONSE_BODY_SIZE: %v", err)
	}
	requestTimeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %v", err)
	}
	allowPrivate, err := strconv.ParseBool(getEnv("ALLOW_PRIVATE_TARGETS", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid ALLOW_PRIVATE_TARGETS: %v", err)
	}
	transportConfig := TransportConfig{
		BaseURL:             os.Getenv("BASE_URL"),
		RequestTimeout:      requestTimeout,
		MaxRequestTimeout:   90 * time.Second,
		MaxResponseBodySize: maxBody,
		AllowPrivateTargets: allowPrivate,
	}
	if transportConfig.RequestTimeout > transportConfig.MaxRequestTimeout {
		return nil, fmt.Errorf("REQUEST_TIMEOUT of %v exceeds the maximum allowed limit of %v",
			transportConfig.RequestTimeout, transportConfig.MaxRequestTimeout)
	}

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %v", err)
	}
	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %v", err)
	}

	return &Config{
		Server:    serverConfig,
		DB:        dBConfig,
		Transport: transportConfig,
		RateLimit: RateLimitConfig{RPS: rps, Burst: burst},
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
