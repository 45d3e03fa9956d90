package config

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Supported cache drivers.
const (
	CacheRedis  = "redis"
	CacheMemory = "memory"
	CacheNone   = "none"
)

// Supported deployment environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int      `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string   `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	Environment     string   `mapstructure:"environment" validate:"required,oneof=development production test"`
	APIBaseURL      string   `mapstructure:"api_base_url" validate:"omitempty,url"`
	FrontendBaseURL string   `mapstructure:"frontend_base_url" validate:"omitempty,url"`
	AllowedOrigins  []string `mapstructure:"allowed_origins" validate:"dive,required"`
	MaxBodyBytes    int64    `mapstructure:"max_body_bytes" validate:"gt=0"`
}

// IsProduction reports whether the server runs in the production environment.
func (c ServerConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Origins returns the CORS allow-list. When none is configured explicitly the
// API and frontend base URLs are allowed.
func (c ServerConfig) Origins() []string {
	if len(c.AllowedOrigins) > 0 {
		return c.AllowedOrigins
	}
	var origins []string
	for _, o := range []string{c.APIBaseURL, c.FrontendBaseURL} {
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// DatabaseConfig contains all database-related configuration settings.
// URL wins over the individual connection parameters when set.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL          string `mapstructure:"url"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port" validate:"omitempty,gt=0,lt=65536"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
}

// DSN returns the connection string handed to the SQL driver.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Driver == DriverSQLite {
		if c.Name == "" {
			return ":memory:"
		}
		return c.Name
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   c.Host + ":" + strconv.Itoa(c.Port),
		Path:   "/" + c.Name,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	if c.SSLMode != "" {
		u.RawQuery = "sslmode=" + c.SSLMode
	}
	return u.String()
}

// CacheConfig contains the listing cache settings.
type CacheConfig struct {
	Driver     string `mapstructure:"driver" validate:"required,oneof=redis memory none"`
	Host       string `mapstructure:"host" validate:"required_if=Driver redis"`
	Port       int    `mapstructure:"port" validate:"omitempty,gt=0,lt=65536"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db" validate:"gte=0"`
	TTLSeconds int    `mapstructure:"ttl_seconds" validate:"gt=0"`
}

// Addr returns the host:port of the cache server.
func (c CacheConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TTL returns the listing cache time-to-live.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}
