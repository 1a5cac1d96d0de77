// Package config loads application settings from a .env file and environment variables.
// Environment variables always take precedence over .env file values.
package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	// MySQL – either set MySQLDSN directly, or the individual fields.
	MySQLDSN   string
	DBHost     string `validate:"required_without=MySQLDSN"`
	DBPort     string `validate:"required_without=MySQLDSN"`
	DBUser     string `validate:"required_without=MySQLDSN"`
	DBPassword string
	DBName     string `validate:"required_without=MySQLDSN"`

	// Pool behaviour. QueueLimit 0 means callers queue without bound.
	ConnectionLimit    int `validate:"gte=1"`
	WaitForConnections bool
	QueueLimit         int `validate:"gte=0"`

	// Admin sign-in. JWT_SECRET is only required when ADMIN_AUTH is on.
	AdminAuth bool
	JWTSecret string `validate:"required_if=AdminAuth true"`

	// Server
	Debug      bool
	Env        string
	Port       string `validate:"required"`
	TLSDomains []string
}

// Load reads configuration from a .env file (if present) and then from
// environment variables. Environment variables always win.
func Load() *Config {
	cfg, err := load(newViper())
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func load(v *viper.Viper) (*Config, error) {
	// Defaults
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_NAME", "horse_racing")
	v.SetDefault("DB_CONNECTION_LIMIT", 10)
	v.SetDefault("DB_WAIT_FOR_CONNECTIONS", true)
	v.SetDefault("DB_QUEUE_LIMIT", 0)
	v.SetDefault("PORT", ":3000")
	v.SetDefault("DEBUG", false)
	v.SetDefault("ADMIN_AUTH", false)

	cfg := &Config{
		MySQLDSN:           v.GetString("MYSQL_DSN"),
		DBHost:             v.GetString("DB_HOST"),
		DBPort:             v.GetString("DB_PORT"),
		DBUser:             v.GetString("DB_USER"),
		DBPassword:         firstNonEmpty(v.GetString("DB_PASSWORD"), v.GetString("DB_PASS")),
		DBName:             v.GetString("DB_NAME"),
		ConnectionLimit:    v.GetInt("DB_CONNECTION_LIMIT"),
		WaitForConnections: v.GetBool("DB_WAIT_FOR_CONNECTIONS"),
		QueueLimit:         v.GetInt("DB_QUEUE_LIMIT"),
		AdminAuth:          v.GetBool("ADMIN_AUTH"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		Debug:              v.GetBool("DEBUG"),
		Env:                strings.ToLower(firstNonEmpty(v.GetString("APP_ENV"), v.GetString("NODE_ENV"), "production")),
		Port:               listenAddr(v.GetString("PORT")),
		TLSDomains:         splitTrimmed(v.GetString("TLS_DOMAINS")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DSN returns the MySQL data source name. MYSQL_DSN takes precedence over
// the individual fields.
func (c *Config) DSN() string {
	if c.MySQLDSN != "" {
		return c.MySQLDSN
	}
	mc := mysql.NewConfig()
	mc.User = c.DBUser
	mc.Passwd = c.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.DBHost, c.DBPort)
	mc.DBName = c.DBName
	return mc.FormatDSN()
}

// JWTKey returns the JWT signing key as a byte slice.
func (c *Config) JWTKey() []byte {
	return []byte(c.JWTSecret)
}

// Development reports whether error responses may carry debugging detail.
func (c *Config) Development() bool {
	return c.Env == "development"
}

func (c *Config) validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation failed: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_if", "required_without":
			msgs = append(msgs, fmt.Sprintf("%s must be set", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func newViper() *viper.Viper {
	// Silently load .env – OK if the file doesn't exist (production uses real env vars).
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables only")
	}

	v := viper.New()
	v.AutomaticEnv()
	return v
}

// listenAddr accepts both "3000" and ":3000".
func listenAddr(port string) string {
	port = strings.TrimSpace(port)
	if port != "" && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
