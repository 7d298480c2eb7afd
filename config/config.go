package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where cmd/server looks for the YAML file.
const DefaultPath = "config/config.yaml"

// Config is the application configuration. It is built once at startup and
// passed by pointer to the constructors that need it.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Redis     RedisConfig     `yaml:"redis"`
	WebSocket WebSocketConfig `yaml:"websocket"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port            string        `yaml:"port" env:"SERVER_PORT"`                       // listen port
	Mode            string        `yaml:"mode" env:"GIN_MODE"`                          // gin mode: debug/release/test
	ReadTimeout     time.Duration `yaml:"readTimeout" env:"SERVER_READ_TIMEOUT"`         // read timeout
	WriteTimeout    time.Duration `yaml:"writeTimeout" env:"SERVER_WRITE_TIMEOUT"`       // write timeout
	IdleTimeout     time.Duration `yaml:"idleTimeout" env:"SERVER_IDLE_TIMEOUT"`         // keep-alive idle timeout
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"SERVER_SHUTDOWN_TIMEOUT"` // graceful shutdown budget
}

// DatabaseConfig relational store settings
type DatabaseConfig struct {
	DSN      string `yaml:"dsn" env:"DATABASE_URL"` // full connection string, wins over the fields below
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	Username string `yaml:"username" env:"DB_USERNAME"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Database string `yaml:"database" env:"DB_DATABASE"`
	Charset  string `yaml:"charset" env:"DB_CHARSET"`
	MaxIdle  int    `yaml:"maxIdle" env:"DB_MAX_IDLE"` // max idle connections
	MaxOpen  int    `yaml:"maxOpen" env:"DB_MAX_OPEN"` // max open connections
	LogSQL   bool   `yaml:"logSQL" env:"DB_LOG_SQL"`   // log every statement through gorm
}

// JWTConfig identity token settings
type JWTConfig struct {
	Secret     string        `yaml:"secret" env:"SECRET_KEY"`          // HS256 signing key
	Issuer     string        `yaml:"issuer" env:"JWT_ISSUER"`          // optional iss claim, required on verify when set
	ExpireTime time.Duration `yaml:"expireTime" env:"JWT_EXPIRE_TIME"` // optional exp, 0 issues non-expiring tokens
}

// AuthConfig request authentication settings
type AuthConfig struct {
	TokenField  string `yaml:"tokenField" env:"AUTH_TOKEN_FIELD"`   // body/query field carrying the token
	AllowBearer bool   `yaml:"allowBearer" env:"AUTH_ALLOW_BEARER"` // also accept Authorization: Bearer
	BcryptCost  int    `yaml:"bcryptCost" env:"BCRYPT_COST"`        // password hash work factor
}

// LogConfig logging settings
type LogConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Filename   string `yaml:"filename" env:"LOG_FILENAME"` // empty logs to stdout
	MaxSize    int    `yaml:"maxSize" env:"LOG_MAX_SIZE"`  // MB per file
	MaxBackups int    `yaml:"maxBackups" env:"LOG_MAX_BACKUPS"`
	MaxAge     int    `yaml:"maxAge" env:"LOG_MAX_AGE"` // days
	Compress   bool   `yaml:"compress" env:"LOG_COMPRESS"`
}

// RedisConfig cache settings
type RedisConfig struct {
	Enabled        bool          `yaml:"enabled" env:"REDIS_ENABLED"`
	Host           string        `yaml:"host" env:"REDIS_HOST"`
	Port           int           `yaml:"port" env:"REDIS_PORT"`
	Password       string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB             int           `yaml:"db" env:"REDIS_DB"`
	ParticipantTTL time.Duration `yaml:"participantTTL" env:"REDIS_PARTICIPANT_TTL"` // message participants cache TTL
}

// WebSocketConfig heartbeat settings
type WebSocketConfig struct {
	PingInterval time.Duration `yaml:"pingInterval" env:"WS_PING_INTERVAL"`
	ReadTimeout  time.Duration `yaml:"readTimeout" env:"WS_READ_TIMEOUT"` // drop the connection after this long without a frame
}

// LoadConfig loads defaults, then the YAML file at path, then environment
// overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := getDefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required (SECRET_KEY)")
	}
	if c.Auth.TokenField == "" && !c.Auth.AllowBearer {
		return errors.New("no token transport enabled")
	}
	if c.Database.DSN == "" && c.Database.Host == "" {
		return errors.New("database host or DATABASE_URL is required")
	}
	if _, err := c.Database.ConnString(); err != nil {
		return err
	}
	return nil
}

// ConnString returns DATABASE_URL when set, otherwise a DSN built from the
// individual fields. parseTime and loc=UTC are always forced so DATETIME(6)
// columns scan into time.Time.
func (d DatabaseConfig) ConnString() (string, error) {
	if d.DSN != "" {
		mc, err := mysql.ParseDSN(d.DSN)
		if err != nil {
			return "", fmt.Errorf("parse DATABASE_URL: %w", err)
		}
		mc.ParseTime = true
		mc.Loc = time.UTC
		return mc.FormatDSN(), nil
	}
	mc := mysql.NewConfig()
	mc.User = d.Username
	mc.Passwd = d.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	mc.DBName = d.Database
	mc.ParseTime = true
	mc.Loc = time.UTC
	if d.Charset != "" {
		mc.Params = map[string]string{"charset": d.Charset}
	}
	return mc.FormatDSN(), nil
}

// Addr returns host:port for the redis client.
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			Mode:            "release",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     3306,
			Username: "messagely",
			Database: "messagely",
			Charset:  "utf8mb4",
			MaxIdle:  10,
			MaxOpen:  100,
		},
		Auth: AuthConfig{
			TokenField:  "_token",
			AllowBearer: true,
			BcryptCost:  10,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
		Redis: RedisConfig{
			Host:           "localhost",
			Port:           6379,
			ParticipantTTL: time.Hour,
		},
		WebSocket: WebSocketConfig{
			PingInterval: 30 * time.Second,
			ReadTimeout:  90 * time.Second,
		},
	}
}
