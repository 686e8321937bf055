// Package config загружает настройки клиента и сервера.
// Приоритет: флаги командной строки, переменные окружения ROWSYNC_*,
// файл конфигурации, значения по умолчанию.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix префикс переменных окружения
const EnvPrefix = "ROWSYNC"

// ErrInvalidConfig возвращается при недопустимых значениях настроек
var ErrInvalidConfig = errors.New("invalid config")

// Log настройки логирования
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Server настройки сервера
type Server struct {
	Log             Log           `mapstructure:"log"`
	Addr            string        `mapstructure:"addr"`
	Fixtures        string        `mapstructure:"fixtures"`
	RateLimit       int           `mapstructure:"rate_limit"`
	RateWindow      time.Duration `mapstructure:"rate_window"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Client настройки клиента
type Client struct {
	Log     Log           `mapstructure:"log"`
	Server  string        `mapstructure:"server"`
	DB      string        `mapstructure:"db"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// serverFlags сопоставляет ключи настроек с именами флагов
var serverFlags = map[string]string{
	"addr":             "addr",
	"fixtures":         "fixtures",
	"rate_limit":       "rate-limit",
	"rate_window":      "rate-window",
	"shutdown_timeout": "shutdown-timeout",
	"log.level":        "log-level",
	"log.format":       "log-format",
}

var clientFlags = map[string]string{
	"server":     "server",
	"db":         "db",
	"timeout":    "timeout",
	"log.level":  "log-level",
	"log.format": "log-format",
}

// ServerFlags регистрирует флаги сервера
func ServerFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to config file (yaml, json, toml)")
	fs.String("addr", ":8080", "HTTP listen address")
	fs.String("fixtures", "", "Path to YAML file with view definitions")
	fs.Int("rate-limit", 100, "Requests allowed per client within rate window")
	fs.Duration("rate-window", time.Minute, "Rate limit window")
	fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	fs.String("log-format", "text", "Log format (text, json)")
}

// ClientFlags регистрирует флаги клиента
func ClientFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to config file (yaml, json, toml)")
	fs.String("server", "http://localhost:8080", "Server URL")
	fs.String("db", "rowsync-client.db", "Path to local database")
	fs.Duration("timeout", 30*time.Second, "HTTP request timeout")
	fs.String("log-level", "warn", "Log level (debug, info, warn, error)")
	fs.String("log-format", "text", "Log format (text, json)")
}

// LoadServer загружает настройки сервера
func LoadServer(fs *pflag.FlagSet) (*Server, error) {
	var cfg Server
	if err := load(fs, serverFlags, &cfg); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr is required", ErrInvalidConfig)
	}
	if cfg.RateLimit <= 0 || cfg.RateWindow <= 0 {
		return nil, fmt.Errorf("%w: rate limit and window must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}

// LoadClient загружает настройки клиента
func LoadClient(fs *pflag.FlagSet) (*Client, error) {
	var cfg Client
	if err := load(fs, clientFlags, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server == "" || cfg.DB == "" {
		return nil, fmt.Errorf("%w: server and db are required", ErrInvalidConfig)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}

func load(fs *pflag.FlagSet, flags map[string]string, target any) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// значения по умолчанию берутся из флагов, чтобы Unmarshal видел все ключи
	for key, name := range flags {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		v.SetDefault(key, flag.DefValue)
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	if configFile, err := fs.GetString("config"); err == nil && configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(target); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}
