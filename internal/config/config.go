// Package config loads server settings from an optional file and ISUCON_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hash-not-analog/isuconquest/internal/logger"
)

type Config struct {
	Server ServerConfig  `mapstructure:"server"`
	DB     DBConfig      `mapstructure:"db"`
	IDGen  IDGenConfig   `mapstructure:"idgen"`
	Log    logger.Config `mapstructure:"log"`
}

type ServerConfig struct {
	Addr         string   `mapstructure:"addr"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// IDGenConfig id_generator 用の接続設定
type IDGenConfig struct {
	MaxAttempts  int `mapstructure:"max_attempts"`
	MaxOpenConns int `mapstructure:"max_open_conns"`
}

// envBindings 既存の環境変数名との対応
var envBindings = map[string]string{
	"server.addr":        "ISUCON_LISTEN_ADDR",
	"db.host":            "ISUCON_DB_HOST",
	"db.port":            "ISUCON_DB_PORT",
	"db.user":            "ISUCON_DB_USER",
	"db.password":        "ISUCON_DB_PASSWORD",
	"db.name":            "ISUCON_DB_NAME",
	"log.level":          "ISUCON_LOG_LEVEL",
	"log.format":         "ISUCON_LOG_FORMAT",
	"idgen.max_attempts": "ISUCON_IDGEN_MAX_ATTEMPTS",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("db.host", "127.0.0.1")
	v.SetDefault("db.port", "3306")
	v.SetDefault("db.user", "isucon")
	v.SetDefault("db.password", "isucon")
	v.SetDefault("db.name", "isucon")
	v.SetDefault("db.max_open_conns", 0)
	// プール内に保持できるアイドル接続数の制限を設定 (default: 2)
	v.SetDefault("db.max_idle_conns", 1024)
	v.SetDefault("db.conn_max_lifetime", time.Duration(0))
	v.SetDefault("db.conn_max_idle_time", time.Duration(0))

	v.SetDefault("idgen.max_attempts", 100)
	v.SetDefault("idgen.max_open_conns", 16)

	v.SetDefault("log.level", string(logger.InfoLevel))
	v.SetDefault("log.format", string(logger.ConsoleFormat))
	v.SetDefault("log.development", false)
}

// Load reads path when it is not empty, then overlays environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ISUCON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.IDGen.MaxAttempts < 1 {
		return fmt.Errorf("idgen.max_attempts must be positive: %d", c.IDGen.MaxAttempts)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is empty")
	}
	return c.Log.Validate()
}
