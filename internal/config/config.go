package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"

	DefaultSQLitePath = "todo.db"
	DefaultMySQLPort  = 3306

	envPrefix = "TODO"
)

// Config keeps runtime settings for the task list.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Digest   DigestConfig   `mapstructure:"digest"`
}

// DatabaseConfig selects the backend and carries its connection parameters.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" validate:"required,oneof=sqlite mysql"`
	Path     string `mapstructure:"path" validate:"required_if=Driver sqlite"`
	Host     string `mapstructure:"host" validate:"required_if=Driver mysql"`
	Port     int    `mapstructure:"port" validate:"omitempty,gt=0,lt=65536"`
	Name     string `mapstructure:"name" validate:"required_if=Driver mysql"`
	User     string `mapstructure:"user" validate:"required_if=Driver mysql"`
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// TelegramConfig enables the Telegram front end. Only OwnerID may talk to the bot.
type TelegramConfig struct {
	Token   string `mapstructure:"token"`
	OwnerID int64  `mapstructure:"owner_id" validate:"required_with=Token"`
}

// DigestConfig schedules the open-task digest. Time wins over Interval; both empty disables it.
type DigestConfig struct {
	Time     string        `mapstructure:"time" validate:"omitempty,datetime=15:04"`
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"`
}

// Load reads configuration from an optional file and TODO_* environment variables.
// Environment variables take precedence over the file.
func Load(configFile string) (Config, error) {
	v := viper.New()

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", DefaultSQLitePath)
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", DefaultMySQLPort)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.owner_id", 0)
	v.SetDefault("digest.time", "")
	v.SetDefault("digest.interval", time.Duration(0))

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", configFile, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)
	cfg.Digest.Time = strings.TrimSpace(cfg.Digest.Time)

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the struct tags and returns one error naming every failing field.
func Validate(cfg Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// TelegramEnabled reports whether the Telegram front end should run.
func (c Config) TelegramEnabled() bool {
	return c.Telegram.Token != ""
}
