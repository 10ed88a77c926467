package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

// ErrInvalidConfig возвращается при некорректных значениях конфигурации
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config конфигурация сервиса
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Logs     LogsConfig     `toml:"logs"`
	Metrics  MetricsConfig  `toml:"metrics"`
	DayView  DayViewConfig  `toml:"day_view"`
}

// ServerConfig настройки HTTP сервера (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MetricsConfig настройки prometheus метрик
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// DayViewConfig настройки дневного представления записей
type DayViewConfig struct {
	Timezone           string `toml:"timezone"`
	Locale             string `toml:"locale"`
	SwipeThresholdPx   int    `toml:"swipe_threshold_px"`
	OpenTime           string `toml:"open_time"`
	CloseTime          string `toml:"close_time"`
	SlotStepMinutes    int    `toml:"slot_step_minutes"`
	QueryTimeout       int    `toml:"query_timeout"`        // секунды
	SessionIdleTimeout int    `toml:"session_idle_timeout"` // секунды, 0 = без ограничения
}

// Location возвращает временную зону салона
func (d DayViewConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: day_view.timezone %q: %v", ErrInvalidConfig, d.Timezone, err)
	}
	return loc, nil
}

// Load читает конфигурацию из TOML файла, применяет значения по умолчанию и валидирует её.
// Пароль БД можно переопределить переменной окружения DB_PASSWORD.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default конфигурация по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled:     true,
			Path:        "/metrics",
			ServiceName: "smc_salon_calendar",
		},
		DayView: DayViewConfig{
			Timezone:           "America/Sao_Paulo",
			Locale:             "pt-BR",
			SwipeThresholdPx:   100,
			OpenTime:           "08:00",
			CloseTime:          "20:00",
			SlotStepMinutes:    30,
			QueryTimeout:       10,
			SessionIdleTimeout: 1800,
		},
	}
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port must be in 1..65535", ErrInvalidConfig)
	}

	if c.Database.Host == "" || c.Database.DBName == "" {
		return fmt.Errorf("%w: database.host and database.dbname are required", ErrInvalidConfig)
	}

	if _, err := c.DayView.Location(); err != nil {
		return err
	}

	switch c.DayView.Locale {
	case "pt-BR", "en-US":
	default:
		return fmt.Errorf("%w: day_view.locale must be pt-BR or en-US", ErrInvalidConfig)
	}

	if c.DayView.SwipeThresholdPx <= 0 {
		return fmt.Errorf("%w: day_view.swipe_threshold_px must be positive", ErrInvalidConfig)
	}

	openTime, err := types.NewTimeStringFromString(c.DayView.OpenTime)
	if err != nil {
		return fmt.Errorf("%w: day_view.open_time: %v", ErrInvalidConfig, err)
	}
	closeTime, err := types.NewTimeStringFromString(c.DayView.CloseTime)
	if err != nil {
		return fmt.Errorf("%w: day_view.close_time: %v", ErrInvalidConfig, err)
	}
	if !openTime.IsBefore(closeTime) {
		return fmt.Errorf("%w: day_view.open_time must be before close_time", ErrInvalidConfig)
	}

	if c.DayView.SlotStepMinutes < 5 || c.DayView.SlotStepMinutes > 240 {
		return fmt.Errorf("%w: day_view.slot_step_minutes must be in 5..240", ErrInvalidConfig)
	}

	if c.DayView.QueryTimeout <= 0 {
		return fmt.Errorf("%w: day_view.query_timeout must be positive", ErrInvalidConfig)
	}

	if c.DayView.SessionIdleTimeout < 0 {
		return fmt.Errorf("%w: day_view.session_idle_timeout must not be negative", ErrInvalidConfig)
	}

	return nil
}
