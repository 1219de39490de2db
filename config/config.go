package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del tracker.
type Config struct {
	Tracker  TrackerConfig  `yaml:"tracker"`
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Telegram TelegramConfig `yaml:"telegram"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
}

// TrackerConfig controla el loop de polling.
type TrackerConfig struct {
	IntervalSeconds     int     `yaml:"interval_seconds"`
	Workers             int     `yaml:"workers"` // fetches concurrentes máximos
	FetchTimeoutSeconds int     `yaml:"fetch_timeout_seconds"`
	EmitTimeoutSeconds  int     `yaml:"emit_timeout_seconds"`
	MinShareChange      float64 `yaml:"min_share_change"` // 0 = solo epsilon
}

// APIConfig contiene la Data API de Polymarket.
type APIConfig struct {
	DataBase          string  `yaml:"data_base"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	PageLimit         int     `yaml:"page_limit"`
	MaxPages          int     `yaml:"max_pages"`
}

// StorageConfig controla dónde se persiste el watchlist.
type StorageConfig struct {
	Driver string `yaml:"driver"` // json | sqlite
	Path   string `yaml:"path"`   // fichero JSON o SQLite (":memory:" en tests)
}

// TelegramConfig contiene las credenciales del bot. Sin token ni chat_id las alertas
// salen por consola y no hay comandos por chat.
type TelegramConfig struct {
	Token              string `yaml:"token"`
	ChatID             string `yaml:"chat_id"`
	BaseURL            string `yaml:"base_url"`
	PollTimeoutSeconds int    `yaml:"poll_timeout_seconds"`
}

// HTTPConfig controla la API HTTP. Addr vacío la desactiva.
type HTTPConfig struct {
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"api_key"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben los valores del YAML. path vacío usa
// solo defaults y entorno.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Interval devuelve el intervalo de polling.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Tracker.IntervalSeconds) * time.Second
}

// FetchTimeout devuelve el timeout por wallet.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Tracker.FetchTimeoutSeconds) * time.Second
}

// EmitTimeout devuelve el timeout por alerta.
func (c *Config) EmitTimeout() time.Duration {
	return time.Duration(c.Tracker.EmitTimeoutSeconds) * time.Second
}

// PollTimeout devuelve el timeout del long-polling de Telegram.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.Telegram.PollTimeoutSeconds) * time.Second
}

// TelegramEnabled indica si hay credenciales para el bot.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.Token != "" && c.Telegram.ChatID != ""
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("WATCHLIST_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("HTTP_API_KEY"); v != "" {
		cfg.HTTP.APIKey = v
	}
	if v := os.Getenv("POLL_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tracker.IntervalSeconds = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Tracker.IntervalSeconds <= 0 {
		cfg.Tracker.IntervalSeconds = 30
	}
	if cfg.Tracker.Workers <= 0 {
		cfg.Tracker.Workers = 4
	}
	if cfg.Tracker.FetchTimeoutSeconds <= 0 {
		cfg.Tracker.FetchTimeoutSeconds = 10
	}
	if cfg.Tracker.EmitTimeoutSeconds <= 0 {
		cfg.Tracker.EmitTimeoutSeconds = 10
	}
	if cfg.Tracker.MinShareChange < 0 {
		cfg.Tracker.MinShareChange = 0
	}
	if cfg.API.DataBase == "" {
		cfg.API.DataBase = "https://data-api.polymarket.com"
	}
	if cfg.API.RequestsPerSecond <= 0 {
		cfg.API.RequestsPerSecond = 5
	}
	if cfg.API.PageLimit <= 0 {
		cfg.API.PageLimit = 500
	}
	if cfg.API.MaxPages <= 0 {
		cfg.API.MaxPages = 10
	}
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "json"
	}
	if cfg.Storage.Path == "" {
		if cfg.Storage.Driver == "sqlite" {
			cfg.Storage.Path = "watchlist.db"
		} else {
			cfg.Storage.Path = "watchlist.json"
		}
	}
	if cfg.Telegram.PollTimeoutSeconds <= 0 {
		cfg.Telegram.PollTimeoutSeconds = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "json", "sqlite":
	default:
		return fmt.Errorf("unknown storage driver %q (json|sqlite)", c.Storage.Driver)
	}
	return nil
}
