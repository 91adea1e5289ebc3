package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/quantegy/tradepulse/internal/gate"
	"github.com/quantegy/tradepulse/internal/regime"
	"github.com/quantegy/tradepulse/internal/regime/router"
	"github.com/quantegy/tradepulse/internal/risk"
	"github.com/quantegy/tradepulse/internal/scoring"
	"github.com/quantegy/tradepulse/internal/strategy"
)

// Config is the full runtime configuration. Component sections start from
// their package defaults; YAML overrides what it names. The engine takes an
// immutable snapshot at cycle start, so edits mid-cycle never mix.
type Config struct {
	Environment string `yaml:"environment" default:"dev" validate:"oneof=dev staging prod"`

	Symbol        string        `yaml:"symbol" default:"BTCUSDT" validate:"required"`
	Timeframe     string        `yaml:"timeframe" default:"1m"`
	CycleInterval time.Duration `yaml:"cycle_interval" default:"15s" validate:"gt=0"`

	// VetoCooldown holds entries off for this long after a shock veto
	// clears, so a veto flickering on and off cannot re-admit entries
	// bar by bar.
	VetoCooldown time.Duration `yaml:"veto_cooldown" default:"5m"`

	Server struct {
		Addr            string        `yaml:"addr" default:":8087"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`

	Postgres struct {
		Enabled bool   `yaml:"enabled"`
		DSN     string `yaml:"dsn"`
	} `yaml:"postgres"`

	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr" default:"localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl" default:"5m"`
	} `yaml:"redis"`

	Feed struct {
		WebSocketURL   string        `yaml:"websocket_url" default:"wss://stream.binance.com:9443/ws"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
		RateLimitRPS   float64       `yaml:"rate_limit_rps" default:"10"`
	} `yaml:"feed"`

	Classifier    regime.ClassifierConfig      `yaml:"classifier"`
	Router        router.Config                `yaml:"router"`
	Gate          gate.Config                  `yaml:"gate"`
	Triggers      gate.TriggerConfig           `yaml:"triggers"`
	Technical     scoring.TechnicalConfig      `yaml:"technical"`
	Position      scoring.PositionConfig       `yaml:"position"`
	Modifier      scoring.ModifierConfig       `yaml:"modifier"`
	Risk          risk.Config                  `yaml:"risk"`
	StaticRange   strategy.StaticRangeConfig   `yaml:"static_range"`
	VolatileRange strategy.VolatileRangeConfig `yaml:"volatile_range"`
	ShockBreakout strategy.ShockBreakoutConfig `yaml:"shock_breakout"`
}

var validate = validator.New()

// Default returns the built-in configuration with every component section
// at its package defaults.
func Default() *Config {
	c := &Config{
		Classifier:    regime.DefaultClassifierConfig(),
		Router:        router.DefaultConfig(),
		Gate:          gate.DefaultConfig(),
		Triggers:      gate.DefaultTriggerConfig(),
		Technical:     scoring.DefaultTechnicalConfig(),
		Position:      scoring.DefaultPositionConfig(),
		Modifier:      scoring.DefaultModifierConfig(),
		Risk:          risk.DefaultConfig(),
		StaticRange:   strategy.DefaultStaticRangeConfig(),
		VolatileRange: strategy.DefaultVolatileRangeConfig(),
		ShockBreakout: strategy.DefaultShockBreakoutConfig(),
	}
	if err := defaults.Set(c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return c
}

// Load reads a YAML file over the built-in defaults and validates the
// result. An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(c)

	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func applyEnv(c *Config) {
	if v := os.Getenv("TRADEPULSE_SYMBOL"); v != "" {
		c.Symbol = v
	}
	if v := os.Getenv("TRADEPULSE_POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
		c.Postgres.Enabled = true
	}
	if v := os.Getenv("TRADEPULSE_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
}
