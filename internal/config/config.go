package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/guardrail"
	"github.com/ppiont/spendsense/internal/signal"
	"github.com/ppiont/spendsense/internal/strategy"
)

// EnvPrefix is the prefix for environment overrides, e.g. SPENDSENSE_STRATEGY_NAME.
const EnvPrefix = "SPENDSENSE"

// Config is the full application configuration.
type Config struct {
	CatalogPath   string
	DatabasePath  string
	StrategyName  string
	TierMode      string
	LogLevel      string
	LogFormat     string
	BlockedTypes  []string
	TonePatterns  []string
	Limit         int
	OfferLimit    int
	WindowDays    int
	Concurrency   int
	APRCap        float64
	Timeout       time.Duration
	RetryAttempts int
	MaxFailures   uint32
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DatabasePath:  defaultDatabasePath(),
		StrategyName:  strategy.NameTemplate,
		TierMode:      string(signal.TierHighest),
		LogLevel:      "info",
		LogFormat:     "console",
		BlockedTypes:  append([]string(nil), guardrail.DefaultBlockedTypes...),
		Limit:         3,
		OfferLimit:    3,
		WindowDays:    30,
		Concurrency:   8,
		APRCap:        guardrail.DefaultAPRCap,
		Timeout:       2 * time.Second,
		RetryAttempts: 2,
		MaxFailures:   3,
	}
}

// SetDefaults registers every key with its default so env overrides and
// Unmarshal see the full key set.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("catalog.path", d.CatalogPath)
	v.SetDefault("database.path", d.DatabasePath)
	v.SetDefault("recommend.limit", d.Limit)
	v.SetDefault("recommend.offer_limit", d.OfferLimit)
	v.SetDefault("recommend.window_days", d.WindowDays)
	v.SetDefault("strategy.name", d.StrategyName)
	v.SetDefault("strategy.timeout", d.Timeout)
	v.SetDefault("strategy.retry_attempts", d.RetryAttempts)
	v.SetDefault("strategy.max_failures", d.MaxFailures)
	v.SetDefault("signals.tier_mode", d.TierMode)
	v.SetDefault("guardrails.apr_cap", d.APRCap)
	v.SetDefault("guardrails.blocked_types", d.BlockedTypes)
	v.SetDefault("guardrails.tone_patterns", d.TonePatterns)
	v.SetDefault("eval.concurrency", d.Concurrency)
	v.SetDefault("logging.level", d.LogLevel)
	v.SetDefault("logging.format", d.LogFormat)
}

// Load reads configuration from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Config{
		CatalogPath:   ExpandPath(v.GetString("catalog.path")),
		DatabasePath:  ExpandPath(v.GetString("database.path")),
		Limit:         v.GetInt("recommend.limit"),
		OfferLimit:    v.GetInt("recommend.offer_limit"),
		WindowDays:    v.GetInt("recommend.window_days"),
		StrategyName:  v.GetString("strategy.name"),
		Timeout:       v.GetDuration("strategy.timeout"),
		RetryAttempts: v.GetInt("strategy.retry_attempts"),
		MaxFailures:   v.GetUint32("strategy.max_failures"),
		TierMode:      v.GetString("signals.tier_mode"),
		APRCap:        v.GetFloat64("guardrails.apr_cap"),
		BlockedTypes:  v.GetStringSlice("guardrails.blocked_types"),
		TonePatterns:  v.GetStringSlice("guardrails.tone_patterns"),
		Concurrency:   v.GetInt("eval.concurrency"),
		LogLevel:      v.GetString("logging.level"),
		LogFormat:     v.GetString("logging.format"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.StrategyName {
	case strategy.NameTemplate, strategy.NameExternal:
	default:
		return fmt.Errorf("%w: unknown strategy %q", common.ErrInvalidConfig, c.StrategyName)
	}
	if _, err := signal.ParseTierMode(c.TierMode); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	if c.Limit < 1 {
		return fmt.Errorf("%w: recommend.limit must be at least 1", common.ErrInvalidConfig)
	}
	if c.OfferLimit < 0 {
		return fmt.Errorf("%w: recommend.offer_limit cannot be negative", common.ErrInvalidConfig)
	}
	if c.WindowDays < 1 {
		return fmt.Errorf("%w: recommend.window_days must be positive", common.ErrInvalidConfig)
	}
	if c.APRCap < 0 {
		return fmt.Errorf("%w: guardrails.apr_cap cannot be negative", common.ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: strategy.timeout must be positive", common.ErrInvalidConfig)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: eval.concurrency must be at least 1", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := guardrail.NewToneScreen(c.TonePatterns); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	return nil
}

// Eligibility returns the global eligibility guardrail settings.
func (c *Config) Eligibility() guardrail.Eligibility {
	return guardrail.Eligibility{
		BlockedTypes: append([]string(nil), c.BlockedTypes...),
		APRCap:       c.APRCap,
	}
}

// Tier returns the validated tier mode.
func (c *Config) Tier() signal.TierMode {
	mode, _ := signal.ParseTierMode(c.TierMode)
	return mode
}

// Resilience returns the external strategy guard settings.
func (c *Config) Resilience() strategy.Resilience {
	r := strategy.DefaultResilience()
	r.Timeout = c.Timeout
	r.MaxFailures = c.MaxFailures
	if c.RetryAttempts > 0 {
		r.Retry.MaxAttempts = c.RetryAttempts
	}
	return r
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "spendsense.db"
	}
	return filepath.Join(home, ".local", "share", "spendsense", "spendsense.db")
}
