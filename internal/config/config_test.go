package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/guardrail"
	"github.com/ppiont/spendsense/internal/signal"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, "template", cfg.StrategyName)
	assert.Equal(t, 3, cfg.Limit)
	assert.Equal(t, 3, cfg.OfferLimit)
	assert.Equal(t, 30, cfg.WindowDays)
	assert.Equal(t, signal.TierHighest, cfg.Tier())
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Empty(t, cfg.CatalogPath)
	assert.Equal(t, guardrail.DefaultEligibility(), cfg.Eligibility())

	r := cfg.Resilience()
	assert.Equal(t, 2*time.Second, r.Timeout)
	assert.Equal(t, uint32(3), r.MaxFailures)
	assert.Equal(t, 2, r.Retry.MaxAttempts)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
strategy:
  name: external
  timeout: 500ms
signals:
  tier_mode: cascade
guardrails:
  apr_cap: 30
  blocked_types: [payday_loan]
recommend:
  limit: 5
`), 0o600))

	t.Setenv("SPENDSENSE_RECOMMEND_OFFER_LIMIT", "1")

	v := newViper()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "external", cfg.StrategyName)
	assert.Equal(t, 500*time.Millisecond, cfg.Timeout)
	assert.Equal(t, signal.TierCascade, cfg.Tier())
	assert.Equal(t, 5, cfg.Limit)
	assert.Equal(t, 1, cfg.OfferLimit)
	assert.Equal(t, guardrail.Eligibility{BlockedTypes: []string{"payday_loan"}, APRCap: 30}, cfg.Eligibility())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		mutate func(*Config)
		name   string
	}{
		{name: "unknown strategy", mutate: func(c *Config) { c.StrategyName = "llm" }},
		{name: "unknown tier mode", mutate: func(c *Config) { c.TierMode = "all" }},
		{name: "zero limit", mutate: func(c *Config) { c.Limit = 0 }},
		{name: "negative offer limit", mutate: func(c *Config) { c.OfferLimit = -1 }},
		{name: "zero window", mutate: func(c *Config) { c.WindowDays = 0 }},
		{name: "negative apr cap", mutate: func(c *Config) { c.APRCap = -1 }},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }},
		{name: "bad tone pattern", mutate: func(c *Config) { c.TonePatterns = []string{"("} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), common.ErrInvalidConfig)
		})
	}

	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("SPENDSENSE_TEST_DIR", "/data")

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "~", want: home},
		{in: "~/catalog.yaml", want: filepath.Join(home, "catalog.yaml")},
		{in: "$SPENDSENSE_TEST_DIR/catalog.yaml", want: "/data/catalog.yaml"},
		{in: "/abs/path.yaml", want: "/abs/path.yaml"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandPath(tt.in), tt.in)
	}
}
