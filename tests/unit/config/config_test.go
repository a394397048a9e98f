package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"billsight/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	assert.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)

	assert.Equal(t, 30, cfg.Fetcher.TimeoutSecs)
	assert.Equal(t, int64(50), cfg.Fetcher.MaxFileSizeMB)
	assert.Equal(t, 48, cfg.Fetcher.MaxPages)

	assert.Equal(t, "gemini", cfg.Vision.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.Vision.DefaultModel)
	assert.Equal(t, 2, cfg.Vision.MaxRetries)
	assert.Equal(t, 60, cfg.Vision.TimeoutSecs)

	assert.InDelta(t, 0.30, cfg.Fraud.WhiteningWeight, 1e-9)
	assert.InDelta(t, 0.20, cfg.Fraud.FontWeight, 1e-9)
	assert.InDelta(t, 0.25, cfg.Fraud.ManipulationWeight, 1e-9)
	assert.InDelta(t, 0.15, cfg.Fraud.MathWeight, 1e-9)
	assert.Equal(t, 3, cfg.Fraud.MathErrorCap)
	assert.InDelta(t, 0.30, cfg.Fraud.ApproveBelow, 1e-9)
	assert.InDelta(t, 0.70, cfg.Fraud.RejectAt, 1e-9)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BILLSIGHT_SERVER_PORT", ":9999")
	t.Setenv("BILLSIGHT_VISION_API_KEY", "secret-key")
	t.Setenv("BILLSIGHT_VISION_DEFAULT_MODEL", "gemini-2.5-pro")
	t.Setenv("BILLSIGHT_FETCHER_MAX_PAGES", "10")
	t.Setenv("BILLSIGHT_FRAUD_REJECT_AT", "0.8")

	cfg, err := config.Load()
	assert.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Port)
	assert.Equal(t, "secret-key", cfg.Vision.APIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.Vision.DefaultModel)
	assert.Equal(t, 10, cfg.Fetcher.MaxPages)
	assert.InDelta(t, 0.8, cfg.Fraud.RejectAt, 1e-9)
}

func TestLoad_PlatformPortFallback(t *testing.T) {
	t.Setenv("PORT", "3000")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Server.Port)
}

func TestVisionConfig_PrimaryFallsBackToFlatFields(t *testing.T) {
	t.Setenv("BILLSIGHT_VISION_API_KEY", "flat-key")

	cfg, err := config.Load()
	assert.NoError(t, err)

	primary := cfg.Vision.PrimaryConfig()
	assert.Equal(t, "gemini", primary.Provider)
	assert.Equal(t, "flat-key", primary.APIKey)
	assert.Nil(t, cfg.Vision.SecondaryConfig())
	assert.Nil(t, cfg.Vision.TertiaryConfig())
}

func TestVisionConfig_MultiProvider(t *testing.T) {
	t.Setenv("BILLSIGHT_VISION_PRIMARY_PROVIDER", "gemini")
	t.Setenv("BILLSIGHT_VISION_PRIMARY_API_KEY", "key-a")
	t.Setenv("BILLSIGHT_VISION_SECONDARY_PROVIDER", "gemini")
	t.Setenv("BILLSIGHT_VISION_SECONDARY_API_KEY", "key-b")

	cfg, err := config.Load()
	assert.NoError(t, err)

	assert.Equal(t, "key-a", cfg.Vision.PrimaryConfig().APIKey)
	secondary := cfg.Vision.SecondaryConfig()
	assert.NotNil(t, secondary)
	assert.Equal(t, "key-b", secondary.APIKey)
}
