package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	CORS    CORSConfig
	Fetcher FetcherConfig
	Vision  VisionConfig
	Fraud   FraudConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// FetcherConfig holds document download settings.
type FetcherConfig struct {
	TimeoutSecs   int   `mapstructure:"timeout_secs"`
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
	MaxPages      int   `mapstructure:"max_pages"`
}

// VisionProviderConfig holds settings for a single vision model provider.
type VisionProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// VisionConfig holds vision model settings with multi-provider support.
type VisionConfig struct {
	// Legacy flat fields (backwards-compatible)
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`

	// Multi-provider fields
	Primary   VisionProviderConfig `mapstructure:"primary"`
	Secondary VisionProviderConfig `mapstructure:"secondary"`
	Tertiary  VisionProviderConfig `mapstructure:"tertiary"`
}

// PrimaryConfig returns the primary provider config, falling back to
// the legacy flat fields.
func (v *VisionConfig) PrimaryConfig() *VisionProviderConfig {
	if v.Primary.Provider != "" {
		return &v.Primary
	}
	return &VisionProviderConfig{
		Provider:     v.Provider,
		APIKey:       v.APIKey,
		DefaultModel: v.DefaultModel,
		MaxRetries:   v.MaxRetries,
		TimeoutSecs:  v.TimeoutSecs,
	}
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (v *VisionConfig) SecondaryConfig() *VisionProviderConfig {
	if v.Secondary.Provider != "" {
		return &v.Secondary
	}
	return nil
}

// TertiaryConfig returns the tertiary provider config, or nil if not configured.
func (v *VisionConfig) TertiaryConfig() *VisionProviderConfig {
	if v.Tertiary.Provider != "" {
		return &v.Tertiary
	}
	return nil
}

// FraudConfig holds the signal combination policy. Weights are the
// per-detector contribution to technical risk; the math weight is
// applied once per confirmed arithmetic error up to math_error_cap.
type FraudConfig struct {
	WhiteningWeight    float64 `mapstructure:"whitening_weight"`
	FontWeight         float64 `mapstructure:"font_weight"`
	ManipulationWeight float64 `mapstructure:"manipulation_weight"`
	MathWeight         float64 `mapstructure:"math_weight"`
	MathErrorCap       int     `mapstructure:"math_error_cap"`
	ApproveBelow       float64 `mapstructure:"approve_below"`
	RejectAt           float64 `mapstructure:"reject_at"`
}

// Load reads configuration from environment variables with the
// BILLSIGHT_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BILLSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Fetcher defaults
	v.SetDefault("fetcher.timeout_secs", 30)
	v.SetDefault("fetcher.max_file_size_mb", 50)
	v.SetDefault("fetcher.max_pages", 48)

	// Vision defaults (legacy flat)
	v.SetDefault("vision.provider", "gemini")
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.default_model", "gemini-2.0-flash")
	v.SetDefault("vision.max_retries", 2)
	v.SetDefault("vision.timeout_secs", 60)

	// Vision primary/secondary/tertiary defaults
	for _, tier := range []string{"primary", "secondary", "tertiary"} {
		v.SetDefault("vision."+tier+".provider", "")
		v.SetDefault("vision."+tier+".api_key", "")
		v.SetDefault("vision."+tier+".default_model", "")
		v.SetDefault("vision."+tier+".max_retries", 2)
		v.SetDefault("vision."+tier+".timeout_secs", 60)
	}

	// Fraud policy defaults. The math weight applies once per
	// confirmed arithmetic error, capped by math_error_cap.
	v.SetDefault("fraud.whitening_weight", 0.30)
	v.SetDefault("fraud.font_weight", 0.20)
	v.SetDefault("fraud.manipulation_weight", 0.25)
	v.SetDefault("fraud.math_weight", 0.15)
	v.SetDefault("fraud.math_error_cap", 3)
	v.SetDefault("fraud.approve_below", 0.30)
	v.SetDefault("fraud.reject_at", 0.70)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                    "BILLSIGHT_SERVER_PORT",
		"server.read_timeout":            "BILLSIGHT_SERVER_READ_TIMEOUT",
		"server.write_timeout":           "BILLSIGHT_SERVER_WRITE_TIMEOUT",
		"server.environment":             "BILLSIGHT_SERVER_ENVIRONMENT",
		"log.level":                      "BILLSIGHT_LOG_LEVEL",
		"log.format":                     "BILLSIGHT_LOG_FORMAT",
		"cors.allowed_origins":           "BILLSIGHT_CORS_ALLOWED_ORIGINS",
		"fetcher.timeout_secs":           "BILLSIGHT_FETCHER_TIMEOUT_SECS",
		"fetcher.max_file_size_mb":       "BILLSIGHT_FETCHER_MAX_FILE_SIZE_MB",
		"fetcher.max_pages":              "BILLSIGHT_FETCHER_MAX_PAGES",
		"vision.provider":                "BILLSIGHT_VISION_PROVIDER",
		"vision.api_key":                 "BILLSIGHT_VISION_API_KEY",
		"vision.default_model":           "BILLSIGHT_VISION_DEFAULT_MODEL",
		"vision.max_retries":             "BILLSIGHT_VISION_MAX_RETRIES",
		"vision.timeout_secs":            "BILLSIGHT_VISION_TIMEOUT_SECS",
		"vision.primary.provider":        "BILLSIGHT_VISION_PRIMARY_PROVIDER",
		"vision.primary.api_key":         "BILLSIGHT_VISION_PRIMARY_API_KEY",
		"vision.primary.default_model":   "BILLSIGHT_VISION_PRIMARY_DEFAULT_MODEL",
		"vision.primary.max_retries":     "BILLSIGHT_VISION_PRIMARY_MAX_RETRIES",
		"vision.primary.timeout_secs":    "BILLSIGHT_VISION_PRIMARY_TIMEOUT_SECS",
		"vision.secondary.provider":      "BILLSIGHT_VISION_SECONDARY_PROVIDER",
		"vision.secondary.api_key":       "BILLSIGHT_VISION_SECONDARY_API_KEY",
		"vision.secondary.default_model": "BILLSIGHT_VISION_SECONDARY_DEFAULT_MODEL",
		"vision.secondary.max_retries":   "BILLSIGHT_VISION_SECONDARY_MAX_RETRIES",
		"vision.secondary.timeout_secs":  "BILLSIGHT_VISION_SECONDARY_TIMEOUT_SECS",
		"vision.tertiary.provider":       "BILLSIGHT_VISION_TERTIARY_PROVIDER",
		"vision.tertiary.api_key":        "BILLSIGHT_VISION_TERTIARY_API_KEY",
		"vision.tertiary.default_model":  "BILLSIGHT_VISION_TERTIARY_DEFAULT_MODEL",
		"vision.tertiary.max_retries":    "BILLSIGHT_VISION_TERTIARY_MAX_RETRIES",
		"vision.tertiary.timeout_secs":   "BILLSIGHT_VISION_TERTIARY_TIMEOUT_SECS",
		"fraud.whitening_weight":         "BILLSIGHT_FRAUD_WHITENING_WEIGHT",
		"fraud.font_weight":              "BILLSIGHT_FRAUD_FONT_WEIGHT",
		"fraud.manipulation_weight":      "BILLSIGHT_FRAUD_MANIPULATION_WEIGHT",
		"fraud.math_weight":              "BILLSIGHT_FRAUD_MATH_WEIGHT",
		"fraud.math_error_cap":           "BILLSIGHT_FRAUD_MATH_ERROR_CAP",
		"fraud.approve_below":            "BILLSIGHT_FRAUD_APPROVE_BELOW",
		"fraud.reject_at":                "BILLSIGHT_FRAUD_REJECT_AT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if
	// BILLSIGHT_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("BILLSIGHT_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Fetcher = FetcherConfig{
		TimeoutSecs:   v.GetInt("fetcher.timeout_secs"),
		MaxFileSizeMB: v.GetInt64("fetcher.max_file_size_mb"),
		MaxPages:      v.GetInt("fetcher.max_pages"),
	}

	cfg.Vision = VisionConfig{
		Provider:     v.GetString("vision.provider"),
		APIKey:       v.GetString("vision.api_key"),
		DefaultModel: v.GetString("vision.default_model"),
		MaxRetries:   v.GetInt("vision.max_retries"),
		TimeoutSecs:  v.GetInt("vision.timeout_secs"),
		Primary:      providerConfig(v, "primary"),
		Secondary:    providerConfig(v, "secondary"),
		Tertiary:     providerConfig(v, "tertiary"),
	}

	cfg.Fraud = FraudConfig{
		WhiteningWeight:    v.GetFloat64("fraud.whitening_weight"),
		FontWeight:         v.GetFloat64("fraud.font_weight"),
		ManipulationWeight: v.GetFloat64("fraud.manipulation_weight"),
		MathWeight:         v.GetFloat64("fraud.math_weight"),
		MathErrorCap:       v.GetInt("fraud.math_error_cap"),
		ApproveBelow:       v.GetFloat64("fraud.approve_below"),
		RejectAt:           v.GetFloat64("fraud.reject_at"),
	}

	return cfg, nil
}

func providerConfig(v *viper.Viper, tier string) VisionProviderConfig {
	return VisionProviderConfig{
		Provider:     v.GetString("vision." + tier + ".provider"),
		APIKey:       v.GetString("vision." + tier + ".api_key"),
		DefaultModel: v.GetString("vision." + tier + ".default_model"),
		MaxRetries:   v.GetInt("vision." + tier + ".max_retries"),
		TimeoutSecs:  v.GetInt("vision." + tier + ".timeout_secs"),
	}
}
