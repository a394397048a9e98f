package vision

import (
	"fmt"

	"billsight/internal/config"
	"billsight/internal/port"
)

// ProviderFactory builds a VisionModel from a provider config.
type ProviderFactory func(cfg *config.VisionProviderConfig) (port.VisionModel, error)

// registry of provider factories, populated explicitly via
// RegisterProvider during startup wiring.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a vision provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// New creates a VisionModel from a provider config using the
// registered factory.
func New(cfg *config.VisionProviderConfig) (port.VisionModel, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown vision provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// Build assembles the configured provider chain: the primary model,
// wrapped in a fallback over the secondary and tertiary when those
// are configured.
func Build(cfg *config.VisionConfig) (port.VisionModel, error) {
	primaryCfg := cfg.PrimaryConfig()
	primary, err := New(primaryCfg)
	if err != nil {
		return nil, err
	}

	models := []port.VisionModel{primary}
	names := []string{primaryCfg.Provider}
	for _, tier := range []*config.VisionProviderConfig{cfg.SecondaryConfig(), cfg.TertiaryConfig()} {
		if tier == nil {
			continue
		}
		m, err := New(tier)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
		names = append(names, tier.Provider)
	}

	if len(models) == 1 {
		return primary, nil
	}
	return NewFallbackVision(models, names), nil
}
