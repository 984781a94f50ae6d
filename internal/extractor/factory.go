package extractor

import (
	"fmt"

	"invosight/internal/config"
	"invosight/internal/port"
)

// ProviderFactory is a function that creates a VisionExtractor from a provider config.
type ProviderFactory func(cfg *config.ProviderConfig) (port.VisionExtractor, error)

// registry of extractor provider factories, populated explicitly via
// RegisterProvider from cmd wiring.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers an extractor provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewExtractor creates a VisionExtractor from a provider config using the registered factory.
func NewExtractor(cfg *config.ProviderConfig) (port.VisionExtractor, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown extractor provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
