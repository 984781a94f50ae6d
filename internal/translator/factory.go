package translator

import (
	"fmt"

	"invosight/internal/config"
	"invosight/internal/port"
)

// ProviderFactory is a function that creates a QueryTranslator from a provider config.
type ProviderFactory func(cfg *config.ProviderConfig) (port.QueryTranslator, error)

var providers = map[string]ProviderFactory{}

// RegisterProvider registers a translator provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewTranslator creates a QueryTranslator from a provider config using the registered factory.
func NewTranslator(cfg *config.ProviderConfig) (port.QueryTranslator, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown translator provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
