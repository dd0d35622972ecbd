package source

import (
	"fmt"
	"maps"
	"net/http"
	"sync"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/config"
	"github.com/rs/zerolog/log"
)

// Dependencies are the shared services handed to adapter constructors
type Dependencies struct {
	HTTPClient *http.Client
	Cache      Cache
	Browser    PageFetcher
}

// Creator builds an adapter from the search configuration
type Creator func(cfg config.SearchConfig, deps Dependencies) (Adapter, error)

var (
	adapterRegistry     = make(map[string]Creator)
	adapterRegistryLock sync.RWMutex
)

// Register registers an adapter creator under name
func Register(name string, creator Creator) {
	adapterRegistryLock.Lock()
	defer adapterRegistryLock.Unlock()
	adapterRegistry[name] = creator
}

// GetRegistry returns a copy of the adapter registry
func GetRegistry() map[string]Creator {
	adapterRegistryLock.RLock()
	defer adapterRegistryLock.RUnlock()

	registryCopy := make(map[string]Creator, len(adapterRegistry))
	maps.Copy(registryCopy, adapterRegistry)

	return registryCopy
}

// Build creates the adapters named in cfg.Priority, in that order. Unknown
// names and adapters that fail to build (missing key, no instances) are
// skipped with a warning; ErrNoSources is returned when none is left.
func Build(cfg config.SearchConfig, deps Dependencies) ([]Adapter, error) {
	registry := GetRegistry()

	var adapters []Adapter
	for _, name := range cfg.Priority {
		creator, ok := registry[name]
		if !ok {
			log.Warn().Str("adapter", name).Msg("Unknown search adapter in priority list")
			continue
		}
		adapter, err := creator(cfg, deps)
		if err != nil {
			log.Warn().Err(err).Str("adapter", name).Msg("Search adapter disabled")
			continue
		}
		adapters = append(adapters, adapter)
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("building adapters from %v: %w", cfg.Priority, common.ErrNoSources)
	}

	log.Info().Int("count", len(adapters)).Strs("priority", cfg.Priority).Msg("Search adapters ready")
	return adapters, nil
}
