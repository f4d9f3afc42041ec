package inference

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-detect/service/config"
	"github.com/khaledhikmat/vs-detect/service/lgr"
)

var (
	backendsMu sync.RWMutex
	backends   = map[string]Factory{}
)

func RegisterBackend(name string, factory Factory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()

	if _, ok := backends[name]; ok {
		lgr.Logger.Warn("inference backend already registered", slog.String("name", name))
		return
	}
	backends[name] = factory
}

func New(name string, cfgSvc config.IService) (IService, error) {
	backendsMu.RLock()
	factory, ok := backends[name]
	backendsMu.RUnlock()

	if !ok {
		return nil, xerrors.Errorf("inference backend %q not available (have %v)", name, Backends())
	}
	return factory(cfgSvc)
}

func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	names := lo.Keys(backends)
	sort.Strings(names)
	return names
}
