// Package plugins maps configuration type names to the storage assets and
// log stores they build.
package plugins

import (
	"fmt"
	"sort"

	"github.com/kilianp07/microgrid/config"
	dispatchlog "github.com/kilianp07/microgrid/core/dispatch/logging"
	"github.com/kilianp07/microgrid/core/logger"
	"github.com/kilianp07/microgrid/core/storage"
	"github.com/kilianp07/microgrid/core/storage/hydrogen"
)

// StorageDeps carries the collaborators a storage asset may use.
type StorageDeps struct {
	Log           logger.Logger
	OnReplacement func(hydrogen.Replacement)
}

// StorageFactory builds a storage asset sized for nPoints timesteps from a
// raw configuration map. name is used when the map carries none.
type StorageFactory func(name string, nPoints int, conf map[string]any, deps StorageDeps) (storage.Storage, error)

// LogStoreFactory builds a shortfall log store.
type LogStoreFactory func(cfg config.LoggingConfig) (dispatchlog.LogStore, error)

var (
	Storages  = map[string]StorageFactory{}
	LogStores = map[string]LogStoreFactory{}
)

func RegisterStorage(name string, f StorageFactory)   { Storages[name] = f }
func RegisterLogStore(name string, f LogStoreFactory) { LogStores[name] = f }

// NewStorage builds the storage module described by typ and conf.
func NewStorage(typ, name string, nPoints int, conf map[string]any, deps StorageDeps) (storage.Storage, error) {
	f, ok := Storages[typ]
	if !ok {
		return nil, fmt.Errorf("unknown storage type %q (known: %v)", typ, names(Storages))
	}
	s, err := f(name, nPoints, conf, deps)
	if err != nil {
		return nil, fmt.Errorf("storage %s: %w", name, err)
	}
	return s, nil
}

// NewLogStore builds the log store selected by cfg.Backend.
func NewLogStore(cfg config.LoggingConfig) (dispatchlog.LogStore, error) {
	f, ok := LogStores[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("unknown log store %q (known: %v)", cfg.Backend, names(LogStores))
	}
	return f(cfg)
}

func names[F any](m map[string]F) []string {
	out := make([]string, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// StorageTypes lists the registered storage types.
func StorageTypes() []string { return names(Storages) }

// LogStoreTypes lists the registered log store backends.
func LogStoreTypes() []string { return names(LogStores) }
