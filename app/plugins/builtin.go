package plugins

import (
	"github.com/kilianp07/microgrid/config"
	dispatchlog "github.com/kilianp07/microgrid/core/dispatch/logging"
	"github.com/kilianp07/microgrid/core/factory"
	"github.com/kilianp07/microgrid/core/storage"
	"github.com/kilianp07/microgrid/core/storage/hydrogen"
	"github.com/kilianp07/microgrid/core/storage/liion"
)

func init() {
	RegisterStorage("h2", func(name string, n int, conf map[string]any, deps StorageDeps) (storage.Storage, error) {
		in := hydrogen.DefaultInputs()
		in.Name = name
		if err := factory.Decode(conf, &in); err != nil {
			return nil, err
		}
		return hydrogen.New(n, in, hydrogen.WithLogger(deps.Log), hydrogen.WithReplacementHook(deps.OnReplacement))
	})
	RegisterStorage("liion", func(name string, n int, conf map[string]any, _ StorageDeps) (storage.Storage, error) {
		in := liion.DefaultInputs()
		in.Name = name
		if err := factory.Decode(conf, &in); err != nil {
			return nil, err
		}
		return liion.New(n, in)
	})

	RegisterLogStore("jsonl", func(lc config.LoggingConfig) (dispatchlog.LogStore, error) {
		return dispatchlog.NewJSONLStore(lc.Path)
	})
	RegisterLogStore("rotating", func(lc config.LoggingConfig) (dispatchlog.LogStore, error) {
		return dispatchlog.NewRotatingJSONLStore(lc.Path, lc.MaxSizeMB, lc.MaxBackups, lc.MaxAgeDays)
	})
	RegisterLogStore("sqlite", func(lc config.LoggingConfig) (dispatchlog.LogStore, error) {
		return dispatchlog.NewSQLiteStore(lc.Path)
	})
}
