// Package factory provides a small generic registry used to instantiate modules
// from configuration. Modules are defined by a type string and a map of raw
// settings. Factories decode the settings into typed structs, usually on top
// of the module defaults, and return the concrete implementation.
//
// Example usage:
//
//	reg := factory.NewRegistry[storage.Storage]()
//	reg.MustRegister("liion", func(conf map[string]any) (storage.Storage, error) {
//	    in := liion.DefaultInputs()
//	    if err := factory.Decode(conf, &in); err != nil {
//	        return nil, err
//	    }
//	    return liion.New(n, in)
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "liion", Conf: map[string]any{"max_soc": 0.95}})
package factory
