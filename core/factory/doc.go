// Package factory provides a small generic registry used to build pluggable
// components from configuration. A component is described by a type string
// and a map of raw settings; factories decode the settings into typed structs
// and return the concrete implementation.
//
// Example usage:
//
//	reg := factory.NewRegistry[master.Solver]()
//	reg.Register("simplex", func(conf map[string]any) (master.Solver, error) {
//	    var c master.SimplexConfig
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return master.NewSimplex(c), nil
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "simplex", Conf: map[string]any{"node_limit": 5000}})
package factory
