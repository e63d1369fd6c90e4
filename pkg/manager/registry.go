package manager

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrUnknownModule is returned by Lookup for names that were never registered.
var ErrUnknownModule = errors.New("unknown module")

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Module)
)

// Register makes a module available to the CLI. It is meant to be called from init and panics
// on an invalid or duplicate name.
func Register(module Module) {
	name := module.Name()
	if err := ValidateName(name); err != nil {
		panic(fmt.Sprintf("manager: register %q: %v", name, err))
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("manager: module %q registered twice", name))
	}
	registry[name] = module
}

// Lookup returns a registered module by name.
func Lookup(name string) (Module, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	module, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, name)
	}
	return module, nil
}

// Modules returns the sorted names of all registered modules.
func Modules() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, name)
}
