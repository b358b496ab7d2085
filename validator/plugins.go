package validator

import (
	"sort"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/format"
	"github.com/birkland/bagval/format/plugins/extension"
	"github.com/birkland/bagval/format/plugins/jhove"
	"github.com/birkland/bagval/pattern"
)

// Factory creates a plugin from its configuration
type Factory func(PluginConfig) (format.Plugin, error)

// Not guarded, Register is expected to be called during init only
var factories = map[string]Factory{
	"extension": func(PluginConfig) (format.Plugin, error) {
		return extension.Plugin{}, nil
	},
	"jhove": func(c PluginConfig) (format.Plugin, error) {
		return jhove.New(c.App, c.Conf), nil
	},
}

// Register makes a plugin available by name, replacing any plugin of the
// same name
func Register(name string, f Factory) {
	factories[name] = f
}

// PluginNames lists the names of all available plugins, sorted
func PluginNames() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewPlugin creates a plugin by name, with its default configuration
func NewPlugin(name string) (format.Plugin, error) {
	return newPlugin(PluginConfig{Name: name})
}

func newPlugin(c PluginConfig) (format.Plugin, error) {
	f, ok := factories[c.Name]
	if !ok {
		return nil, bagval.Configf("unknown file format plugin '%s' (available: %v)", c.Name, PluginNames())
	}
	return f(c)
}

func newDescriptor(c PluginConfig) (format.Descriptor, error) {
	p, err := newPlugin(c)
	if err != nil {
		return format.Descriptor{}, err
	}

	if c.Selector == nil {
		return format.Use(p), nil
	}

	selector, err := pattern.ParseSelector(c.Selector)
	if err != nil {
		return format.Descriptor{}, bagval.Configf("plugin '%s': %s", c.Name, err)
	}
	return format.Descriptor{Selector: selector, Plugin: p}, nil
}
