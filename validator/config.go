package validator

import (
	"io"
	"os"
	"time"

	"github.com/birkland/bagval"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Identifiers known by name
const (
	MagicIdentifier = "magic"
	FidoIdentifier  = "fido"
)

// Config describes a validation setup.  It is usually read from a YAML file
// with LoadConfig, and adjusted from the command line.
type Config struct {
	// Profile locates the BagIt profile, a file path or http(s) URL.  No
	// profile validation is done without one.
	Profile       string `yaml:"profile"`
	IgnoreTagCase bool   `yaml:"ignore_tag_case"`

	// Workers bounds files processed concurrently per component
	Workers int `yaml:"workers"`

	PluginConcurrency int      `yaml:"plugin_concurrency"`
	PluginTimeout     Duration `yaml:"plugin_timeout"`

	// Identifier is one of "magic" (default) or "fido"
	Identifier string `yaml:"identifier"`
	Fido       string `yaml:"fido"`

	// Plugins used for file format validation.  No format validation is done
	// without any.
	Plugins []PluginConfig `yaml:"plugins"`

	SkipProfile   bool `yaml:"skip_profile"`
	SkipIntegrity bool `yaml:"skip_integrity"`
	SkipFormat    bool `yaml:"skip_format"`

	Logger *zap.Logger `yaml:"-"`
}

// PluginConfig configures one format plugin
type PluginConfig struct {
	Name string `yaml:"name"`

	// Selector is a regex string, or a list of MIME types.  The plugin's
	// default selector is used if absent.
	Selector interface{} `yaml:"selector"`

	// App and Conf locate an external tool and its configuration, for
	// plugins that use one
	App  string `yaml:"app"`
	Conf string `yaml:"conf"`
}

// Duration is a time.Duration written like "2m30s" in YAML
type Duration time.Duration

// UnmarshalYAML parses a duration string
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return bagval.Configf("line %d: expected a duration, got %s", value.Line, value.Value)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return bagval.Configf("line %d: bad duration '%s'", value.Line, s)
	}
	*d = Duration(parsed)
	return nil
}

// ParseConfig reads a YAML configuration.  Unknown keys are errors.
func ParseConfig(r io.Reader) (*Config, error) {
	cfg := &Config{}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		if bagval.IsConfigError(err) {
			return nil, err
		}
		return nil, bagval.Configf("invalid configuration: %s", err)
	}

	return cfg, nil
}

// LoadConfig reads a YAML configuration file
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, bagval.Configf("could not open configuration %s: %s", path, errors.Cause(err))
	}
	defer file.Close()

	cfg, err := ParseConfig(file)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s", path)
	}
	return cfg, nil
}
