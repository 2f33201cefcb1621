package config

import (
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory.
func Load(path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	configContents, err := os.ReadFile(filepath.Join(path, ConfigurationName))
	if err != nil {
		return nil, err
	}

	out, err := Parse(configContents)
	if err != nil {
		return nil, err
	}
	out.configurationDir = path
	return out, nil
}

// Parse decodes and validates raw configuration bytes.
func Parse(data []byte) (*Configuration, error) {
	var out Configuration
	if err := yaml.UnmarshalStrict(data, &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Default returns the built-in configuration.
func Default() *Configuration {
	out, err := Parse(defaultConfigData)
	if err != nil {
		// The embedded default must always parse.
		panic(err)
	}
	return out
}

// Initialize writes the default configuration into the directory. It
// refuses to overwrite an existing configuration.
func Initialize(path string) error {
	if err := os.MkdirAll(path, 0700); err != nil {
		return err
	}

	target := filepath.Join(path, ConfigurationName)
	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("%s already exists", target)
	}

	return os.WriteFile(target, defaultConfigData, 0600)
}
