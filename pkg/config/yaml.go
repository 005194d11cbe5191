package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML loads configuration from a YAML file. Unknown keys are rejected.
// An empty file leaves target unchanged.
func LoadYAML(path string, target interface{}) error {
	// #nosec G304 -- path comes from the operator's -config flag.
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return nil
}

// MarshalYAML renders config as YAML, e.g. for printing the effective configuration
func MarshalYAML(config interface{}) ([]byte, error) {
	data, err := yaml.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return data, nil
}
