package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ActionConfig describes an action implemented by an external command.
type ActionConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
	Timeout     time.Duration     `yaml:"timeout" json:"timeout"`
}

// ConfigFile represents the structure of actions.yaml.
type ConfigFile struct {
	Actions []ActionConfig `yaml:"actions" json:"actions"`
}

// LoadActions reads a configuration file (YAML or JSON) and returns the actions by name.
// A missing file yields an empty map.
func LoadActions(path string) (map[string]ActionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]ActionConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read actions config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	actions := make(map[string]ActionConfig)
	for _, a := range cfg.Actions {
		if a.Name == "" || a.Command == "" {
			continue
		}
		actions[a.Name] = a
	}
	return actions, nil
}
