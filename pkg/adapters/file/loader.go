package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/plotline/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.DefinitionLoader over YAML or JSON bundle files.
//
// A bundle file has the shape:
//
//	plans:
//	  - type: SimpleForm
//	    name: hotel
//	    ...
//	branches:
//	  - name: greet
//	    steps: [...]
//	actions: [utter_extra]
//	descriptions:
//	  hotel: Books a hotel room.
//
// Path may point at a single file or at a directory, in which case every
// .yaml, .yml and .json file directly inside it is merged in lexical order.
type Loader struct {
	path string
}

// NewLoader creates a loader for path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads and decodes the bundle.
func (l *Loader) Load(ctx context.Context) (*domain.Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions: %w", err)
	}
	if !info.IsDir() {
		return ReadBundle(l.path)
	}

	entries, err := os.ReadDir(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}

	bundle := &domain.Bundle{}
	for _, entry := range entries {
		if entry.IsDir() || !isBundleFile(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		part, err := ReadBundle(filepath.Join(l.path, entry.Name()))
		if err != nil {
			return nil, err
		}
		bundle.Merge(part)
	}
	return bundle, nil
}

// ReadBundle decodes a single bundle file. The extension selects the format;
// anything other than .json is read as YAML.
func ReadBundle(path string) (*domain.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions: %w", err)
	}

	var bundle domain.Bundle
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &bundle); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &bundle); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}
	return &bundle, nil
}

// WriteBundle encodes bundle to path, picking the format from the extension.
func WriteBundle(path string, bundle *domain.Bundle) error {
	var (
		data []byte
		err  error
	)
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		data, err = json.MarshalIndent(bundle, "", "  ")
	} else {
		data, err = yaml.Marshal(bundle)
	}
	if err != nil {
		return fmt.Errorf("failed to encode bundle: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func isBundleFile(name string) bool {
	return slices.Contains([]string{".yaml", ".yml", ".json"}, strings.ToLower(filepath.Ext(name)))
}
