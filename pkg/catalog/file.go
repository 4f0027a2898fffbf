package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileLayout mirrors the catalog YAML file: an items list, products and services mixed.
type fileLayout struct {
	Items []Item `yaml:"items"`
}

// LoadFile reads seed items from a YAML file.
func LoadFile(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var layout fileLayout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}
	seen := make(map[string]bool, len(layout.Items))
	for i, item := range layout.Items {
		if err := validateItem(item); err != nil {
			return nil, fmt.Errorf("catalog file %s, item %d: %w", path, i+1, err)
		}
		if item.ID != "" {
			if seen[item.ID] {
				return nil, fmt.Errorf("catalog file %s: duplicate id %s", path, item.ID)
			}
			seen[item.ID] = true
		}
		if item.Position == 0 {
			layout.Items[i].Position = i + 1
		}
	}
	return layout.Items, nil
}

func validateItem(item Item) error {
	if !item.Kind.Valid() {
		return fmt.Errorf("unknown kind %q", item.Kind)
	}
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if item.PriceCents < 0 {
		return fmt.Errorf("price must not be negative")
	}
	return nil
}
