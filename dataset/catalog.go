package dataset

import (
	"encoding/json"
	"fmt"
	"os"
)

// Catalog declares the label vocabulary of a dataset. Only the 3D box
// subcatalog is used by the loaders in this module.
type Catalog struct {
	Box3D *Box3DSubcatalog `json:"BOX3D,omitempty"`
}

// Box3DSubcatalog is the closed category and attribute vocabulary for 3D box
// labels.
type Box3DSubcatalog struct {
	IsTracking bool            `json:"isTracking,omitempty"`
	Categories []CategoryInfo  `json:"categories,omitempty"`
	Attributes []AttributeInfo `json:"attributes,omitempty"`
}

// CategoryInfo is one category entry.
type CategoryInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// AttributeInfo is one attribute entry with its enumerated values.
type AttributeInfo struct {
	Name string   `json:"name"`
	Enum []string `json:"enum,omitempty"`
}

// ParseCatalog decodes a catalog from JSON.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &c, nil
}

// LoadCatalog reads and decodes a catalog JSON file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}
