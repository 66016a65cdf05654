/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: load.go
Description: Reading and writing schema files. JSON files are detected by extension,
anything else is parsed as YAML.
*/

package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kleascm/datprobe/pkg/analysis"
)

// LoadFile reads a schema from a YAML or JSON file.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	s, err := Decode(data, isJSON(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Decode parses schema bytes and checks that every header has a type.
func Decode(data []byte, asJSON bool) (*Schema, error) {
	var s Schema
	var err error
	if asJSON {
		err = json.Unmarshal(data, &s)
	} else {
		err = yaml.Unmarshal(data, &s)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	for i, h := range s.Headers {
		if _, err := h.Length(analysis.Width64); err != nil {
			return nil, fmt.Errorf("header %d: %w", i, err)
		}
	}
	return &s, nil
}

// SaveFile writes s to path, as JSON or YAML depending on the extension.
func SaveFile(path string, s *Schema) error {
	var data []byte
	var err error
	if isJSON(path) {
		data, err = json.MarshalIndent(s, "", "  ")
	} else {
		data, err = yaml.Marshal(s)
	}
	if err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
