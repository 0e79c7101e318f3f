package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// tablesFile is the on-disk layout of a jurisdiction override
type tablesFile struct {
	Jurisdiction string                    `yaml:"jurisdiction"`
	Deadlines    map[string]DeadlineRule   `yaml:"deadlines"`
	Limitations  map[string]LimitationRule `yaml:"statutes_of_limitations"`
}

// LoadTables reads rule tables from a YAML file
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseTables(data)
}

// ParseTables decodes rule tables from YAML
func ParseTables(data []byte) (*Tables, error) {
	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	return NewTables(f.Jurisdiction, f.Deadlines, f.Limitations)
}

// TablesFromFile returns the built-in California tables when path is empty
func TablesFromFile(path string) (*Tables, error) {
	if path == "" {
		return California(), nil
	}
	return LoadTables(path)
}
