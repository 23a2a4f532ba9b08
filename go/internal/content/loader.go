package content

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed word_pairs.yaml
var defaultWordPairs []byte

type tableFile struct {
	Entries []Entry `yaml:"entries"`
}

// Default returns the table shipped with the binary.
func Default() (*Table, error) {
	t, err := Parse(defaultWordPairs)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded word pairs: %w", err)
	}
	return t, nil
}

// LoadFile reads a YAML table from path.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file: %w", err)
	}

	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse content file %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a YAML document of the form `entries: [{normal, target}, ...]`.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return NewTable(f.Entries)
}
