package preferences

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultFile []byte

// Loader handles loading and parsing of the preferences file
type Loader struct {
	filePath string
}

// NewLoader creates a loader. An empty path selects the embedded defaults.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the preferences file
func (l *Loader) Load() (*File, error) {
	data := defaultFile
	if l.filePath != "" {
		var err error
		data, err = os.ReadFile(l.filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read preferences file: %w", err)
		}
	}

	return Parse(data)
}

// Parse decodes preferences yaml. Unknown keys are rejected so typos in a
// user file do not silently fall back to empty buckets.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse preferences yaml: %w", err)
	}
	return &f, nil
}
