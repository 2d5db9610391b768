package pattern

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a pattern overlay.
type File struct {
	Patterns []Pattern `yaml:"patterns"`
}

// LoadPatterns decodes and validates an overlay document.
func LoadPatterns(r io.Reader) ([]Pattern, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode patterns: %w", err)
	}
	if err := Validate(f.Patterns); err != nil {
		return nil, err
	}
	return f.Patterns, nil
}

// LoadFile reads an overlay from path.
func LoadFile(path string) ([]Pattern, error) {
	fh, err := os.Open(path) //nolint:gosec // path comes from user configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open pattern file: %w", err)
	}
	defer fh.Close()
	return LoadPatterns(fh)
}
