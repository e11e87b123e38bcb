package dictionary

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/philosophy.yaml
var philosophyYAML []byte

// LoadFile reads and parses a dictionary YAML file from disk. The table is not
// validated; pass it to [Build].
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dictionary: open %q: %w", path, err)
	}
	defer f.Close()

	t, err := LoadReader(f)
	if err != nil {
		return nil, fmt.Errorf("dictionary: parse %q: %w", path, err)
	}
	return t, nil
}

// LoadReader parses dictionary YAML from r. Unknown keys are rejected to catch
// typos such as "variant:" instead of "variants:".
func LoadReader(r io.Reader) (*Table, error) {
	var t Table
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		if errors.Is(err, io.EOF) {
			return &t, nil
		}
		return nil, fmt.Errorf("dictionary: decode yaml: %w", err)
	}
	return &t, nil
}

// Default returns a fresh copy of the embedded Brazilian Portuguese philosophy
// dictionary. Each call parses the embedded data again, so callers may modify
// the returned table freely.
func Default() (*Table, error) {
	t, err := LoadReader(bytes.NewReader(philosophyYAML))
	if err != nil {
		return nil, fmt.Errorf("dictionary: embedded default: %w", err)
	}
	return t, nil
}
