package timeline

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Write stores a timeline as YAML.
func Write(tl Timeline, path string) error {
	data, err := yaml.Marshal(tl)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Read loads a timeline from a YAML file. It does not validate.
func Read(path string) (Timeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Timeline{}, err
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses YAML from r. Unknown keys are rejected.
func Decode(r io.Reader) (Timeline, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var tl Timeline
	if err := dec.Decode(&tl); err != nil {
		return Timeline{}, fmt.Errorf("decode timeline: %w", err)
	}
	return tl, nil
}

// Encode writes tl to w as YAML.
func Encode(w io.Writer, tl Timeline) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tl); err != nil {
		return err
	}
	return enc.Close()
}
