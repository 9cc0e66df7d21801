package preprocess

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Constants is the side-channel table of named build constants. It is
// loaded once at startup and read-only afterwards, so it needs no locking.
type Constants struct {
	values map[string]string
}

// LoadConstants reads a JSON document mapping names to strings or integers.
// Numbers are kept in their literal form rather than passing through a
// float conversion.
func LoadConstants(path string) (*Constants, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read constants file: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err = dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse constants file: %w", err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			values[k] = t
		case json.Number:
			values[k] = t.String()
		default:
			return nil, fmt.Errorf("constant %s has unsupported value type %T", k, v)
		}
	}
	return &Constants{values: values}, nil
}

// Get returns the value for name. A miss is a MissingConstantError, which
// aborts the build. Get on a nil table (no constants file configured) is a
// miss for every name.
func (c *Constants) Get(name string) (string, error) {
	if c != nil {
		if v, ok := c.values[name]; ok {
			return v, nil
		}
	}
	return "", &MissingConstantError{Name: name}
}
