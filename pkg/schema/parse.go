package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseType converts a type name into a Type: string, int, float, bool, a slice
// such as [string], optionally followed by "?".
func ParseType(name string) (Type, error) {
	name = strings.TrimSpace(name)
	if base, ok := strings.CutSuffix(name, "?"); ok {
		t, err := ParseType(base)
		if err != nil {
			return nil, err
		}
		return Optional(t), nil
	}
	if len(name) > 2 && strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
		elem, err := ParseType(name[1 : len(name)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	}
	switch name {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	}
	return nil, fmt.Errorf("unsupported type: %q", name)
}

// ParseTypeMap converts parameter names mapped to type names into a Schema.
func ParseTypeMap(types map[string]string) (Schema, error) {
	s := make(Schema, len(types))
	for key, name := range types {
		t, err := ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		s[key] = t
	}
	return s, nil
}

func (s Schema) names() (map[string]string, error) {
	out := make(map[string]string, len(s))
	for key, t := range s {
		if t == nil {
			return nil, fmt.Errorf("field %s: type is nil", key)
		}
		out[key] = t.Name()
	}
	return out, nil
}

// MarshalJSON writes the schema as parameter names mapped to type names.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	names, err := s.names()
	if err != nil {
		return nil, err
	}
	return json.Marshal(names)
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var types map[string]string
	if err := json.Unmarshal(data, &types); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return s.assign(types)
}

// UnmarshalYAML reads a mapping of parameter names to type names.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	var types map[string]string
	if err := node.Decode(&types); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return s.assign(types)
}

func (s *Schema) assign(types map[string]string) error {
	if types == nil {
		*s = nil
		return nil
	}
	parsed, err := ParseTypeMap(types)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
