package schema

import (
	"fmt"
	"math"
	"reflect"
	"sort"
)

// Type validates a single value.
type Type interface {
	// Name is the declarative form of the type ("string", "[int]", ...).
	Name() string
	Validate(value any) error
}

// Schema maps parameter names to their types.
type Schema map[string]Type

type kindType struct {
	name  string
	check func(v any) bool
}

func (t kindType) Name() string { return t.name }

func (t kindType) Validate(v any) error {
	if !t.check(v) {
		return fmt.Errorf("expected %s, got %T", t.name, v)
	}
	return nil
}

// String accepts string values.
func String() Type {
	return kindType{name: "string", check: func(v any) bool { _, ok := v.(string); return ok }}
}

// Bool accepts bool values.
func Bool() Type {
	return kindType{name: "bool", check: func(v any) bool { _, ok := v.(bool); return ok }}
}

// Int accepts any integer kind, and floats without a fractional part since
// decoded JSON and YAML numbers may arrive as float64.
func Int() Type {
	return kindType{name: "int", check: func(v any) bool {
		switch n := v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64:
			return n == math.Trunc(n)
		case float32:
			return float64(n) == math.Trunc(float64(n))
		}
		return false
	}}
}

// Float accepts any numeric kind.
func Float() Type {
	return kindType{name: "float", check: func(v any) bool {
		switch v.(type) {
		case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		}
		return false
	}}
}

type sliceType struct{ elem Type }

// Slice accepts slices and arrays whose elements all satisfy elem.
func Slice(elem Type) Type { return sliceType{elem: elem} }

func (t sliceType) Name() string { return "[" + t.elem.Name() + "]" }

func (t sliceType) Validate(v any) error {
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return fmt.Errorf("expected %s, got %T", t.Name(), v)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

type optionalType struct{ Type }

// Optional lets the parameter be missing. A present value must satisfy t.
func Optional(t Type) Type { return optionalType{Type: t} }

func (t optionalType) Name() string { return t.Type.Name() + "?" }

type customType struct {
	name  string
	check func(any) error
}

// Custom wraps a validation function under a name.
func Custom(name string, check func(any) error) Type { return customType{name: name, check: check} }

func (t customType) Name() string         { return t.name }
func (t customType) Validate(v any) error { return t.check(v) }

// Validate checks params against the schema. An empty schema accepts anything and
// parameters not named by the schema are ignored.
func Validate(s Schema, params map[string]any) error {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		typ := s[name]
		value, ok := params[name]
		if !ok {
			if _, optional := typ.(optionalType); !optional {
				errs = append(errs, &ValidationError{Key: name, Reason: "required"})
			}
			continue
		}
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: name, Reason: err.Error(), Value: value})
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
