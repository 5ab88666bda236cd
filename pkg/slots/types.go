package slots

import (
	"fmt"
	"reflect"
	"strings"
)

// Type defines the contract for slot value validation.
type Type interface {
	// Name returns the declared name of the type (e.g., "text", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// --- Built-in Type Implementations ---

// TextType validates string values.
type TextType struct{}

func (t *TextType) Name() string { return "text" }

func (t *TextType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected text, got %T", value)
	}
	return nil
}

// IntType validates integer values.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case float64:
		// Accept whole numbers (from JSON unmarshaling)
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

// FloatType validates numeric values.
type FloatType struct{}

func (t *FloatType) Name() string { return "float" }

func (t *FloatType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	default:
		return fmt.Errorf("expected float, got %T", value)
	}
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

// ListType validates slices. A nil element type accepts any element.
type ListType struct {
	elemType Type
}

func (t *ListType) Name() string {
	if t.elemType == nil {
		return "list"
	}
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *ListType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected list, got %T", value)
	}
	if t.elemType == nil {
		return nil
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elemType.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// AnyType accepts every value. It backs slots declared without a usable type.
type AnyType struct {
	name string
}

func (t *AnyType) Name() string { return t.name }

func (t *AnyType) Validate(any) error { return nil }

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// --- Factory Functions ---

// Text creates a text type validator.
func Text() Type { return &TextType{} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Float creates a numeric type validator.
func Float() Type { return &FloatType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// List creates a list validator. Pass nil to accept any element.
func List(elemType Type) Type { return &ListType{elemType: elemType} }

// Any creates a validator that accepts everything, reported under name.
func Any(name string) Type { return &AnyType{name: name} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a declared slot type to a Type.
// Supported: "text" (alias "string"), "int", "float", "bool", "list", "[T]",
// and the untyped "any", "unfeaturized", "categorical" and "".
func ParseType(typeStr string) (Type, error) {
	typeStr = strings.TrimSpace(typeStr)
	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elemType, err := ParseType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		return List(elemType), nil
	}

	switch typeStr {
	case "text", "string":
		return Text(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	case "list":
		return List(nil), nil
	case "", "any", "unfeaturized", "categorical":
		return Any(typeStr), nil
	default:
		return nil, fmt.Errorf("unsupported slot type: %s", typeStr)
	}
}

// ParseTypeMap converts a map of slot names to declared types into a Schema.
// Example: {"city": "text", "guests": "int"}
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema, len(typeMap))
	for slot, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("slot %s: %w", slot, err)
		}
		result[slot] = t
	}
	return result, nil
}
