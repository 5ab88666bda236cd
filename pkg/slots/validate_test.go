package slots

import (
	"errors"
	"testing"
)

var errNotPositive = errors.New("must be positive")

func TestValidate_Success(t *testing.T) {
	schema := Schema{
		"city":    Text(),
		"guests":  Int(),
		"budget":  Float(),
		"smoking": Bool(),
		"extras":  List(Text()),
	}

	values := map[string]any{
		"city":    "Berlin",
		"guests":  3,
		"budget":  120.5,
		"smoking": false,
		"extras":  []string{"breakfast"},
	}

	if err := Validate(schema, values); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_UnsetSlotsAreSkipped(t *testing.T) {
	schema := Schema{
		"city":   Text(),
		"guests": Int(),
	}

	values := map[string]any{
		"city":   "Berlin",
		"guests": nil,
	}

	if err := Validate(schema, values); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_Mismatches(t *testing.T) {
	schema := Schema{
		"city":   Text(),
		"guests": Int(),
	}

	values := map[string]any{
		"city":   42,
		"guests": "three",
	}

	err := Validate(schema, values)
	if err == nil {
		t.Fatal("Validate() should return error for mismatched types")
	}

	errs := ValidationErrors(err)
	if len(errs) != 2 {
		t.Fatalf("Validate() = %d errors, want 2", len(errs))
	}

	first, ok := errs[0].(*ValidationError)
	if !ok {
		t.Fatalf("error should be *ValidationError, got %T", errs[0])
	}
	if first.Slot != "city" {
		t.Errorf("first error slot = %q, want %q (sorted order)", first.Slot, "city")
	}

	var target *ValidationError
	if !errors.As(err, &target) {
		t.Error("errors.As should reach the individual ValidationError")
	}
}

func TestSchema_Names(t *testing.T) {
	declared := map[string]string{"city": "text", "guests": "int", "notes": "unfeaturized"}

	schema, err := ParseTypeMap(declared)
	if err != nil {
		t.Fatalf("ParseTypeMap() error = %v", err)
	}

	names := schema.Names()
	for slot, want := range declared {
		if names[slot] != want {
			t.Errorf("Names()[%q] = %q, want %q", slot, names[slot], want)
		}
	}
}

func TestParseTypeMap_Error(t *testing.T) {
	if _, err := ParseTypeMap(map[string]string{"city": "place"}); err == nil {
		t.Error("ParseTypeMap() should fail on an unsupported type")
	}
}
