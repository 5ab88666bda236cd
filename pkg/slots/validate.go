package slots

import "sort"

// Schema maps slot names to their declared types.
type Schema map[string]Type

// Names returns the declared type name of every slot, the inverse of ParseTypeMap.
func (s Schema) Names() map[string]string {
	out := make(map[string]string, len(s))
	for slot, typ := range s {
		out[slot] = typ.Name()
	}
	return out
}

// Validate checks the slots present in values against the schema.
// Unset slots are skipped: asking for them is the form's job, not the schema's.
// Failures are reported in slot name order.
func Validate(schema Schema, values map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	names := make([]string, 0, len(schema))
	for slot := range schema {
		names = append(names, slot)
	}
	sort.Strings(names)

	var errs []error
	for _, slot := range names {
		value, ok := values[slot]
		if !ok || value == nil {
			continue
		}
		if err := schema[slot].Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Slot:   slot,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
