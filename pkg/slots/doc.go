// Package slots provides the slot type system used by forms.
//
// Form definitions declare a type per required slot ("text", "int", "float",
// "bool", "list", "[T]" or an untyped name such as "unfeaturized"). The types
// are parsed once when the form is built and checked against the filled slot
// values when the form completes.
//
//	schema, err := slots.ParseTypeMap(map[string]string{
//	    "city":   "text",
//	    "guests": "int",
//	})
//
//	if err := slots.Validate(schema, tracker.SlotValues()); err != nil {
//	    for _, e := range slots.ValidationErrors(err) {
//	        // Report each mismatch
//	    }
//	}
package slots
