package records

// fieldSpec describes one declared field of a record: either required,
// or optional with a default value.
type fieldSpec struct {
	Required bool
	Default  any
}

// schema maps field names to their specs for one record type
type schema map[string]fieldSpec

func required() fieldSpec {
	return fieldSpec{Required: true}
}

func optional(def any) fieldSpec {
	return fieldSpec{Default: def}
}

// build validates a source document against a schema. Every required
// field must be present in doc, absent optional fields take their
// declared default, and keys outside the schema are ignored. A present
// field may still carry a null value; presence is all that is enforced.
func build(record string, s schema, doc map[string]any) (map[string]any, error) {
	vals := make(map[string]any, len(s))
	for name, spec := range s {
		v, ok := doc[name]
		if !ok {
			if spec.Required {
				return nil, &MissingFieldError{Record: record, Field: name}
			}
			v = spec.Default
		}
		vals[name] = v
	}
	return vals, nil
}

// The as* helpers convert the loosely typed values produced by JSON
// decoding into record field types. Numbers arrive as float64; nulls
// arrive as nil and map to nil pointers or zero values.

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asStringPtr(v any) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asBoolPtr(v any) *bool {
	if b, ok := v.(bool); ok {
		return &b
	}
	return nil
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func asIntPtr(v any) *int {
	switch n := v.(type) {
	case int:
		return &n
	case int64:
		i := int(n)
		return &i
	case float64:
		i := int(n)
		return &i
	}
	return nil
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func asFloatPtr(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	}
	return nil
}

func asStringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			out = append(out, asString(e))
		}
		return out
	}
	return nil
}

// The put* helpers add a value to a flat payload map, skipping nil
// pointers so that absent fields never reach the wire as explicit nulls.

func putString(m map[string]any, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}

func putBool(m map[string]any, key string, v *bool) {
	if v != nil {
		m[key] = *v
	}
}

func putInt(m map[string]any, key string, v *int) {
	if v != nil {
		m[key] = *v
	}
}

func putFloat(m map[string]any, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}
