// Package state implements the client-side fact store: versionless JSON-like
// documents keyed by module name, a validated FIFO update queue, derived
// widget slices, and asynchronous change notification.
package state

// Document is the JSON-like state tree held for one module. Values may be
// primitives, typed domain records, nested maps or lists. Updates replace
// whole top-level keys, so a shallow clone is enough to isolate readers.
type Document map[string]any

// Clone returns a copy of the document sharing the key values.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// String returns the string value of a field, or "" when absent or not a string.
func (d Document) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Bool returns the bool value of a field, or false when absent or not a bool.
func (d Document) Bool(key string) bool {
	b, _ := d[key].(bool)
	return b
}

// Int returns the integer value of a field, accepting the numeric types a
// JSON round-trip can produce.
func (d Document) Int(key string) int {
	switch v := d[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
