package annotation

import "bytes"

// Result maps annotation names to their values, one value per occurrence in
// document order. Names are reported in order of first appearance.
type Result struct {
	names  []string
	values map[string][]Value
}

// Add appends value to the list kept for name
func (r *Result) Add(name string, value Value) {
	if r.values == nil {
		r.values = make(map[string][]Value)
	}
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = append(r.values[name], value)
}

// Get returns every value recorded for name
func (r Result) Get(name string) []Value {
	return r.values[name]
}

// First returns the first value recorded for name
func (r Result) First(name string) (Value, bool) {
	values := r.values[name]
	if len(values) == 0 {
		return Value{}, false
	}
	return values[0], true
}

// Has reports whether name occurred at least once
func (r Result) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Names returns the annotation names in order of first appearance
func (r Result) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of distinct names
func (r Result) Len() int {
	return len(r.names)
}

// IsEmpty reports whether no annotation was found
func (r Result) IsEmpty() bool {
	return len(r.names) == 0
}

// Map returns a copy of the underlying mapping
func (r Result) Map() map[string][]Value {
	out := make(map[string][]Value, len(r.values))
	for name, values := range r.values {
		out[name] = append([]Value(nil), values...)
	}
	return out
}

// MarshalJSON encodes the result as an object keyed in first-appearance order
func (r Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, name, r.values[name]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
