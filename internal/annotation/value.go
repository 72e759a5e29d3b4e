package annotation

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Kind identifies which variant a Value holds
type Kind string

const (
	KindBool   Kind = "bool"
	KindString Kind = "string"
	KindArgs   Kind = "args"
)

// Value is one occurrence of an annotation.
//
// A bare tag (`@foo` or `@foo()`) is a boolean marker, a tag followed by text
// on the same line is a string, and a parenthesized tag with at least one
// entry is an argument list.
type Value struct {
	kind Kind
	text string
	args Args
}

// Bool returns the presence marker value
func Bool() Value {
	return Value{kind: KindBool}
}

// String returns a scalar string value
func String(s string) Value {
	return Value{kind: KindString, text: s}
}

// ArgsValue returns an argument list value
func ArgsValue(args Args) Value {
	return Value{kind: KindArgs, args: args}
}

// Kind returns the variant held by the value
func (v Value) Kind() Kind {
	if v.kind == "" {
		return KindBool
	}
	return v.kind
}

// IsBool reports whether the value is a presence marker
func (v Value) IsBool() bool {
	return v.Kind() == KindBool
}

// Text returns the scalar string, or "" for other variants
func (v Value) Text() string {
	return v.text
}

// Args returns the argument list, or nil for other variants
func (v Value) Args() Args {
	return v.args
}

// MarshalJSON encodes the value as true, a string, an array or an object
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case KindString:
		return json.Marshal(v.text)
	case KindArgs:
		return v.args.MarshalJSON()
	default:
		return []byte("true"), nil
	}
}

// Arg is a single entry of an argument list
type Arg struct {
	Key   string `json:"key,omitempty"`
	Keyed bool   `json:"keyed,omitempty"`
	Value string `json:"value"`
}

// Args is an ordered argument list mixing positional and keyed entries
type Args []Arg

// Len returns the number of entries
func (a Args) Len() int {
	return len(a)
}

// Get returns the value stored under key
func (a Args) Get(key string) (string, bool) {
	for _, arg := range a {
		if arg.Keyed && arg.Key == key {
			return arg.Value, true
		}
	}
	return "", false
}

// Positional returns the unkeyed entries in order
func (a Args) Positional() []string {
	var out []string
	for _, arg := range a {
		if !arg.Keyed {
			out = append(out, arg.Value)
		}
	}
	return out
}

// Keys returns the keyed entry names in order
func (a Args) Keys() []string {
	var out []string
	for _, arg := range a {
		if arg.Keyed {
			out = append(out, arg.Key)
		}
	}
	return out
}

// set stores value under key, overwriting an earlier entry in place
func (a Args) set(key, value string) Args {
	for i := range a {
		if a[i].Keyed && a[i].Key == key {
			a[i].Value = value
			return a
		}
	}
	return append(a, Arg{Key: key, Keyed: true, Value: value})
}

// push appends a positional entry
func (a Args) push(value string) Args {
	return append(a, Arg{Value: value})
}

// MarshalJSON encodes purely positional lists as arrays and everything else
// as an object in first-insertion order.
//
// Keys that are canonical non-negative integers share one index space with
// positional entries: a positional entry takes the next index after the
// highest one used so far, and a later entry landing on an existing key
// replaces its value in place. `@x(1=a, b)` encodes as {"1":"a","2":"b"}.
func (a Args) MarshalJSON() ([]byte, error) {
	if len(a.Keys()) == 0 {
		values := a.Positional()
		if values == nil {
			values = []string{}
		}
		return json.Marshal(values)
	}

	var (
		keys   []string
		values = make(map[string]string, len(a))
		next   = 0
	)
	for _, arg := range a {
		key := arg.Key
		if !arg.Keyed {
			key = strconv.Itoa(next)
			next++
		} else if n, ok := indexKey(key); ok && n >= next {
			next = n + 1
		}
		if _, ok := values[key]; !ok {
			keys = append(keys, key)
		}
		values[key] = arg.Value
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, key, values[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// indexKey reports whether key is a canonical non-negative integer
func indexKey(key string) (int, bool) {
	n, err := strconv.Atoi(key)
	if err != nil || n < 0 || strconv.Itoa(n) != key {
		return 0, false
	}
	return n, true
}

func writeMember(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}
