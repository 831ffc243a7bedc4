// Package payload prepares HTTP request bodies and query strings from nested
// values and decodes response bodies back into values.
//
// Every function in this package is pure: no I/O, no shared state, safe for
// concurrent use. The only non-deterministic operation is GenerateID.
package payload

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindText
	KindBlob
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Blob is a binary payload such as an uploaded file.
type Blob struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Value is a nested value: null, bool, number, text, blob, sequence or
// mapping. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	blob *Blob
	seq  []Value
	m    *Mapping
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a number.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Text wraps a string.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// BlobOf wraps binary data.
func BlobOf(b Blob) Value { return Value{kind: KindBlob, blob: &b} }

// Seq builds an ordered sequence.
func Seq(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindSequence, seq: items}
}

// Field is a key/value pair used to build mappings in order.
type Field struct {
	Key   string
	Value Value
}

// F is shorthand for Field{Key: k, Value: v}.
func F(k string, v Value) Field { return Field{Key: k, Value: v} }

// Map builds a mapping from fields, keeping their order. A repeated key
// keeps its first position and takes the last value.
func Map(fields ...Field) Value {
	m := NewMapping()
	for _, f := range fields {
		m.Set(f.Key, f.Value)
	}
	return m.Value()
}

// Kind reports the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsStructured reports whether v is a sequence or a mapping.
func (v Value) IsStructured() bool { return v.kind == KindSequence || v.kind == KindMapping }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsText returns the string held by v.
func (v Value) AsText() (string, bool) { return v.s, v.kind == KindText }

// AsBlob returns the blob held by v, or nil.
func (v Value) AsBlob() *Blob {
	if v.kind != KindBlob {
		return nil
	}
	return v.blob
}

// Items returns the elements of a sequence, or nil.
func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	return v.seq
}

// Fields returns the mapping held by v, or nil.
func (v Value) Fields() *Mapping {
	if v.kind != KindMapping {
		return nil
	}
	return v.m
}

// String converts v the way a JavaScript String() call would. Mappings
// and blobs collapse to their object tags; sequences join their elements
// with commas, rendering null elements as empty.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return formatNumber(v.n)
	case KindText:
		return v.s
	case KindBlob:
		return "[object Blob]"
	case KindSequence:
		parts := make([]string, len(v.seq))
		for i, item := range v.seq {
			if !item.IsNull() {
				parts[i] = item.String()
			}
		}
		return strings.Join(parts, ",")
	case KindMapping:
		return "[object Object]"
	}
	return ""
}

// formatNumber renders n with JavaScript Number#toString rules.
func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}
	abs := math.Abs(n)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(n, 'e', -1, 64)
		// Go pads the exponent to two digits ("1e-07"); JavaScript does not.
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Mapping is an insertion-ordered string-keyed map of Values.
type Mapping struct {
	om *orderedmap.OrderedMap[string, Value]
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{om: orderedmap.New[string, Value]()}
}

// Set stores v under k. An existing key keeps its position.
func (m *Mapping) Set(k string, v Value) *Mapping {
	m.om.Set(k, v)
	return m
}

// Get returns the value stored under k.
func (m *Mapping) Get(k string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	return m.om.Get(k)
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return m.om.Len()
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	keys := make([]string, 0, m.Len())
	m.Each(func(k string, _ Value) {
		keys = append(keys, k)
	})
	return keys
}

// Each calls fn for every entry in insertion order.
func (m *Mapping) Each(fn func(k string, v Value)) {
	if m == nil {
		return
	}
	for pair := m.om.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Value wraps m as a Value.
func (m *Mapping) Value() Value {
	if m == nil {
		m = NewMapping()
	}
	return Value{kind: KindMapping, m: m}
}

// FromAny converts plain Go data into a Value. Go map keys are visited in
// sorted order so the result is deterministic. Unsupported types become
// Text via fmt.Sprint.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return Bool(t)
	case string:
		return Text(t)
	case int:
		return Number(float64(t))
	case int8:
		return Number(float64(t))
	case int16:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint:
		return Number(float64(t))
	case uint8:
		return Number(float64(t))
	case uint16:
		return Number(float64(t))
	case uint32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case float32:
		return Number(float64(t))
	case float64:
		return Number(t)
	case []byte:
		return BlobOf(Blob{Data: t})
	case Blob:
		return BlobOf(t)
	case *Blob:
		if t == nil {
			return Null()
		}
		return BlobOf(*t)
	case *Mapping:
		return t.Value()
	case []Value:
		return Seq(t...)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromAny(item)
		}
		return Seq(items...)
	case []string:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = Text(item)
		}
		return Seq(items...)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping()
		for _, k := range keys {
			m.Set(k, FromAny(t[k]))
		}
		return m.Value()
	case map[string]string:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping()
		for _, k := range keys {
			m.Set(k, Text(t[k]))
		}
		return m.Value()
	}
	return Text(fmt.Sprint(x))
}

// Equal reports whether v and o hold the same variant and contents.
// Mapping comparison is order-sensitive.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n || (math.IsNaN(v.n) && math.IsNaN(o.n))
	case KindText:
		return v.s == o.s
	case KindBlob:
		return v.blob.Filename == o.blob.Filename &&
			v.blob.ContentType == o.blob.ContentType &&
			string(v.blob.Data) == string(o.blob.Data)
	case KindSequence:
		if len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if v.m.Len() != o.m.Len() {
			return false
		}
		for a, b := v.m.om.Oldest(), o.m.om.Oldest(); a != nil; a, b = a.Next(), b.Next() {
			if a.Key != b.Key || !a.Value.Equal(b.Value) {
				return false
			}
		}
		return true
	}
	return false
}

// Depth returns the nesting depth of v: 0 for scalars, 1 for a flat
// sequence or mapping, and so on.
func (v Value) Depth() int {
	depth := 0
	switch v.kind {
	case KindSequence:
		for _, item := range v.seq {
			depth = max(depth, item.Depth())
		}
		return depth + 1
	case KindMapping:
		v.m.Each(func(_ string, item Value) {
			depth = max(depth, item.Depth())
		})
		return depth + 1
	}
	return 0
}
