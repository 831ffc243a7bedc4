package payload

import (
	"math"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// SerializeParams flattens params into a query string without a leading "?".
//
// Top-level mapping entries are visited in insertion order (a top-level
// sequence or text is visited with its indexes as keys). Sequences repeat their key
// once per element, mappings are JSON-encoded, and scalars are stringified.
// Null values, blobs, empty strings and non-finite numbers are dropped. Keys seen
// more than once accumulate their values in order and are rendered as
// repeated k=v pairs.
func SerializeParams(params Value) string {
	acc := newQueryAccumulator()
	eachEntry(params, acc.append)
	return acc.encode()
}

// eachEntry visits the top level of v the way a collection iterator would:
// mapping entries by key, sequence elements and text characters by index,
// nothing otherwise. Text is indexed by rune.
func eachEntry(v Value, fn func(k string, v Value)) {
	switch v.kind {
	case KindMapping:
		v.m.Each(fn)
	case KindSequence:
		for i, item := range v.seq {
			fn(strconv.Itoa(i), item)
		}
	case KindText:
		i := 0
		for _, r := range v.s {
			fn(strconv.Itoa(i), Text(string(r)))
			i++
		}
	}
}

type queryAccumulator struct {
	data *orderedmap.OrderedMap[string, []string]
}

func newQueryAccumulator() *queryAccumulator {
	return &queryAccumulator{data: orderedmap.New[string, []string]()}
}

func (q *queryAccumulator) append(k string, v Value) {
	switch v.kind {
	case KindSequence:
		for _, item := range v.seq {
			q.append(k, item)
		}
	case KindMapping:
		s, err := Stringify(v)
		if err != nil {
			return
		}
		q.add(k, s)
	case KindNull, KindBlob:
		// blobs only travel in multipart bodies
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return
		}
		q.add(k, formatNumber(v.n))
	default:
		q.add(k, v.String())
	}
}

func (q *queryAccumulator) add(k, s string) {
	if s == "" {
		return
	}
	existing, _ := q.data.Get(k)
	q.data.Set(k, append(existing, s))
}

func (q *queryAccumulator) encode() string {
	var b strings.Builder
	for pair := q.data.Oldest(); pair != nil; pair = pair.Next() {
		key := QueryEscape(pair.Key)
		for _, s := range pair.Value {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(key)
			b.WriteByte('=')
			b.WriteString(QueryEscape(s))
		}
	}
	return b.String()
}

// QueryEscape percent-encodes s for a query component. Letters, digits and
// -_.!~*'() are kept; every other byte of the UTF-8 encoding is escaped,
// so a space becomes %20.
func QueryEscape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	const hex = "0123456789ABCDEF"
	buf := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			buf = append(buf, c)
			continue
		}
		buf = append(buf, '%', hex[c>>4], hex[c&0x0f])
	}
	return string(buf)
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
