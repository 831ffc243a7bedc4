package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ParseError reports that a body declared as JSON could not be parsed.
// Err is the underlying encoding/json error.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("payload: parse json: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MarshalJSON encodes v like JSON.stringify: mapping keys keep insertion
// order, HTML characters are not escaped, non-finite numbers become null and
// blobs become an empty object.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := appendJSON(&buf, enc, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Stringify returns the JSON text of v.
func Stringify(v Value) (string, error) {
	b, err := v.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("payload: stringify: %w", err)
	}
	return string(b), nil
}

func appendJSON(buf *bytes.Buffer, enc *json.Encoder, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			buf.WriteString("null")
			return nil
		}
		buf.WriteString(formatNumber(v.n))
	case KindText:
		return appendString(buf, enc, v.s)
	case KindBlob:
		buf.WriteString("{}")
	case KindSequence:
		buf.WriteByte('[')
		for i, item := range v.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, enc, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMapping:
		buf.WriteByte('{')
		first := true
		var err error
		v.m.Each(func(k string, item Value) {
			if err != nil {
				return
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err = appendString(buf, enc, k); err != nil {
				return
			}
			buf.WriteByte(':')
			err = appendJSON(buf, enc, item)
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("payload: unknown value kind %d", v.kind)
	}
	return nil
}

// appendString writes a quoted JSON string. The encoder always terminates
// its output with a newline, which is trimmed. encoding/json escapes U+2028
// and U+2029 even with HTML escaping off; JSON.stringify writes them raw.
func appendString(buf *bytes.Buffer, enc *json.Encoder, s string) error {
	start := buf.Len()
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	if strings.ContainsAny(s, "\u2028\u2029") {
		quoted := unescapeLineSeparators(buf.Bytes()[start:])
		buf.Truncate(start)
		buf.Write(quoted)
	}
	return nil
}

// unescapeLineSeparators replaces \u2028 and \u2029 escapes in encoded JSON
// string text with the raw characters. Escaped backslashes are skipped so a
// literal "\\u2028" is left alone.
func unescapeLineSeparators(quoted []byte) []byte {
	out := make([]byte, 0, len(quoted))
	for i := 0; i < len(quoted); i++ {
		c := quoted[i]
		if c != '\\' || i+1 >= len(quoted) {
			out = append(out, c)
			continue
		}
		if quoted[i+1] == 'u' && i+6 <= len(quoted) {
			switch string(quoted[i+2 : i+6]) {
			case "2028":
				out = append(out, "\u2028"...)
				i += 5
				continue
			case "2029":
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, c, quoted[i+1])
		i++
	}
	return out
}

// UnmarshalJSON decodes JSON text into v, keeping object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseJSON parses JSON text into a Value. Object keys keep document order;
// a repeated key keeps its first position and takes the last value. Any
// syntax error, including trailing data, is returned as a *ParseError.
func ParseJSON(data []byte) (Value, error) {
	return parseJSON(data, 0)
}

// ParseJSONDepth is ParseJSON with a limit on Value.Depth of the result.
// maxDepth <= 0 disables the limit. Exceeding it returns ErrTooDeep.
func ParseJSONDepth(data []byte, maxDepth int) (Value, error) {
	return parseJSON(data, maxDepth)
}

// ErrTooDeep is returned when a JSON document nests deeper than allowed.
var ErrTooDeep = errors.New("payload: value nested too deeply")

func parseJSON(data []byte, maxDepth int) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	p := &parser{dec: dec, maxDepth: maxDepth}
	v, err := p.value(0)
	if err != nil {
		if errors.Is(err, ErrTooDeep) {
			return Value{}, err
		}
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Value{}, &ParseError{Err: err}
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = fmt.Errorf("unexpected data after top-level value at offset %d", dec.InputOffset())
		}
		return Value{}, &ParseError{Err: err}
	}
	return v, nil
}

type parser struct {
	dec      *json.Decoder
	maxDepth int
}

// value reads one value; depth counts the containers already open.
func (p *parser) value(depth int) (Value, error) {
	tok, err := p.dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return Text(t), nil
	case json.Number:
		n, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			// Out-of-range literals overflow to ±Inf, matching JSON.parse.
			var numErr *strconv.NumError
			if !errors.As(err, &numErr) || !errors.Is(numErr.Err, strconv.ErrRange) {
				return Value{}, err
			}
		}
		return Number(n), nil
	case json.Delim:
		if p.maxDepth > 0 && depth >= p.maxDepth {
			return Value{}, ErrTooDeep
		}
		switch t {
		case '{':
			return p.object(depth)
		case '[':
			return p.array(depth)
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v at offset %d", tok, p.dec.InputOffset())
}

func (p *parser) object(depth int) (Value, error) {
	m := NewMapping()
	for p.dec.More() {
		tok, err := p.dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key is %T, want string", tok)
		}
		item, err := p.value(depth + 1)
		if err != nil {
			return Value{}, err
		}
		m.Set(key, item)
	}
	if _, err := p.dec.Token(); err != nil {
		return Value{}, err
	}
	return m.Value(), nil
}

func (p *parser) array(depth int) (Value, error) {
	items := []Value{}
	for p.dec.More() {
		item, err := p.value(depth + 1)
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)
	}
	if _, err := p.dec.Token(); err != nil {
		return Value{}, err
	}
	return Seq(items...), nil
}
