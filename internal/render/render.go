// Package render encodes decoded payload values for HTTP clients in the
// format they accept.
package render

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/elnormous/contenttype"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"payload-codec-go/internal/payload"
)

// Format is the media type a value is rendered as.
type Format string

const (
	FormatJSON    Format = "application/json"
	FormatYAML    Format = "application/yaml"
	FormatMsgpack Format = "application/msgpack"
)

// ErrNotAcceptable is returned when the Accept header matches no supported format.
var ErrNotAcceptable = errors.New("render: no acceptable media type")

// available is ordered by preference; JSON is the default.
var available = []contenttype.MediaType{
	contenttype.NewMediaType(string(FormatJSON)),
	contenttype.NewMediaType(string(FormatYAML)),
	contenttype.NewMediaType(string(FormatMsgpack)),
}

// Negotiate picks a format from the request's Accept header. A missing
// header selects JSON.
func Negotiate(r *http.Request) (Format, error) {
	if r.Header.Get("Accept") == "" {
		return FormatJSON, nil
	}
	mt, _, err := contenttype.GetAcceptableMediaType(r, available)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotAcceptable, err)
	}
	return Format(mt.Type + "/" + mt.Subtype), nil
}

// Encode renders v in format f.
func Encode(f Format, v payload.Value) ([]byte, error) {
	switch f {
	case FormatJSON:
		return v.MarshalJSON()
	case FormatYAML:
		return yaml.Marshal(yamlValue{v})
	case FormatMsgpack:
		return msgpack.Marshal(msgpackValue{v})
	}
	return nil, fmt.Errorf("render: unsupported format %q", f)
}

// isInteger reports whether n is an exactly representable integer.
func isInteger(n float64) bool {
	return !math.IsInf(n, 0) && n == math.Trunc(n) && math.Abs(n) < 1<<53
}

// isIntegerLiteral reports whether n's string form is an integer literal.
// Numbers from 1e21 up switch to exponent notation.
func isIntegerLiteral(n float64) bool {
	return !math.IsInf(n, 0) && n == math.Trunc(n) && math.Abs(n) < 1e21
}

type yamlValue struct{ v payload.Value }

func (y yamlValue) MarshalYAML() (any, error) {
	return yamlNode(y.v), nil
}

func yamlNode(v payload.Value) *yaml.Node {
	switch v.Kind() {
	case payload.KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v.String()}
	case payload.KindNumber:
		n, _ := v.AsNumber()
		switch {
		case math.IsNaN(n):
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: ".nan"}
		case math.IsInf(n, 1):
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: ".inf"}
		case math.IsInf(n, -1):
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: "-.inf"}
		case isIntegerLiteral(n):
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: v.String()}
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: v.String()}
	case payload.KindText:
		s, _ := v.AsText()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	case payload.KindBlob:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!binary", Value: base64.StdEncoding.EncodeToString(v.AsBlob().Data)}
	case payload.KindSequence:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.Items() {
			n.Content = append(n.Content, yamlNode(item))
		}
		return n
	case payload.KindMapping:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		v.Fields().Each(func(k string, item payload.Value) {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				yamlNode(item),
			)
		})
		return n
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

type msgpackValue struct{ v payload.Value }

var _ msgpack.CustomEncoder = msgpackValue{}

func (m msgpackValue) EncodeMsgpack(enc *msgpack.Encoder) error {
	return encodeMsgpack(enc, m.v)
}

func encodeMsgpack(enc *msgpack.Encoder, v payload.Value) error {
	switch v.Kind() {
	case payload.KindNull:
		return enc.EncodeNil()
	case payload.KindBool:
		b, _ := v.AsBool()
		return enc.EncodeBool(b)
	case payload.KindNumber:
		n, _ := v.AsNumber()
		if isInteger(n) {
			return enc.EncodeInt(int64(n))
		}
		return enc.EncodeFloat64(n)
	case payload.KindText:
		s, _ := v.AsText()
		return enc.EncodeString(s)
	case payload.KindBlob:
		return enc.EncodeBytes(v.AsBlob().Data)
	case payload.KindSequence:
		items := v.Items()
		if err := enc.EncodeArrayLen(len(items)); err != nil {
			return err
		}
		for _, item := range items {
			if err := encodeMsgpack(enc, item); err != nil {
				return err
			}
		}
		return nil
	case payload.KindMapping:
		m := v.Fields()
		if err := enc.EncodeMapLen(m.Len()); err != nil {
			return err
		}
		var err error
		m.Each(func(k string, item payload.Value) {
			if err != nil {
				return
			}
			if err = enc.EncodeString(k); err != nil {
				return
			}
			err = encodeMsgpack(enc, item)
		})
		return err
	}
	return fmt.Errorf("render: unknown value kind %v", v.Kind())
}
