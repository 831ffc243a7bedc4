// Package model defines the request and response types of the codec API.
package model

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"payload-codec-go/internal/payload"
)

// ParamsRequest is the body of POST /v1/params.
type ParamsRequest struct {
	Params json.RawMessage `json:"params"`
}

// ParamsResponse carries the serialized query string.
type ParamsResponse struct {
	Query string `json:"query"`
}

// EncodeRequest is the body of POST /v1/request: the payload to encode and
// the headers that select the encoding.
type EncodeRequest struct {
	Headers map[string]string `json:"headers"`
	Data    json.RawMessage   `json:"data"`
}

// EncodedBody is the wire form of an encoded request payload.
type EncodedBody struct {
	Kind        payload.BodyKind
	ContentType string
	Body        []byte
}

// URLRequest is the body of POST /v1/url.
type URLRequest struct {
	BaseURL string     `json:"baseUrl"`
	Config  *URLConfig `json:"config"`
}

// URLConfig mirrors the request configuration fields that shape a URL.
type URLConfig struct {
	BaseURL string          `json:"baseURL"`
	URL     string          `json:"url"`
	Params  json.RawMessage `json:"params"`
}

// URLResponse carries the composed URL.
type URLResponse struct {
	URL string `json:"url"`
}

// IDResponse carries a generated identifier.
type IDResponse struct {
	ID string `json:"id"`
}

// ErrInvalidBlob is returned when a $blob object cannot be decoded.
var ErrInvalidBlob = errors.New("invalid $blob value")

const blobKey = "$blob"

// DecodeBlobs replaces every object of the form
// {"$blob": "<base64>", "filename": "...", "contentType": "..."} with a
// Blob. filename and contentType are optional; any other key makes the
// object an ordinary mapping.
func DecodeBlobs(v payload.Value) (payload.Value, error) {
	switch v.Kind() {
	case payload.KindSequence:
		items := v.Items()
		out := make([]payload.Value, len(items))
		for i, item := range items {
			decoded, err := DecodeBlobs(item)
			if err != nil {
				return payload.Value{}, err
			}
			out[i] = decoded
		}
		return payload.Seq(out...), nil
	case payload.KindMapping:
		m := v.Fields()
		if blob, ok, err := blobFrom(m); ok || err != nil {
			return blob, err
		}
		out := payload.NewMapping()
		var err error
		m.Each(func(k string, item payload.Value) {
			if err != nil {
				return
			}
			var decoded payload.Value
			decoded, err = DecodeBlobs(item)
			out.Set(k, decoded)
		})
		if err != nil {
			return payload.Value{}, err
		}
		return out.Value(), nil
	}
	return v, nil
}

func blobFrom(m *payload.Mapping) (payload.Value, bool, error) {
	raw, ok := m.Get(blobKey)
	if !ok {
		return payload.Value{}, false, nil
	}
	for _, k := range m.Keys() {
		switch k {
		case blobKey, "filename", "contentType":
		default:
			return payload.Value{}, false, nil
		}
	}

	encoded, ok := raw.AsText()
	if !ok {
		return payload.Value{}, false, fmt.Errorf("%w: %s must be a base64 string", ErrInvalidBlob, blobKey)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return payload.Value{}, false, fmt.Errorf("%w: %w", ErrInvalidBlob, err)
	}

	blob := payload.Blob{Data: data}
	if fn, ok := m.Get("filename"); ok {
		blob.Filename, _ = fn.AsText()
	}
	if ct, ok := m.Get("contentType"); ok {
		blob.ContentType, _ = ct.AsText()
	}
	return payload.BlobOf(blob), true, nil
}
