package payload

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// BodyKind tells which representation a Body carries.
type BodyKind int

const (
	// BodyRaw passes the original value through untouched.
	BodyRaw BodyKind = iota
	// BodyText is an encoded string: a query string or JSON text.
	BodyText
	// BodyMultipart is a multipart/form-data container.
	BodyMultipart
)

func (k BodyKind) String() string {
	switch k {
	case BodyText:
		return "text"
	case BodyMultipart:
		return "multipart"
	}
	return "raw"
}

// Part is a single multipart form part. Exactly one of Blob or Text is
// meaningful: Blob is non-nil for file parts.
type Part struct {
	Name string
	Text string
	Blob *Blob
}

// Body is the outgoing representation of a request payload.
type Body struct {
	Kind BodyKind

	// Text holds the encoded body for BodyText.
	Text string

	// Parts, Multipart and ContentType describe a BodyMultipart body.
	// ContentType carries the boundary parameter.
	Parts       []Part
	Multipart   []byte
	ContentType string

	// Raw is the untouched input for BodyRaw.
	Raw Value
}

// Bytes renders the body for the wire. Raw text and blobs are sent as is;
// other raw scalars are stringified.
func (b Body) Bytes() []byte {
	switch b.Kind {
	case BodyMultipart:
		return b.Multipart
	case BodyText:
		return []byte(b.Text)
	}
	switch b.Raw.kind {
	case KindNull:
		return nil
	case KindBlob:
		return b.Raw.blob.Data
	}
	return []byte(b.Raw.String())
}

// TransformRequest prepares data for sending with the given headers.
//
// A multipart content type yields a multipart container; a form-urlencoded
// content type yields SerializeParams(data); otherwise sequences and
// mappings are JSON-encoded and anything else passes through unchanged.
func TransformRequest(data Value, h Headers) (Body, error) {
	if IsMultipartFormData(h) {
		return buildMultipart(data)
	}

	if IsFormURLEncoded(h) {
		return Body{Kind: BodyText, Text: SerializeParams(data)}, nil
	}

	if data.IsStructured() {
		s, err := Stringify(data)
		if err != nil {
			return Body{}, err
		}
		return Body{Kind: BodyText, Text: s}, nil
	}

	return Body{Kind: BodyRaw, Raw: data}, nil
}

// MultipartParts lists the parts a multipart body built from data would
// contain, in order. Blobs become file parts, sequences repeat their key,
// mappings are JSON-encoded and scalars are stringified. Empty strings are
// kept.
func MultipartParts(data Value) ([]Part, error) {
	var (
		parts []Part
		err   error
	)
	var walk func(k string, v Value)
	walk = func(k string, v Value) {
		if err != nil {
			return
		}
		switch v.kind {
		case KindBlob:
			parts = append(parts, Part{Name: k, Blob: v.blob})
		case KindSequence:
			for _, item := range v.seq {
				walk(k, item)
			}
		case KindMapping:
			var s string
			if s, err = Stringify(v); err == nil {
				parts = append(parts, Part{Name: k, Text: s})
			}
		default:
			parts = append(parts, Part{Name: k, Text: v.String()})
		}
	}
	eachEntry(data, walk)
	return parts, err
}

func buildMultipart(data Value) (Body, error) {
	parts, err := MultipartParts(data)
	if err != nil {
		return Body{}, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		if err := writePart(w, p); err != nil {
			return Body{}, fmt.Errorf("payload: multipart part %q: %w", p.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return Body{}, fmt.Errorf("payload: multipart close: %w", err)
	}

	return Body{
		Kind:        BodyMultipart,
		Parts:       parts,
		Multipart:   buf.Bytes(),
		ContentType: w.FormDataContentType(),
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writePart(w *multipart.Writer, p Part) error {
	if p.Blob == nil {
		return w.WriteField(p.Name, p.Text)
	}

	filename := p.Blob.Filename
	if filename == "" {
		filename = "blob"
	}
	contentType := p.Blob.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(p.Name), quoteEscaper.Replace(filename)))
	header.Set("Content-Type", contentType)

	pw, err := w.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = pw.Write(p.Blob.Data)
	return err
}

// TransformResponse decodes a response body. When the headers declare JSON,
// the body (text, blob bytes, or the string form of any other value) is
// parsed and a *ParseError is returned on failure. Otherwise data is
// returned unchanged.
func TransformResponse(data Value, h Headers) (Value, error) {
	if !IsJSON(h) {
		return data, nil
	}
	if b := data.AsBlob(); b != nil {
		return ParseJSON(b.Data)
	}
	return ParseJSON([]byte(data.String()))
}

// DecodeResponse is TransformResponse over raw body bytes: JSON bodies are
// parsed, anything else is returned as Text.
func DecodeResponse(raw []byte, h Headers) (Value, error) {
	return TransformResponse(Text(string(raw)), h)
}
