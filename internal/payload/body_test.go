package payload

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		headers   Headers
		want      Classification
		multipart bool
		form      bool
		json      bool
	}{
		{"nil headers", nil, Other, false, false, false},
		{"empty", Headers{}, Other, false, false, false},
		{"canonical json", Headers{"Content-Type": "application/json"}, JSON, false, false, true},
		{"lowercase json with charset", Headers{"content-type": "application/json; charset=utf-8"}, JSON, false, false, true},
		{"multipart with boundary", Headers{"Content-Type": "multipart/form-data; boundary=x"}, Multipart, true, false, false},
		{"urlencoded", Headers{"Content-Type": "application/x-www-form-urlencoded"}, URLEncoded, false, true, false},
		{"other casing ignored", Headers{"CONTENT-TYPE": "application/json"}, Other, false, false, false},
		{"canonical wins", Headers{"Content-Type": "text/plain", "content-type": "application/json"}, Other, false, false, false},
		{"empty canonical falls back", Headers{"Content-Type": "", "content-type": "application/json"}, JSON, false, false, true},
		{"compound value satisfies two predicates", Headers{"Content-Type": "multipart/form-data, application/json"}, Multipart, true, false, true},
		{"unknown", Headers{"Content-Type": "text/html"}, Other, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.headers); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
			if got := IsMultipartFormData(tt.headers); got != tt.multipart {
				t.Errorf("IsMultipartFormData() = %v, want %v", got, tt.multipart)
			}
			if got := IsFormURLEncoded(tt.headers); got != tt.form {
				t.Errorf("IsFormURLEncoded() = %v, want %v", got, tt.form)
			}
			if got := IsJSON(tt.headers); got != tt.json {
				t.Errorf("IsJSON() = %v, want %v", got, tt.json)
			}
		})
	}
}

func TestTransformRequest_JSONAndPassthrough(t *testing.T) {
	tests := []struct {
		name     string
		data     Value
		headers  Headers
		wantKind BodyKind
		wantText string
	}{
		{
			name:     "sequence without content type",
			data:     Seq(Number(1), Number(2), Number(3)),
			headers:  Headers{},
			wantKind: BodyText,
			wantText: "[1,2,3]",
		},
		{
			name:     "mapping with json content type",
			data:     Map(F("b", Text("<x>")), F("a", Bool(true))),
			headers:  Headers{"Content-Type": "application/json"},
			wantKind: BodyText,
			wantText: `{"b":"<x>","a":true}`,
		},
		{
			name:     "urlencoded",
			data:     Map(F("a", Text("x")), F("b", Seq(Text("1"), Text("2")))),
			headers:  Headers{"content-type": "application/x-www-form-urlencoded"},
			wantKind: BodyText,
			wantText: "a=x&b=1&b=2",
		},
		{
			name:     "string passes through",
			data:     Text("raw"),
			headers:  Headers{},
			wantKind: BodyRaw,
			wantText: "raw",
		},
		{
			name:     "number passes through",
			data:     Number(42),
			headers:  Headers{"Content-Type": "application/json"},
			wantKind: BodyRaw,
			wantText: "42",
		},
		{
			name:     "blob passes through",
			data:     BlobOf(Blob{Data: []byte{0x01, 0x02}}),
			headers:  Headers{"Content-Type": "application/octet-stream"},
			wantKind: BodyRaw,
			wantText: "\x01\x02",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := TransformRequest(tt.data, tt.headers)
			if err != nil {
				t.Fatalf("TransformRequest() error = %v", err)
			}
			if body.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", body.Kind, tt.wantKind)
			}
			if got := string(body.Bytes()); got != tt.wantText {
				t.Errorf("Bytes() = %q, want %q", got, tt.wantText)
			}
			if body.Kind == BodyRaw && !body.Raw.Equal(tt.data) {
				t.Error("Raw should be the untouched input")
			}
		})
	}
}

func TestTransformRequest_Multipart(t *testing.T) {
	file := Blob{Filename: "a.txt", ContentType: "text/plain", Data: []byte("hello")}
	data := Map(
		F("name", Text("bob")),
		F("empty", Text("")),
		F("tags", Seq(Text("x"), Text("y"))),
		F("meta", Map(F("k", Number(1)))),
		F("file", BlobOf(file)),
		F("anon", BlobOf(Blob{Data: []byte{0xff}})),
		F("n", Null()),
	)

	body, err := TransformRequest(data, Headers{"Content-Type": "multipart/form-data"})
	if err != nil {
		t.Fatalf("TransformRequest() error = %v", err)
	}
	if body.Kind != BodyMultipart {
		t.Fatalf("Kind = %v, want %v", body.Kind, BodyMultipart)
	}

	mediaType, params, err := mime.ParseMediaType(body.ContentType)
	if err != nil {
		t.Fatalf("ParseMediaType(%q): %v", body.ContentType, err)
	}
	if mediaType != "multipart/form-data" {
		t.Errorf("media type = %q, want multipart/form-data", mediaType)
	}

	type got struct {
		name, filename, contentType, value string
	}
	var parts []got
	r := multipart.NewReader(strings.NewReader(string(body.Multipart)), params["boundary"])
	for {
		p, err := r.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("NextPart: %v", err)
		}
		b, err := io.ReadAll(p)
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		parts = append(parts, got{p.FormName(), p.FileName(), p.Header.Get("Content-Type"), string(b)})
	}

	want := []got{
		{"name", "", "", "bob"},
		{"empty", "", "", ""},
		{"tags", "", "", "x"},
		{"tags", "", "", "y"},
		{"meta", "", "", `{"k":1}`},
		{"file", "a.txt", "text/plain", "hello"},
		{"anon", "blob", "application/octet-stream", "\xff"},
		{"n", "", "", "null"},
	}
	if len(parts) != len(want) {
		t.Fatalf("got %d parts, want %d: %+v", len(parts), len(want), parts)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Errorf("part %d = %+v, want %+v", i, parts[i], want[i])
		}
	}
	if len(body.Parts) != len(want) {
		t.Errorf("len(Parts) = %d, want %d", len(body.Parts), len(want))
	}
}

func TestMultipartParts_TopLevelText(t *testing.T) {
	parts, err := MultipartParts(Text("hi"))
	if err != nil {
		t.Fatalf("MultipartParts() error = %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("parts = %d, want 2", len(parts))
	}
	if parts[0].Name != "0" || parts[0].Text != "h" || parts[1].Name != "1" || parts[1].Text != "i" {
		t.Errorf("parts = %+v, want 0=h and 1=i", parts)
	}
}

func TestTransformRequest_MultipartPrecedence(t *testing.T) {
	h := Headers{"Content-Type": "multipart/form-data; application/x-www-form-urlencoded"}
	body, err := TransformRequest(Map(F("a", Text("1"))), h)
	if err != nil {
		t.Fatalf("TransformRequest() error = %v", err)
	}
	if body.Kind != BodyMultipart {
		t.Errorf("Kind = %v, want multipart to win", body.Kind)
	}
}

func TestTransformResponse(t *testing.T) {
	h := Headers{"content-type": "application/json; charset=utf-8"}

	v, err := TransformResponse(Text(`{"a":1}`), h)
	if err != nil {
		t.Fatalf("TransformResponse() error = %v", err)
	}
	if !v.Equal(Map(F("a", Number(1)))) {
		t.Errorf("TransformResponse() = %s, want {a:1}", v)
	}

	_, err = TransformResponse(Text("not-json"), h)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("TransformResponse() error = %v, want *ParseError", err)
	}
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Errorf("error should unwrap to *json.SyntaxError, got %T", pe.Err)
	}

	blob := BlobOf(Blob{Data: []byte(`[true,null]`)})
	v, err = TransformResponse(blob, h)
	if err != nil {
		t.Fatalf("TransformResponse(blob) error = %v", err)
	}
	if !v.Equal(Seq(Bool(true), Null())) {
		t.Errorf("TransformResponse(blob) = %v", v)
	}

	raw := Text("not-json")
	v, err = TransformResponse(raw, Headers{"Content-Type": "text/plain"})
	if err != nil {
		t.Fatalf("TransformResponse(text/plain) error = %v", err)
	}
	if !v.Equal(raw) {
		t.Errorf("TransformResponse(text/plain) = %v, want unchanged", v)
	}
}

func TestDecodeResponse(t *testing.T) {
	v, err := DecodeResponse([]byte(`{"b":2,"a":[1]}`), Headers{"Content-Type": "application/json"})
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if got := v.Fields().Keys(); len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("keys = %v, want [b a]", got)
	}

	v, err = DecodeResponse([]byte("plain"), nil)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if s, _ := v.AsText(); s != "plain" {
		t.Errorf("DecodeResponse() = %q, want %q", s, "plain")
	}
}
