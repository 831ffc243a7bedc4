package payload

import (
	"net/http"
	"strings"
)

// Media types recognized by the classifier.
const (
	MediaMultipartFormData = "multipart/form-data"
	MediaFormURLEncoded    = "application/x-www-form-urlencoded"
	MediaJSON              = "application/json"
)

// Headers is a request or response header set keyed by field name.
// Only the "Content-Type" and "content-type" spellings are consulted.
type Headers map[string]string

// HeadersFrom copies the Content-Type of an http.Header.
func HeadersFrom(h http.Header) Headers {
	out := Headers{}
	if ct := h.Get("Content-Type"); ct != "" {
		out["Content-Type"] = ct
	}
	return out
}

// ContentType returns the declared content type, or "" when absent.
func ContentType(h Headers) string {
	if ct := h["Content-Type"]; ct != "" {
		return ct
	}
	return h["content-type"]
}

// IsMultipartFormData reports whether the content type mentions multipart/form-data.
func IsMultipartFormData(h Headers) bool {
	return strings.Contains(ContentType(h), MediaMultipartFormData)
}

// IsFormURLEncoded reports whether the content type mentions application/x-www-form-urlencoded.
func IsFormURLEncoded(h Headers) bool {
	return strings.Contains(ContentType(h), MediaFormURLEncoded)
}

// IsJSON reports whether the content type mentions application/json.
func IsJSON(h Headers) bool {
	return strings.Contains(ContentType(h), MediaJSON)
}

// Classification is the handling strategy selected for a content type.
type Classification int

const (
	Other Classification = iota
	Multipart
	URLEncoded
	JSON
)

func (c Classification) String() string {
	switch c {
	case Multipart:
		return "multipart"
	case URLEncoded:
		return "urlencoded"
	case JSON:
		return "json"
	}
	return "other"
}

// Classify picks one classification, checking multipart, then urlencoded,
// then JSON. Callers that must see every match should use the predicates.
func Classify(h Headers) Classification {
	switch {
	case IsMultipartFormData(h):
		return Multipart
	case IsFormURLEncoded(h):
		return URLEncoded
	case IsJSON(h):
		return JSON
	}
	return Other
}
