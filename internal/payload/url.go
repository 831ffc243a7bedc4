package payload

// RequestConfig is the part of a request description that determines its URL.
type RequestConfig struct {
	BaseURL string
	URL     string
	Params  Value
}

// Actor describes a request either statically through Config, or
// dynamically through FromReq, which derives the configuration from Req.
// FromReq takes precedence when set.
type Actor struct {
	Config  *RequestConfig
	Req     any
	FromReq func(req any) *RequestConfig
}

// Resolve returns the effective configuration, never nil.
func (a Actor) Resolve() *RequestConfig {
	cfg := a.Config
	if a.FromReq != nil {
		cfg = a.FromReq(a.Req)
	}
	if cfg == nil {
		return &RequestConfig{}
	}
	return cfg
}

// ComposeURL concatenates the base URL (baseURL, else the configured one),
// the request path and "?" followed by the serialized params. No joining or
// normalization is done, and an empty query still leaves the "?".
func ComposeURL(a Actor, baseURL string) string {
	cfg := a.Resolve()
	if baseURL == "" {
		baseURL = cfg.BaseURL
	}
	return baseURL + cfg.URL + "?" + SerializeParams(cfg.Params)
}
