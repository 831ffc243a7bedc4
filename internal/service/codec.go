// Package service implements the codec operations behind the HTTP API.
package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"payload-codec-go/internal/config"
	"payload-codec-go/internal/metrics"
	"payload-codec-go/internal/model"
	"payload-codec-go/internal/payload"
)

// ErrInvalidInput is returned when an API request carries a value that
// cannot be decoded.
var ErrInvalidInput = errors.New("invalid input")

// Operation names used in logs and metrics.
const (
	opParams   = "params"
	opRequest  = "request"
	opResponse = "response"
	opURL      = "url"
	opID       = "id"
)

// CodecService runs payload transformations for API callers.
type CodecService struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	ids     payload.IDGenerator
}

// NewCodecService creates a CodecService.
// The metrics parameter is optional; pass nil to disable operation metrics.
func NewCodecService(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *CodecService {
	return &CodecService{
		cfg:     cfg,
		logger:  logger.With("component", "codec_service"),
		metrics: m,
	}
}

// Params serializes the request's params into a query string.
func (s *CodecService) Params(req *model.ParamsRequest) (resp *model.ParamsResponse, err error) {
	defer func() { s.record(opParams, err) }()

	params, err := s.decodeValue("params", req.Params)
	if err != nil {
		return nil, err
	}

	query := payload.SerializeParams(params)
	s.logger.Debug("serialized params", "keys", params.Fields().Len(), "bytes", len(query))
	return &model.ParamsResponse{Query: query}, nil
}

// EncodeRequest encodes the request's data according to its headers.
func (s *CodecService) EncodeRequest(req *model.EncodeRequest) (out *model.EncodedBody, err error) {
	defer func() { s.record(opRequest, err) }()

	data, err := s.decodeValue("data", req.Data)
	if err != nil {
		return nil, err
	}

	headers := payload.Headers(req.Headers)
	body, err := payload.TransformRequest(data, headers)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	out = &model.EncodedBody{
		Kind:        body.Kind,
		ContentType: bodyContentType(body, headers),
		Body:        body.Bytes(),
	}
	s.observeSize(opRequest, len(out.Body))
	s.logger.Debug("encoded request body",
		"classification", payload.Classify(headers).String(),
		"kind", body.Kind.String(),
		"bytes", len(out.Body),
	)
	return out, nil
}

// bodyContentType picks the Content-Type to send with an encoded body.
func bodyContentType(body payload.Body, h payload.Headers) string {
	if body.Kind == payload.BodyMultipart {
		return body.ContentType
	}
	if ct := payload.ContentType(h); ct != "" {
		return ct
	}
	if body.Kind == payload.BodyText {
		return payload.MediaJSON
	}
	if b := body.Raw.AsBlob(); b != nil {
		if b.ContentType != "" {
			return b.ContentType
		}
		return "application/octet-stream"
	}
	return "text/plain; charset=utf-8"
}

// DecodeResponse decodes a response body declared with the given headers.
// Invalid JSON yields a *payload.ParseError.
func (s *CodecService) DecodeResponse(raw []byte, headers payload.Headers) (v payload.Value, err error) {
	defer func() { s.record(opResponse, err) }()

	s.observeSize(opResponse, len(raw))

	v, err = payload.DecodeResponse(raw, headers)
	if err != nil {
		s.logger.Debug("response body rejected", "err", err)
		return payload.Value{}, err
	}
	if limit, depth := s.cfg.Codec.MaxDepth, v.Depth(); limit > 0 && depth > limit {
		return payload.Value{}, fmt.Errorf("response body depth %d: %w", depth, payload.ErrTooDeep)
	}
	return v, nil
}

// ComposeURL builds a request URL from a static request configuration.
func (s *CodecService) ComposeURL(req *model.URLRequest) (resp *model.URLResponse, err error) {
	defer func() { s.record(opURL, err) }()

	var cfg *payload.RequestConfig
	if req.Config != nil {
		var params payload.Value
		params, err = s.decodeValue("config.params", req.Config.Params)
		if err != nil {
			return nil, err
		}
		cfg = &payload.RequestConfig{
			BaseURL: req.Config.BaseURL,
			URL:     req.Config.URL,
			Params:  params,
		}
	}

	u := payload.ComposeURL(payload.Actor{Config: cfg}, req.BaseURL)
	return &model.URLResponse{URL: u}, nil
}

// NewID returns a fresh identifier.
func (s *CodecService) NewID() *model.IDResponse {
	s.record(opID, nil)
	return &model.IDResponse{ID: s.ids.Generate()}
}

// decodeValue parses an API input field, honoring the configured depth
// limit and the $blob convention. A missing field decodes to null.
func (s *CodecService) decodeValue(field string, raw json.RawMessage) (payload.Value, error) {
	if len(raw) == 0 {
		return payload.Null(), nil
	}
	v, err := payload.ParseJSONDepth(raw, s.cfg.Codec.MaxDepth)
	if err != nil {
		return payload.Value{}, fmt.Errorf("%w: %s: %w", ErrInvalidInput, field, err)
	}
	v, err = model.DecodeBlobs(v)
	if err != nil {
		return payload.Value{}, fmt.Errorf("%w: %s: %w", ErrInvalidInput, field, err)
	}
	return v, nil
}

func (s *CodecService) record(op string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.CodecOperations.WithLabelValues(op, outcome(err)).Inc()
}

func (s *CodecService) observeSize(op string, n int) {
	if s.metrics == nil {
		return
	}
	s.metrics.CodecBodyBytes.WithLabelValues(op).Observe(float64(n))
}

func outcome(err error) string {
	var pe *payload.ParseError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrInvalidInput), errors.Is(err, payload.ErrTooDeep), errors.As(err, &pe):
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeError
}
