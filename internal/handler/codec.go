package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"payload-codec-go/internal/model"
	"payload-codec-go/internal/payload"
	"payload-codec-go/internal/render"
	"payload-codec-go/internal/service"
)

// HeaderBodyKind reports how POST /v1/request encoded its payload.
const HeaderBodyKind = "X-Body-Kind"

// CodecHandler exposes the payload codec over HTTP.
type CodecHandler struct {
	service *service.CodecService
	logger  *slog.Logger
}

// NewCodecHandler creates a CodecHandler.
func NewCodecHandler(svc *service.CodecService, logger *slog.Logger) *CodecHandler {
	return &CodecHandler{
		service: svc,
		logger:  logger.With("component", "codec_handler"),
	}
}

// Params serializes request parameters into a query string.
func (h *CodecHandler) Params(c echo.Context) error {
	var req model.ParamsRequest
	if err := c.Bind(&req); err != nil {
		return h.mapError(c, err)
	}

	resp, err := h.service.Params(&req)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Request encodes a payload as an outgoing request body and returns the
// body itself with the Content-Type it would be sent with.
func (h *CodecHandler) Request(c echo.Context) error {
	var req model.EncodeRequest
	if err := c.Bind(&req); err != nil {
		return h.mapError(c, err)
	}

	out, err := h.service.EncodeRequest(&req)
	if err != nil {
		return h.mapError(c, err)
	}

	c.Response().Header().Set(HeaderBodyKind, out.Kind.String())
	return c.Blob(http.StatusOK, out.ContentType, out.Body)
}

// Response decodes the request body as if it were a server response
// carrying the request's Content-Type, and renders the result in the
// format chosen by the Accept header.
func (h *CodecHandler) Response(c echo.Context) error {
	req := c.Request()

	format, err := render.Negotiate(req)
	if err != nil {
		return h.mapError(c, err)
	}

	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return h.mapError(c, err)
	}

	v, err := h.service.DecodeResponse(raw, payload.HeadersFrom(req.Header))
	if err != nil {
		return h.mapError(c, err)
	}

	body, err := render.Encode(format, v)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Blob(http.StatusOK, string(format), body)
}

// URL composes a request URL from a base URL and a request configuration.
func (h *CodecHandler) URL(c echo.Context) error {
	var req model.URLRequest
	if err := c.Bind(&req); err != nil {
		return h.mapError(c, err)
	}

	resp, err := h.service.ComposeURL(&req)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// ID returns a freshly generated identifier.
func (h *CodecHandler) ID(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.NewID())
}

func (h *CodecHandler) mapError(c echo.Context, err error) error {
	path := c.Request().URL.Path

	var he *echo.HTTPError
	if errors.As(err, &he) {
		h.logger.Debug("request rejected", "err", err, "path", path)
		return c.JSON(he.Code, map[string]string{
			"error": http.StatusText(he.Code),
		})
	}

	if errors.Is(err, render.ErrNotAcceptable) {
		return c.JSON(http.StatusNotAcceptable, map[string]string{
			"error": "no acceptable response format; supported: application/json, application/yaml, application/msgpack",
		})
	}

	if errors.Is(err, payload.ErrTooDeep) {
		h.logger.Debug("value too deep", "err", err, "path", path)
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{
			"error": "value nested too deeply",
		})
	}

	if errors.Is(err, service.ErrInvalidInput) {
		h.logger.Debug("invalid input", "err", err, "path", path)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	var pe *payload.ParseError
	if errors.As(err, &pe) {
		h.logger.Debug("response body is not valid json", "err", err, "path", path)
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{
			"error": pe.Error(),
		})
	}

	h.logger.Error("codec error", "err", err, "path", path)
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": "internal error",
	})
}
