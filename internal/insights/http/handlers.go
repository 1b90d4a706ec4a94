package insightshttp

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/noah-isme/finsight/internal/insights"
	"github.com/noah-isme/finsight/internal/platform/httpx"
)

const defaultMaxBodyBytes = 1 << 20

// Service exposes the business logic required by the handler.
type Service interface {
	Configured() bool
	Generate(ctx context.Context, req insights.Request) (insights.Response, error)
}

// Options configures request limits for the handler.
type Options struct {
	MaxBodyBytes int64
	// RateLimit is requests per minute per client IP; zero disables it.
	RateLimit int
}

// Handler serves the AI insights endpoint.
type Handler struct {
	logger  *slog.Logger
	service Service
	opts    Options
}

// NewHandler builds an insights Handler.
func NewHandler(logger *slog.Logger, service Service, opts Options) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Handler{logger: logger, service: service, opts: opts}
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	var req insights.Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	resp, err := h.service.Generate(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpx.StatusFor(err)
	attrs := []any{
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("status", status),
		slog.Any("error", err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "AI insights error", attrs...)
	} else {
		h.logger.WarnContext(r.Context(), "AI insights request rejected", attrs...)
	}
	httpx.RespondError(w, err)
}

// requireConfigured answers with the configuration error before the body is
// looked at, so no payload shape can mask a missing credential.
func (h *Handler) requireConfigured(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.service == nil || !h.service.Configured() {
			h.respondError(w, r, insights.ErrNotConfigured)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireJSON rejects request bodies that are not application/json.
func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" && r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || !strings.EqualFold(mediaType, "application/json") {
			httpx.RespondError(w, httpx.ErrUnsupportedMediaType)
			return
		}
		next.ServeHTTP(w, r)
	})
}
