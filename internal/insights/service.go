package insights

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Model call outcomes reported to the Recorder.
const (
	OutcomeSuccess         = "success"
	OutcomeUpstreamError   = "upstream_error"
	OutcomeSchemaViolation = "schema_violation"
	OutcomeCanceled        = "canceled"
)

const (
	defaultModel         = "gemini-2.0-flash"
	defaultModelTimeout  = 60 * time.Second
	defaultMaxConcurrent = 4
)

// Model is the generative provider. GenerateJSON returns the raw text of
// the model's answer to prompt, constrained by inv.Schema.
type Model interface {
	GenerateJSON(ctx context.Context, inv Invocation, prompt string) (string, error)
}

// Recorder receives model call instrumentation.
type Recorder interface {
	ModelCallStarted()
	ModelCallFinished(outcome string, elapsed time.Duration)
	CacheLookup(hit bool)
}

// Config is the process-wide pipeline configuration.
type Config struct {
	APIKey        string
	Model         string
	ModelTimeout  time.Duration
	MaxConcurrent int64
	StrictSchema  bool
}

// ServiceOptions carries optional collaborators.
type ServiceOptions struct {
	Logger   *slog.Logger
	Recorder Recorder
	Cache    *Cache
}

// Service runs the insights pipeline.
type Service struct {
	cfg      Config
	model    Model
	gate     *semaphore.Weighted
	cache    *Cache
	flight   singleflight.Group
	recorder Recorder
	logger   *slog.Logger
	newID    func() string
}

// NewService constructs a Service instance.
func NewService(cfg Config, model Model, opts ServiceOptions) *Service {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.ModelTimeout <= 0 {
		cfg.ModelTimeout = defaultModelTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{
		cfg:      cfg,
		model:    model,
		gate:     semaphore.NewWeighted(cfg.MaxConcurrent),
		cache:    opts.Cache,
		recorder: recorder,
		logger:   logger.With(slog.String("component", "insights")),
		newID:    uuid.NewString,
	}
}

// Configured reports whether a provider credential is present.
func (s *Service) Configured() bool {
	return s != nil && s.cfg.APIKey != ""
}

// Generate validates req, asks the model for insights and parses the answer.
func (s *Service) Generate(ctx context.Context, req Request) (Response, error) {
	if !s.Configured() || s.model == nil {
		return Response{}, ErrNotConfigured
	}
	if err := ValidateRequest(req); err != nil {
		return Response{}, err
	}
	if s.cache == nil {
		return s.invoke(ctx, req)
	}
	return s.generateCached(ctx, req)
}

func (s *Service) generateCached(ctx context.Context, req Request) (Response, error) {
	key, err := s.cache.BuildKey(s.cfg.Model, req)
	if err != nil {
		return Response{}, &ValidationError{Problems: []string{err.Error()}}
	}
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("insights cache read", slog.Any("error", err))
	}
	s.recorder.CacheLookup(ok)
	if ok {
		return cached, nil
	}

	// Waiters leave on their own ctx; the shared call is bounded by ModelTimeout.
	sharedCtx := context.WithoutCancel(ctx)
	resultChan := s.flight.DoChan(key, func() (interface{}, error) {
		resp, err := s.invoke(sharedCtx, req)
		if err != nil {
			return nil, err
		}
		if resp.Complete() {
			if err := s.cache.Set(sharedCtx, key, resp); err != nil {
				s.logger.Warn("insights cache write", slog.Any("error", err))
			}
		}
		return resp, nil
	})
	select {
	case <-ctx.Done():
		return Response{}, &UpstreamError{Err: ctx.Err()}
	case res := <-resultChan:
		if res.Err != nil {
			return Response{}, res.Err
		}
		return res.Val.(Response), nil
	}
}

func (s *Service) invoke(ctx context.Context, req Request) (Response, error) {
	if !s.gate.TryAcquire(1) {
		return Response{}, ErrBusy
	}
	defer s.gate.Release(1)

	prompt, err := BuildPrompt(req)
	if err != nil {
		return Response{}, &ValidationError{Problems: []string{err.Error()}}
	}

	inv := s.invocation()
	logger := s.logger.With(slog.String("invocation_id", inv.ID), slog.String("model", inv.Model))
	logger.Debug("invoking model", slog.Int("prompt_bytes", len(prompt)), slog.Int("month", req.Month), slog.Int("year", req.Year))

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ModelTimeout)
	defer cancel()

	start := time.Now()
	s.recorder.ModelCallStarted()
	text, err := s.model.GenerateJSON(callCtx, inv, prompt)
	if err != nil {
		outcome := OutcomeUpstreamError
		if errors.Is(ctx.Err(), context.Canceled) {
			outcome = OutcomeCanceled
		}
		s.recorder.ModelCallFinished(outcome, time.Since(start))
		logger.Warn("model call failed", slog.String("outcome", outcome), slog.Any("error", err))
		return Response{}, &UpstreamError{Err: err}
	}

	resp, problems := ParseResponse(text)
	if s.cfg.StrictSchema {
		if len(problems) > 0 {
			s.recorder.ModelCallFinished(OutcomeSchemaViolation, time.Since(start))
			return Response{}, &SchemaViolationError{Problems: problems}
		}
		resp = resp.Typed()
	} else if len(problems) > 0 {
		logger.Warn("model response deviates from schema", slog.Any("problems", problems))
	}
	s.recorder.ModelCallFinished(OutcomeSuccess, time.Since(start))
	return resp, nil
}

func (s *Service) invocation() Invocation {
	return Invocation{
		ID:       s.newID(),
		APIKey:   s.cfg.APIKey,
		Model:    s.cfg.Model,
		MIMEType: jsonMIMEType,
		Schema:   ResponseSchema(),
	}
}

type noopRecorder struct{}

func (noopRecorder) ModelCallStarted() {}
func (noopRecorder) ModelCallFinished(string, time.Duration) {}
func (noopRecorder) CacheLookup(bool) {}
