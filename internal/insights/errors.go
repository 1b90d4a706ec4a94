package insights

import (
	"errors"
	"strings"

	"github.com/noah-isme/finsight/internal/platform/httpx"
)

const upstreamFallbackMessage = "Failed to generate insights"

// ErrNotConfigured is returned when no provider credential is configured.
var ErrNotConfigured = errors.New("Gemini API key not configured")

// ErrBusy is returned when every model call slot is taken. Requests are
// never queued behind the gate.
var ErrBusy error = &kindError{
	msg:  "too many insight requests in flight, try again shortly",
	kind: httpx.ErrUnavailable,
}

type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Is(target error) bool { return target == e.kind }

// UpstreamError wraps a failed model call. Its message is the provider's
// message so callers see the real cause.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	if e == nil || e.Err == nil || e.Err.Error() == "" {
		return upstreamFallbackMessage
	}
	return e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ValidationError lists everything wrong with an incoming Request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid insights request: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == httpx.ErrValidation }

// SchemaViolationError reports model output that broke the response
// contract. It is only produced when strict schema checking is enabled.
type SchemaViolationError struct {
	Problems []string
}

func (e *SchemaViolationError) Error() string {
	return "model response violated the insights schema: " + strings.Join(e.Problems, "; ")
}

func (e *SchemaViolationError) Is(target error) bool { return target == httpx.ErrBadGateway }
