// Package gemini implements insights.Model on top of Google's Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"google.golang.org/genai"

	"github.com/noah-isme/finsight/internal/insights"
)

// Options tunes how the underlying genai clients are built.
type Options struct {
	// BaseURL overrides the Gemini endpoint, e.g. for a proxy or tests.
	BaseURL    string
	HTTPClient *http.Client
}

// Provider lazily creates one genai client per API key and reuses it.
type Provider struct {
	mu      sync.Mutex
	clients map[string]*genai.Client
	opts    Options
	log     *slog.Logger
}

// NewProvider constructs a Provider. No client is created until the first
// call, so an unset key never touches the SDK.
func NewProvider(logger *slog.Logger, opts Options) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		clients: make(map[string]*genai.Client),
		opts:    opts,
		log:     logger.With(slog.String("component", "gemini_provider")),
	}
}

// GenerateJSON sends prompt with a JSON response schema and returns the
// text of the first candidate.
func (p *Provider) GenerateJSON(ctx context.Context, inv insights.Invocation, prompt string) (string, error) {
	client, err := p.client(ctx, inv.APIKey)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: inv.MIMEType,
		ResponseSchema:   inv.Schema,
	}

	resp, err := client.Models.GenerateContent(ctx, inv.Model, contents, cfg)
	if err != nil {
		p.log.DebugContext(ctx, "generate content failed", slog.String("invocation_id", inv.ID), slog.Any("error", err))
		return "", err
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		reason := string(fb.BlockReason)
		if fb.BlockReasonMessage != "" {
			reason = fb.BlockReasonMessage
		}
		return "", fmt.Errorf("prompt blocked by provider: %s", reason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("provider returned no candidates")
	}

	p.log.DebugContext(ctx, "generate content finished",
		slog.String("invocation_id", inv.ID),
		slog.String("finish_reason", string(resp.Candidates[0].FinishReason)))
	return resp.Text(), nil
}

func (p *Provider) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, insights.ErrNotConfigured
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[apiKey]; ok {
		return c, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.opts.HTTPClient,
	}
	if p.opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: p.opts.BaseURL}
	}
	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	p.clients[apiKey] = c
	p.log.Info("gemini client initialized")
	return c, nil
}
