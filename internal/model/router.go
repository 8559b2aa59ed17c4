package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/harunnryd/chatlab/internal/config"
	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	"github.com/harunnryd/chatlab/internal/logger"
	"github.com/harunnryd/chatlab/internal/model/contract"
	anthropicProvider "github.com/harunnryd/chatlab/internal/model/providers/anthropic"
	geminiProvider "github.com/harunnryd/chatlab/internal/model/providers/gemini"
	openaiProvider "github.com/harunnryd/chatlab/internal/model/providers/openai"
)

const DefaultMaxTokens = 1024

// Router implements Invoker by resolving a provider from the model registry.
type Router struct {
	cfg       config.ModelsConfig
	providers map[string]Provider
	mapper    chatErrors.ErrorMapper
	mu        sync.RWMutex
}

// NewModelRouter creates a router with one provider per registry entry.
// Entries that cannot be built (missing credentials) are skipped with a warning.
func NewModelRouter(ctx context.Context, cfg config.ModelsConfig) (*Router, error) {
	router := newRouter(cfg)

	if err := router.initProviders(ctx); err != nil {
		return nil, err
	}

	return router, nil
}

// NewRouterWithProviders wires pre-built providers keyed by model name.
func NewRouterWithProviders(cfg config.ModelsConfig, providers map[string]Provider) *Router {
	router := newRouter(cfg)
	for name, p := range providers {
		router.providers[name] = p
	}
	return router
}

func newRouter(cfg config.ModelsConfig) *Router {
	return &Router{
		cfg:       cfg,
		providers: make(map[string]Provider),
		mapper:    chatErrors.NewDefaultErrorMapper(),
	}
}

// Chat performs one completion call.
func (r *Router) Chat(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	return r.invoke(ctx, req, func(ctx context.Context, p Provider, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
		return p.Generate(ctx, req)
	}, nil)
}

// Stream performs one completion call, delivering text fragments to onText as
// they arrive. The fallback model is only tried when nothing was delivered yet.
func (r *Router) Stream(ctx context.Context, req contract.CompletionRequest, onText func(string) error) (*contract.CompletionResponse, error) {
	delivered := false
	forward := func(delta string) error {
		delivered = true
		if onText == nil {
			return nil
		}
		return onText(delta)
	}

	return r.invoke(ctx, req, func(ctx context.Context, p Provider, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
		return p.Stream(ctx, req, forward)
	}, func() bool { return !delivered })
}

type callFunc func(ctx context.Context, p Provider, req contract.CompletionRequest) (*contract.CompletionResponse, error)

func (r *Router) invoke(ctx context.Context, req contract.CompletionRequest, call callFunc, canFallback func() bool) (*contract.CompletionResponse, error) {
	req, err := r.prepare(req)
	if err != nil {
		return nil, err
	}

	traceID := logger.GetTraceID(ctx)
	slog.Debug("Routing completion request", "model", req.Model, "messages", len(req.Messages), "tools", len(req.Tools), "trace_id", traceID)

	model, provider, err := r.resolveProvider(ctx, req.Model)
	if err != nil {
		return nil, err
	}
	req.Model = model

	resp, err := call(ctx, provider, req)
	if err == nil {
		slog.Debug("Request completed", "model", model, "stop_reason", resp.StopReason, "trace_id", traceID)
		return resp, nil
	}

	if errors.Is(err, context.Canceled) {
		return nil, err
	}
	if chatErrors.IsCategory(err, chatErrors.ErrInvalidInput) && !isRemote(err) {
		return nil, err
	}

	slog.Error("Provider request failed", "model", model, "error", err, "trace_id", traceID)

	fallback := r.cfg.Fallback
	if fallback == "" || fallback == model || (canFallback != nil && !canFallback()) {
		return nil, r.mapper.MapError(err)
	}

	r.mu.RLock()
	fallbackProvider, exists := r.providers[fallback]
	r.mu.RUnlock()
	if !exists {
		return nil, r.mapper.MapError(err)
	}

	slog.Info("Attempting fallback", "from", model, "to", fallback)
	req.Model = fallback
	resp, err = call(ctx, fallbackProvider, req)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	return resp, nil
}

// prepare fills defaults and detaches the request from the caller's slices.
func (r *Router) prepare(req contract.CompletionRequest) (contract.CompletionRequest, error) {
	if strings.TrimSpace(req.Model) == "" {
		req.Model = r.cfg.Default
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}
	if t := req.Temperature; t != nil {
		if *t < 0 || *t > 1 {
			return req, chatErrors.InvalidInput(fmt.Sprintf("temperature %.2f outside [0,1]", *t))
		}
		req.Temperature = contract.Float(*t)
	}
	if len(req.Messages) == 0 {
		return req, chatErrors.InvalidInput("at least one message is required")
	}

	req.Messages = contract.CloneMessages(req.Messages)
	req.StopSequences = append([]string(nil), req.StopSequences...)
	req.Tools = append([]contract.ToolSchema(nil), req.Tools...)
	if req.ToolChoice != nil {
		choice := *req.ToolChoice
		req.ToolChoice = &choice
	}
	return req, nil
}

func isRemote(err error) bool {
	var sc chatErrors.StatusCoder
	return errors.As(err, &sc)
}

// ListModels returns all registered model names in sorted order.
func (r *Router) ListModels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]string, 0, len(r.providers))
	for name := range r.providers {
		models = append(models, name)
	}
	sort.Strings(models)

	return models
}

func (r *Router) initProviders(ctx context.Context) error {
	for _, entry := range r.cfg.Registry {
		provider, err := r.createProvider(ctx, entry)
		if err != nil {
			slog.Debug("Skipping model", "provider", entry.Provider, "model", entry.Name, "error", err)
			continue
		}

		r.providers[entry.Name] = provider
		slog.Debug("Provider initialized", "name", entry.Name, "type", entry.Provider)
	}

	if len(r.providers) == 0 && len(r.cfg.Registry) > 0 {
		return chatErrors.InvalidInput("no model provider could be initialized; set ANTHROPIC_API_KEY or configure models.registry")
	}

	return nil
}

// resolveProvider resolves a provider by model name with fallback
func (r *Router) resolveProvider(ctx context.Context, model string) (string, Provider, error) {
	select {
	case <-ctx.Done():
		return "", nil, chatErrors.Wrap(ctx.Err(), "provider resolution cancelled")
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if provider, exists := r.providers[model]; exists {
		return model, provider, nil
	}

	slog.Warn("Model not found", "model", model)
	if r.cfg.Fallback != "" && model != r.cfg.Fallback {
		if provider, exists := r.providers[r.cfg.Fallback]; exists {
			slog.Info("Using fallback model", "model", model, "fallback", r.cfg.Fallback)
			return r.cfg.Fallback, provider, nil
		}
	}

	return "", nil, chatErrors.NotFound(fmt.Sprintf("model %s not found", model))
}

// createProvider creates a provider instance based on registry entry
func (r *Router) createProvider(ctx context.Context, entry config.ModelRegistry) (Provider, error) {
	timeout, err := config.DurationOrDefault(entry.RequestTimeout, config.DefaultModelRequestTimeout)
	if err != nil {
		return nil, chatErrors.InvalidInput(fmt.Sprintf("invalid request_timeout for model %s: %v", entry.Name, err))
	}

	switch entry.Provider {
	case "anthropic":
		if entry.APIKey == "" {
			return nil, chatErrors.InvalidInput("API key required for Anthropic provider")
		}

		return NewProviderAdapter(anthropicProvider.New(entry.APIKey, entry.BaseURL, r.cfg.MaxRetries), entry.Name, "anthropic", timeout), nil

	case "openai":
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultOpenAIBaseURL
		}

		if entry.APIKey == "" {
			return nil, chatErrors.InvalidInput("API key required for OpenAI provider")
		}

		return NewProviderAdapter(openaiProvider.New(entry.APIKey, baseURL), entry.Name, "openai", timeout), nil

	case "ollama":
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultOllamaBaseURL
		}

		apiKey := entry.APIKey
		if apiKey == "" {
			apiKey = config.DefaultOllamaAPIKey
		}

		return NewProviderAdapter(openaiProvider.NewNamed("ollama", apiKey, baseURL), entry.Name, "ollama", timeout), nil

	case "gemini":
		if entry.APIKey == "" {
			return nil, chatErrors.InvalidInput("API key required for Gemini provider")
		}

		provider, err := geminiProvider.New(ctx, entry.APIKey, entry.BaseURL)
		if err != nil {
			return nil, chatErrors.WrapWithCategory(err, "failed to create Gemini provider", chatErrors.ErrInternal)
		}

		return NewProviderAdapter(provider, entry.Name, "gemini", timeout), nil

	default:
		return nil, chatErrors.InvalidInput(fmt.Sprintf("unknown provider type: %s", entry.Provider))
	}
}
