package model

import (
	"context"
	"time"

	"github.com/harunnryd/chatlab/internal/model/contract"
)

// ProviderAdapter binds a provider client to one registry entry and applies
// the entry's request timeout.
type ProviderAdapter struct {
	provider     Provider
	name         string
	providerType string
	timeout      time.Duration
}

func NewProviderAdapter(provider Provider, name, providerType string, timeout time.Duration) *ProviderAdapter {
	return &ProviderAdapter{provider: provider, name: name, providerType: providerType, timeout: timeout}
}

func (a *ProviderAdapter) Generate(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return a.provider.Generate(ctx, req)
}

func (a *ProviderAdapter) Stream(ctx context.Context, req contract.CompletionRequest, onText func(string) error) (*contract.CompletionResponse, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return a.provider.Stream(ctx, req, onText)
}

func (a *ProviderAdapter) Name() string {
	return a.name
}

func (a *ProviderAdapter) Type() string {
	return a.providerType
}

func (a *ProviderAdapter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}
