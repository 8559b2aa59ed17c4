package runtime

import (
	"context"
	"fmt"

	"github.com/harunnryd/chatlab/internal/config"
	"github.com/harunnryd/chatlab/internal/model"
)

type RuntimeBuilder interface {
	WithContext(ctx context.Context) RuntimeBuilder
	WithConfig(cfg *config.Config) RuntimeBuilder
	WithInvoker(invoker model.Invoker) RuntimeBuilder
	WithModels(enabled bool) RuntimeBuilder
	Build() (*RuntimeComponents, error)
}

type DefaultRuntimeBuilder struct {
	ctx     context.Context
	cfg     *config.Config
	invoker model.Invoker
	models  bool
}

func NewRuntimeBuilder() RuntimeBuilder {
	return &DefaultRuntimeBuilder{}
}

func (b *DefaultRuntimeBuilder) WithContext(ctx context.Context) RuntimeBuilder {
	b.ctx = ctx
	return b
}

func (b *DefaultRuntimeBuilder) WithConfig(cfg *config.Config) RuntimeBuilder {
	b.cfg = cfg
	return b
}

// WithInvoker supplies the chat invoker instead of building a model router.
func (b *DefaultRuntimeBuilder) WithInvoker(invoker model.Invoker) RuntimeBuilder {
	b.invoker = invoker
	return b
}

// WithModels controls whether Build initializes the model router. Commands
// that never call a model leave it off so they run without credentials.
func (b *DefaultRuntimeBuilder) WithModels(enabled bool) RuntimeBuilder {
	b.models = enabled
	return b
}

func (b *DefaultRuntimeBuilder) Build() (*RuntimeComponents, error) {
	if b.ctx == nil {
		b.ctx = context.Background()
	}

	if b.cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	return NewRuntimeComponents(b.ctx, b.cfg, b.invoker, b.models)
}
