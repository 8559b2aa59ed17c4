package model

import (
	"context"

	"github.com/harunnryd/chatlab/internal/model/contract"
)

// Invoker is the single point of contact with the remote chat completion
// call. Implementations must not mutate req.Messages.
type Invoker interface {
	Chat(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error)
	Stream(ctx context.Context, req contract.CompletionRequest, onText func(delta string) error) (*contract.CompletionResponse, error)
}

type Provider interface {
	Generate(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error)
	Stream(ctx context.Context, req contract.CompletionRequest, onText func(delta string) error) (*contract.CompletionResponse, error)
	Name() string
}
