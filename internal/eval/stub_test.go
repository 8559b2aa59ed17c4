package eval

import (
	"context"
	"strings"
	"sync"

	"github.com/harunnryd/chatlab/internal/model/contract"
)

// routedInvoker answers by matching a substring of the first user turn.
// Each route holds a queue of replies; the last reply repeats.
type routedInvoker struct {
	mu       sync.Mutex
	routes   map[string][]string
	err      error
	requests []contract.CompletionRequest
}

func newRoutedInvoker(routes map[string][]string) *routedInvoker {
	return &routedInvoker{routes: routes}
}

func (r *routedInvoker) Chat(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req.Messages = contract.CloneMessages(req.Messages)
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}

	prompt := req.Messages[0].Text()
	for key, replies := range r.routes {
		if !strings.Contains(prompt, key) {
			continue
		}
		reply := replies[0]
		if len(replies) > 1 {
			r.routes[key] = replies[1:]
		}
		return &contract.CompletionResponse{
			Content:      []contract.ContentBlock{contract.TextBlock(reply)},
			StopReason:   contract.StopSequence,
			StopSequence: "```",
		}, nil
	}
	return &contract.CompletionResponse{StopReason: contract.StopEndTurn}, nil
}

func (r *routedInvoker) Stream(ctx context.Context, req contract.CompletionRequest, onText func(string) error) (*contract.CompletionResponse, error) {
	return r.Chat(ctx, req)
}

func (r *routedInvoker) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}
