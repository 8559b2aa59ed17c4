package chat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/harunnryd/chatlab/internal/config"
	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	"github.com/harunnryd/chatlab/internal/model"
	"github.com/harunnryd/chatlab/internal/model/contract"
)

// Session keeps a running history over an Invoker. A failed call leaves the
// history as it was before the call.
type Session struct {
	invoker model.Invoker

	Model         string
	System        string
	Temperature   *float64
	StopSequences []string
	MaxTokens     int

	mu      sync.Mutex
	history []contract.Message
	prefill string
}

type Option func(*Session)

func WithModel(name string) Option {
	return func(s *Session) { s.Model = name }
}

func WithSystem(prompt string) Option {
	return func(s *Session) { s.System = prompt }
}

func WithTemperature(t float64) Option {
	return func(s *Session) { s.Temperature = contract.Float(t) }
}

func WithStopSequences(seqs ...string) Option {
	return func(s *Session) { s.StopSequences = seqs }
}

func WithMaxTokens(n int) Option {
	return func(s *Session) { s.MaxTokens = n }
}

// FromConfig applies the chat section of the config.
func FromConfig(cfg config.ChatConfig) Option {
	return func(s *Session) {
		s.System = cfg.System
		s.Temperature = contract.Float(cfg.Temperature)
		if cfg.MaxTokens > 0 {
			s.MaxTokens = cfg.MaxTokens
		}
	}
}

func NewSession(invoker model.Invoker, opts ...Option) *Session {
	s := &Session{invoker: invoker}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prefill seeds the next assistant turn. The model continues from text and
// the stored assistant turn holds text plus the continuation.
func (s *Session) Prefill(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefill = text
}

func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.prefill = ""
}

func (s *Session) History() []contract.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return contract.CloneMessages(s.history)
}

// Send issues one chat call with text as the next user turn.
func (s *Session) Send(ctx context.Context, text string) (*contract.CompletionResponse, error) {
	return s.send(ctx, text, nil)
}

// SendStream is Send with text deltas written to w as they arrive.
func (s *Session) SendStream(ctx context.Context, text string, w io.Writer) (*contract.CompletionResponse, error) {
	if w == nil {
		return nil, chatErrors.InvalidInput("stream writer is nil")
	}
	return s.send(ctx, text, func(delta string) error {
		_, err := io.WriteString(w, delta)
		return err
	})
}

func (s *Session) send(ctx context.Context, text string, onText func(string) error) (*contract.CompletionResponse, error) {
	if text == "" {
		return nil, chatErrors.InvalidInput("message text is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefill := s.prefill
	messages := append(contract.CloneMessages(s.history), contract.UserText(text))
	if prefill != "" {
		messages = append(messages, contract.AssistantText(prefill))
	}

	req := contract.CompletionRequest{
		Model:         s.Model,
		Messages:      messages,
		System:        s.System,
		Temperature:   s.Temperature,
		MaxTokens:     s.MaxTokens,
		StopSequences: s.StopSequences,
	}

	var (
		resp *contract.CompletionResponse
		err  error
	)
	if onText != nil {
		resp, err = s.invoker.Stream(ctx, req, onText)
	} else {
		resp, err = s.invoker.Chat(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("chat send: %w", err)
	}

	s.history = append(s.history, contract.UserText(text))
	if reply, ok := replyTurn(resp, prefill); ok {
		s.history = append(s.history, reply)
	}
	s.prefill = ""

	slog.Debug("Chat turn completed", "stop_reason", resp.StopReason, "history", len(s.history))
	return resp, nil
}

// replyTurn builds the assistant turn to keep in history. Providers reject
// assistant turns without visible text, so a reply cut off by a stop
// sequence before any output is kept as the stop sequence itself, and an
// otherwise empty reply is not kept at all.
func replyTurn(resp *contract.CompletionResponse, prefill string) (contract.Message, bool) {
	if prefill != "" {
		return contract.AssistantText(prefill + resp.Text()), true
	}
	if strings.TrimSpace(resp.Text()) != "" || len(resp.Message().ToolUses()) > 0 {
		return resp.Message(), true
	}
	if resp.StopSequence != "" {
		return contract.AssistantText(resp.StopSequence), true
	}
	return contract.Message{}, false
}
