package conversation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harunnryd/chatlab/internal/config"
	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	"github.com/harunnryd/chatlab/internal/logger"
	"github.com/harunnryd/chatlab/internal/model"
	"github.com/harunnryd/chatlab/internal/model/contract"
)

type State string

const (
	StateAwaitingModel  State = "awaiting_model"
	StateExecutingTools State = "executing_tools"
	StateDone           State = "done"
)

// ToolRunner answers the tool_use blocks of one assistant turn with exactly
// one tool_result each, in order.
type ToolRunner interface {
	Run(ctx context.Context, blocks []contract.ContentBlock) []contract.ContentBlock
}

// Observer sees every message appended to the history, with the state the
// driver moves into afterwards.
type Observer func(next State, msg contract.Message)

type Options struct {
	Model         string
	System        string
	Temperature   *float64
	MaxTokens     int
	StopSequences []string
	Tools         []contract.ToolSchema
	// ToolChoice applies to the first round only; later rounds use auto so
	// a forced tool cannot loop forever.
	ToolChoice *contract.ToolChoice
	MaxRounds  int
}

type Option func(*Options)

func WithModel(name string) Option         { return func(o *Options) { o.Model = name } }
func WithSystem(prompt string) Option      { return func(o *Options) { o.System = prompt } }
func WithMaxTokens(n int) Option           { return func(o *Options) { o.MaxTokens = n } }
func WithStopSequences(s ...string) Option { return func(o *Options) { o.StopSequences = s } }
func WithTools(t ...contract.ToolSchema) Option {
	return func(o *Options) { o.Tools = t }
}
func WithToolChoice(choice *contract.ToolChoice) Option {
	return func(o *Options) { o.ToolChoice = choice }
}
func WithTemperature(t float64) Option {
	return func(o *Options) { o.Temperature = contract.Float(t) }
}
func WithMaxRounds(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxRounds = n
		}
	}
}

// FromConfig maps the conversation section of the config onto options.
func FromConfig(cfg config.ConversationConfig) Option {
	return func(o *Options) {
		if cfg.MaxRounds > 0 {
			o.MaxRounds = cfg.MaxRounds
		}
		if cfg.MaxTokens > 0 {
			o.MaxTokens = cfg.MaxTokens
		}
		if cfg.System != "" {
			o.System = cfg.System
		}
		o.Temperature = contract.Float(cfg.Temperature)
	}
}

type Result struct {
	Messages   []contract.Message
	Rounds     int
	StopReason string
	Text       string
	Usage      contract.Usage
}

// Driver runs chat/tool rounds until the model stops asking for tools.
type Driver struct {
	invoker  model.Invoker
	tools    ToolRunner
	opts     Options
	observer Observer
}

func NewDriver(invoker model.Invoker, tools ToolRunner, opts ...Option) *Driver {
	o := Options{MaxRounds: config.DefaultConversationMaxRounds}
	for _, opt := range opts {
		opt(&o)
	}
	if o.MaxRounds <= 0 {
		o.MaxRounds = config.DefaultConversationMaxRounds
	}

	return &Driver{invoker: invoker, tools: tools, opts: o}
}

func (d *Driver) SetObserver(o Observer) {
	d.observer = o
}

func (d *Driver) Options() Options {
	return d.opts
}

// Run drives the conversation from seed. The returned Result always carries
// the history so far, including when an error is returned: ErrMaxRounds when
// the model still wants tools after MaxRounds calls, or the invoker's error.
func (d *Driver) Run(ctx context.Context, seed []contract.Message) (*Result, error) {
	result := &Result{Messages: contract.CloneMessages(seed)}
	state := StateAwaitingModel
	traceID := logger.GetTraceID(ctx)

	for state != StateDone {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		switch state {
		case StateAwaitingModel:
			if result.Rounds >= d.opts.MaxRounds {
				slog.Warn("Conversation exceeded round budget", "max_rounds", d.opts.MaxRounds, "trace_id", traceID)
				return result, fmt.Errorf("%w: %d rounds", chatErrors.ErrMaxRounds, d.opts.MaxRounds)
			}

			resp, err := d.invoker.Chat(ctx, d.request(result.Messages, result.Rounds))
			if err != nil {
				return result, err
			}
			result.Rounds++
			result.Usage.InputTokens += resp.Usage.InputTokens
			result.Usage.OutputTokens += resp.Usage.OutputTokens
			result.StopReason = resp.StopReason

			next := StateDone
			if resp.StopReason == contract.StopToolUse && len(contract.ToolUses(resp.Content)) > 0 {
				next = StateExecutingTools
			}

			d.appendTurn(result, resp.Message(), next)
			slog.Debug("Conversation round", "round", result.Rounds, "stop_reason", resp.StopReason, "next", next, "trace_id", traceID)
			state = next

		case StateExecutingTools:
			last := result.Messages[len(result.Messages)-1]
			results := d.tools.Run(ctx, last.Content)
			d.appendTurn(result, contract.Message{Role: contract.RoleUser, Content: results}, StateAwaitingModel)
			state = StateAwaitingModel
		}
	}

	result.Text = result.Messages[len(result.Messages)-1].Text()
	return result, nil
}

func (d *Driver) request(history []contract.Message, round int) contract.CompletionRequest {
	req := contract.CompletionRequest{
		Model:         d.opts.Model,
		Messages:      history,
		System:        d.opts.System,
		Temperature:   d.opts.Temperature,
		MaxTokens:     d.opts.MaxTokens,
		StopSequences: d.opts.StopSequences,
		Tools:         d.opts.Tools,
	}
	if round == 0 {
		req.ToolChoice = d.opts.ToolChoice
	}
	return req
}

func (d *Driver) appendTurn(result *Result, msg contract.Message, next State) {
	result.Messages = append(result.Messages, msg)
	if d.observer != nil {
		d.observer(next, msg)
	}
}
