package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harunnryd/chatlab/internal/config"
	"github.com/harunnryd/chatlab/internal/model"
	"github.com/harunnryd/chatlab/internal/reminder"
	"github.com/harunnryd/chatlab/internal/tool"

	// registers the built-in tools
	_ "github.com/harunnryd/chatlab/internal/tool/builtin"
)

type RuntimeComponents struct {
	Ctx    context.Context
	Cancel context.CancelFunc

	Config *config.Config

	// Invoker is nil unless models were requested or supplied.
	Invoker model.Invoker
	Router  *model.Router

	Reminders    *reminder.Store
	ToolRegistry *tool.Registry
	Dispatcher   *tool.Dispatcher
}

func NewRuntimeComponents(ctx context.Context, cfg *config.Config, invoker model.Invoker, withModels bool) (*RuntimeComponents, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	components := &RuntimeComponents{
		Ctx:     ctx,
		Cancel:  cancel,
		Config:  cfg,
		Invoker: invoker,
	}

	lockTimeout, err := config.DurationOrDefault(cfg.Reminders.LockTimeout, config.DefaultRemindersLockTimeout)
	if err != nil {
		components.Stop()
		return nil, fmt.Errorf("reminders.lock_timeout: %w", err)
	}
	components.Reminders = reminder.NewStore(cfg.Reminders.StorePath, lockTimeout)

	registry, dispatcher, err := tool.NewDefault(tool.BuiltinOptions{Reminders: components.Reminders})
	if err != nil {
		components.Stop()
		return nil, fmt.Errorf("init tools: %w", err)
	}
	components.ToolRegistry = registry
	components.Dispatcher = dispatcher

	if components.Invoker == nil && withModels {
		router, err := model.NewModelRouter(ctx, cfg.Models)
		if err != nil {
			components.Stop()
			return nil, fmt.Errorf("init models: %w", err)
		}
		components.Router = router
		components.Invoker = router
		slog.Debug("Models initialized", "models", router.ListModels())
	}

	slog.Debug("Runtime ready", "tools", registry.Names(), "reminders", components.Reminders.Path())
	return components, nil
}

func (c *RuntimeComponents) Stop() {
	if c.Cancel != nil {
		c.Cancel()
	}
}
