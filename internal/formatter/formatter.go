package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/harunnryd/chatlab/internal/eval"
	"github.com/harunnryd/chatlab/internal/reminder"
	"github.com/harunnryd/chatlab/internal/tool"
)

type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

type Formatter interface {
	FormatReport(*eval.Report) (string, error)
	FormatReminders([]reminder.Reminder) (string, error)
	FormatTools([]tool.ToolDescriptor) (string, error)
}

type FormatterFactory struct{}

func NewFormatterFactory() *FormatterFactory {
	return &FormatterFactory{}
}

func (f *FormatterFactory) Create(format OutputFormat) (Formatter, error) {
	switch format {
	case OutputFormatTable:
		return NewTableFormatter(), nil
	case OutputFormatJSON:
		return NewJSONFormatter(), nil
	case OutputFormatYAML:
		return NewYAMLFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, json, yaml)", format)
	}
}

func ParseOutputFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(s))
	switch format {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("invalid output format: %s (supported: table, json, yaml)", s)
	}
}

// toolView is the serialized shape of a tool listing entry.
type toolView struct {
	Name         string         `json:"name" yaml:"name"`
	Description  string         `json:"description" yaml:"description"`
	Required     []string       `json:"required" yaml:"required"`
	Source       string         `json:"source" yaml:"source"`
	Risk         tool.RiskLevel `json:"risk" yaml:"risk"`
	Effect       tool.Effect    `json:"effect" yaml:"effect"`
	Capabilities []string       `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	InputSchema  map[string]any `json:"input_schema" yaml:"input_schema"`
}

func toolViews(descriptors []tool.ToolDescriptor) []toolView {
	views := make([]toolView, 0, len(descriptors))
	for _, d := range descriptors {
		views = append(views, toolView{
			Name:         d.Definition.Name,
			Description:  d.Definition.Description,
			Required:     d.Definition.Required(),
			Source:       d.Metadata.Source,
			Risk:         d.Metadata.Risk,
			Effect:       d.Metadata.Effect,
			Capabilities: d.Metadata.Capabilities,
			InputSchema:  d.Definition.InputSchema,
		})
	}
	return views
}

type reminderView struct {
	ID         string `json:"id" yaml:"id"`
	Content    string `json:"content" yaml:"content"`
	Timestamp  string `json:"timestamp" yaml:"timestamp"`
	Recurrence string `json:"recurrence,omitempty" yaml:"recurrence,omitempty"`
	NextRun    string `json:"next_run,omitempty" yaml:"next_run,omitempty"`
}

func reminderViews(reminders []reminder.Reminder) []reminderView {
	views := make([]reminderView, 0, len(reminders))
	for _, r := range reminders {
		view := reminderView{
			ID:         r.ID,
			Content:    r.Content,
			Timestamp:  r.Timestamp.Format(time.RFC3339),
			Recurrence: r.Recurrence,
		}
		if r.NextRun != nil {
			view.NextRun = r.NextRun.Format(time.RFC3339)
		}
		views = append(views, view)
	}
	return views
}
