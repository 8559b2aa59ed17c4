package formatter

import (
	"encoding/json"

	"github.com/harunnryd/chatlab/internal/eval"
	"github.com/harunnryd/chatlab/internal/reminder"
	"github.com/harunnryd/chatlab/internal/tool"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) FormatReport(report *eval.Report) (string, error) {
	if report == nil {
		return "null", nil
	}
	return marshalJSON(report)
}

func (f *JSONFormatter) FormatReminders(reminders []reminder.Reminder) (string, error) {
	return marshalJSON(reminderViews(reminders))
}

func (f *JSONFormatter) FormatTools(descriptors []tool.ToolDescriptor) (string, error) {
	return marshalJSON(toolViews(descriptors))
}

func marshalJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
