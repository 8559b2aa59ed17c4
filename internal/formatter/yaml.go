package formatter

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harunnryd/chatlab/internal/eval"
	"github.com/harunnryd/chatlab/internal/reminder"
	"github.com/harunnryd/chatlab/internal/tool"
)

type YAMLFormatter struct{}

func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

func (f *YAMLFormatter) FormatReport(report *eval.Report) (string, error) {
	if report == nil {
		return "null", nil
	}
	return marshalYAML(report)
}

func (f *YAMLFormatter) FormatReminders(reminders []reminder.Reminder) (string, error) {
	return marshalYAML(reminderViews(reminders))
}

func (f *YAMLFormatter) FormatTools(descriptors []tool.ToolDescriptor) (string, error) {
	return marshalYAML(toolViews(descriptors))
}

func marshalYAML(v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
