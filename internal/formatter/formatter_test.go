package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/harunnryd/chatlab/internal/eval"
	"github.com/harunnryd/chatlab/internal/model/contract"
	"github.com/harunnryd/chatlab/internal/reminder"
	"github.com/harunnryd/chatlab/internal/tool"
)

func TestFormatterFactory_Create(t *testing.T) {
	factory := NewFormatterFactory()

	tests := []struct {
		name    string
		format  OutputFormat
		wantErr bool
	}{
		{name: "table format", format: OutputFormatTable},
		{name: "json format", format: OutputFormatJSON},
		{name: "yaml format", format: OutputFormatYAML},
		{name: "invalid format", format: OutputFormat("invalid"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter, err := factory.Create(tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("Create() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && formatter == nil {
				t.Error("Create() returned nil formatter for valid format")
			}
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{input: "TABLE", want: OutputFormatTable},
		{input: "json", want: OutputFormatJSON},
		{input: "Yaml", want: OutputFormatYAML},
		{input: "csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseOutputFormat() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func sampleReport() *eval.Report {
	return &eval.Report{
		RunID: "01JTESTRUN",
		Results: []eval.EvalResult{
			{
				Output:      `{"Version": "2012-10-17"}`,
				Score:       9,
				TestCase:    eval.TestCase{Task: "IAM policy for S3 read", Format: eval.FormatJSON},
				Reasoning:   "valid policy",
				SyntaxScore: 10,
				ModelScore:  8,
			},
			{
				Output:      "^i-[0-9a-f",
				Score:       1,
				TestCase:    eval.TestCase{Task: "EC2 instance id regex", Format: eval.FormatRegex},
				Reasoning:   "unbalanced bracket",
				SyntaxScore: 0,
				ModelScore:  2,
			},
		},
		Average: 5,
	}
}

func TestTableFormatter_FormatReport(t *testing.T) {
	output, err := NewTableFormatter().FormatReport(sampleReport())
	if err != nil {
		t.Fatalf("FormatReport() error = %v", err)
	}

	for _, want := range []string{"IAM policy for S3 read", "EC2 instance id regex", "Average score: 5", "01JTESTRUN"} {
		if !strings.Contains(output, want) {
			t.Errorf("FormatReport() output missing %q", want)
		}
	}
}

func TestTableFormatter_Empty(t *testing.T) {
	f := NewTableFormatter()

	if out, _ := f.FormatReport(&eval.Report{}); out != "No results found" {
		t.Errorf("FormatReport() = %v, want 'No results found'", out)
	}
	if out, _ := f.FormatReminders(nil); out != "No reminders found" {
		t.Errorf("FormatReminders() = %v, want 'No reminders found'", out)
	}
	if out, _ := f.FormatTools(nil); out != "No tools found" {
		t.Errorf("FormatTools() = %v, want 'No tools found'", out)
	}
}

func TestFormatters_Reminders(t *testing.T) {
	next := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	reminders := []reminder.Reminder{{
		ID:         "01JREMINDER",
		Content:    "renew certificate",
		Timestamp:  time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC),
		Recurrence: "0 0 * * *",
		NextRun:    &next,
	}}

	for _, format := range []OutputFormat{OutputFormatTable, OutputFormatJSON, OutputFormatYAML} {
		f, _ := NewFormatterFactory().Create(format)
		out, err := f.FormatReminders(reminders)
		if err != nil {
			t.Fatalf("%s FormatReminders() error = %v", format, err)
		}
		if !strings.Contains(out, "01JREMINDER") || !strings.Contains(out, "2025-03-04T00:00:00Z") {
			t.Errorf("%s FormatReminders() output = %v", format, out)
		}
	}
}

func TestFormatters_Tools(t *testing.T) {
	descriptors := []tool.ToolDescriptor{{
		Definition: contract.ToolSchema{
			Name:        "set_reminder",
			Description: "Creates a timed reminder",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"content": map[string]interface{}{"type": "string"}},
				"required":   []string{"content", "timestamp"},
			},
		},
		Metadata: tool.ToolMetadata{Source: "builtin", Risk: tool.RiskMedium, Effect: tool.EffectWrites},
	}, {
		Definition: contract.ToolSchema{
			Name:        "get_current_datetime",
			Description: "Returns the current time",
			InputSchema: map[string]interface{}{"type": "object"},
		},
		Metadata: tool.ToolMetadata{Source: "builtin", Risk: tool.RiskLow, Effect: tool.EffectNone},
	}}

	table, err := NewTableFormatter().FormatTools(descriptors)
	if err != nil {
		t.Fatalf("FormatTools() error = %v", err)
	}
	if !strings.Contains(table, "set_reminder") || !strings.Contains(table, "content, timestamp") {
		t.Errorf("FormatTools() table = %v", table)
	}
	if !strings.Contains(table, "writes") || !strings.Contains(table, "1 of 2 tools have side effects") {
		t.Errorf("FormatTools() table missing effect summary: %v", table)
	}

	js, err := NewJSONFormatter().FormatTools(descriptors)
	if err != nil {
		t.Fatalf("FormatTools() error = %v", err)
	}
	if !strings.Contains(js, `"input_schema"`) {
		t.Errorf("FormatTools() json missing input_schema: %v", js)
	}
	if !strings.Contains(js, `"effect": "writes"`) {
		t.Errorf("FormatTools() json missing effect: %v", js)
	}
}

func TestJSONFormatter_FormatReport(t *testing.T) {
	out, err := NewJSONFormatter().FormatReport(sampleReport())
	if err != nil {
		t.Fatalf("FormatReport() error = %v", err)
	}
	if !strings.Contains(out, `"test_case"`) || !strings.Contains(out, `"average": 5`) {
		t.Errorf("FormatReport() = %v", out)
	}

	if out, _ := NewJSONFormatter().FormatReport(nil); out != "null" {
		t.Errorf("FormatReport(nil) = %v, want 'null'", out)
	}
}

func TestYAMLFormatter_FormatReport(t *testing.T) {
	out, err := NewYAMLFormatter().FormatReport(sampleReport())
	if err != nil {
		t.Fatalf("FormatReport() error = %v", err)
	}
	if !strings.Contains(out, "run_id: 01JTESTRUN") {
		t.Errorf("FormatReport() = %v", out)
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{name: "short string", input: "hello", maxLen: 20, expected: "hello"},
		{name: "exact length", input: "hello world", maxLen: 11, expected: "hello world"},
		{name: "too long", input: "hello world test", maxLen: 10, expected: "hello w..."},
		{name: "newlines collapse", input: "a\n  b", maxLen: 10, expected: "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateString(tt.input, tt.maxLen); got != tt.expected {
				t.Errorf("truncateString() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestFormatScore(t *testing.T) {
	if got := formatScore(5); got != "5" {
		t.Errorf("formatScore(5) = %v", got)
	}
	if got := formatScore(6.5); got != "6.50" {
		t.Errorf("formatScore(6.5) = %v", got)
	}
}
