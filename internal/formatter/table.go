package formatter

import (
	"fmt"
	"strings"

	"github.com/harunnryd/chatlab/internal/eval"
	"github.com/harunnryd/chatlab/internal/reminder"
	"github.com/harunnryd/chatlab/internal/tool"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

type TableFormatter struct {
	headerStyle  lipgloss.Style
	oddRowStyle  lipgloss.Style
	evenRowStyle lipgloss.Style
	borderStyle  lipgloss.Style
	footerStyle  lipgloss.Style
}

func NewTableFormatter() *TableFormatter {
	purple := lipgloss.Color("99")
	gray := lipgloss.Color("245")
	lightGray := lipgloss.Color("241")

	return &TableFormatter{
		headerStyle: lipgloss.NewStyle().
			Foreground(purple).
			Bold(true).
			Align(lipgloss.Center).
			Padding(0, 1),
		oddRowStyle: lipgloss.NewStyle().
			Foreground(gray).
			Padding(0, 1),
		evenRowStyle: lipgloss.NewStyle().
			Foreground(lightGray).
			Padding(0, 1),
		borderStyle: lipgloss.NewStyle().
			Foreground(purple),
		footerStyle: lipgloss.NewStyle().
			Bold(true),
	}
}

func (f *TableFormatter) newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return f.headerStyle
			case row%2 == 0:
				return f.evenRowStyle
			default:
				return f.oddRowStyle
			}
		}).
		Headers(headers...)
}

func (f *TableFormatter) FormatReport(report *eval.Report) (string, error) {
	if report == nil || len(report.Results) == 0 {
		return "No results found", nil
	}

	t := f.newTable("#", "Task", "Format", "Syntax", "Model", "Score", "Reasoning")
	for i, r := range report.Results {
		t.Row(
			fmt.Sprintf("%d", i+1),
			truncateString(r.TestCase.Task, 40),
			string(r.TestCase.Format),
			formatScore(r.SyntaxScore),
			formatScore(r.ModelScore),
			formatScore(r.Score),
			truncateString(r.Reasoning, 40),
		)
	}

	footer := fmt.Sprintf("Average score: %s", formatScore(report.Average))
	if report.RunID != "" {
		footer = fmt.Sprintf("Run %s  %s", report.RunID, footer)
	}
	return t.String() + "\n" + f.footerStyle.Render(footer), nil
}

func (f *TableFormatter) FormatReminders(reminders []reminder.Reminder) (string, error) {
	if len(reminders) == 0 {
		return "No reminders found", nil
	}

	t := f.newTable("ID", "Timestamp", "Content", "Recurrence", "Next Run")
	for _, v := range reminderViews(reminders) {
		t.Row(v.ID, v.Timestamp, truncateString(v.Content, 40), v.Recurrence, v.NextRun)
	}
	return t.String(), nil
}

func (f *TableFormatter) FormatTools(descriptors []tool.ToolDescriptor) (string, error) {
	if len(descriptors) == 0 {
		return "No tools found", nil
	}

	t := f.newTable("Name", "Required", "Effect", "Risk", "Description")
	writers := 0
	for i, v := range toolViews(descriptors) {
		t.Row(v.Name, strings.Join(v.Required, ", "), effectLabel(v.Effect), string(v.Risk), truncateString(v.Description, 60))
		if descriptors[i].Metadata.HasSideEffects() {
			writers++
		}
	}

	out := t.String()
	if writers > 0 {
		out += fmt.Sprintf("\n%d of %d tools have side effects", writers, len(descriptors))
	}
	return out, nil
}

func effectLabel(e tool.Effect) string {
	if e == "" {
		return string(tool.EffectNone)
	}
	return string(e)
}

func formatScore(v float64) string {
	return strings.TrimSuffix(fmt.Sprintf("%.2f", v), ".00")
}

func truncateString(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}
