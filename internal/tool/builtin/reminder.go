package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	"github.com/harunnryd/chatlab/internal/reminder"
	toolcore "github.com/harunnryd/chatlab/internal/tool"
)

func init() {
	toolcore.RegisterBuiltin("set_reminder", func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		scheduler := options.Reminders
		if scheduler == nil {
			scheduler = reminder.NewStore("", 0)
		}
		return &SetReminderTool{reminders: scheduler, now: options.Clock}, nil
	})
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"20060102T150405",
	"20060102",
	"2006-01",
	"2006",
}

// Unix seconds below this (2001-09-09) are rejected; short digit strings are
// far more likely to be a malformed date than an epoch value.
const minUnixSeconds = 1e9

type setReminderInput struct {
	Content    string `json:"content" jsonschema:"description=The message text that will be displayed in the reminder notification. For example 'Take medication' or 'Pay utility bills'."`
	Timestamp  string `json:"timestamp" jsonschema:"description=When the reminder should trigger as an ISO 8601 timestamp (YYYY-MM-DDTHH:MM:SS) or a Unix timestamp in seconds."`
	Recurrence string `json:"recurrence,omitempty" jsonschema:"description=Optional cron expression (minute hour day month weekday) or descriptor such as @daily for repeating reminders."`
}

type SetReminderTool struct {
	reminders toolcore.ReminderScheduler
	now       func() time.Time
}

func (t *SetReminderTool) Name() string {
	return "set_reminder"
}

func (t *SetReminderTool) Description() string {
	return "Creates a timed reminder that will notify the user at the specified time with the provided content. " +
		"Use it when a user wants to be reminded about something specific at a future point in time, " +
		"such as meetings, tasks, medication schedules, or any other time-bound activity. " +
		"Timestamps without a zone are interpreted in the user's local time zone."
}

func (t *SetReminderTool) ToolMetadata() toolcore.ToolMetadata {
	return toolcore.ToolMetadata{
		Source:       "builtin",
		Capabilities: []string{"reminder.create"},
		Risk:         toolcore.RiskLow,
		Effect:       toolcore.EffectWrites,
	}
}

func (t *SetReminderTool) Parameters() map[string]interface{} {
	return toolcore.ReflectSchema[setReminderInput]()
}

func (t *SetReminderTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var args setReminderInput
	if err := decodeInput(input, &args); err != nil {
		return nil, err
	}

	loc := time.Local
	if t.now != nil {
		loc = t.now().Location()
	}

	at, err := ParseTimestamp(args.Timestamp, loc)
	if err != nil {
		return nil, err
	}

	r, err := t.reminders.Schedule(ctx, args.Content, at, args.Recurrence)
	if err != nil {
		return nil, err
	}

	out := map[string]interface{}{
		"status":    "scheduled",
		"id":        r.ID,
		"content":   r.Content,
		"timestamp": r.Timestamp.Format(time.RFC3339),
	}
	if r.Recurrence != "" {
		out["recurrence"] = r.Recurrence
	}
	if r.NextRun != nil {
		out["next_run"] = r.NextRun.Format(time.RFC3339)
	}
	return json.Marshal(out)
}

// ParseTimestamp accepts ISO 8601 / RFC 3339 forms or Unix seconds. Values
// without an offset are read in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, chatErrors.InvalidFormat("timestamp must be provided")
	}
	if loc == nil {
		loc = time.Local
	}

	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, loc); err == nil {
			return ts, nil
		}
	}

	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs < minUnixSeconds || secs > math.MaxInt64/1e9 {
			return time.Time{}, chatErrors.InvalidFormat(fmt.Sprintf("timestamp %q is not a plausible Unix time in seconds", value))
		}
		whole := int64(secs)
		return time.Unix(whole, int64((secs-float64(whole))*1e9)).In(loc), nil
	}

	return time.Time{}, chatErrors.InvalidFormat(fmt.Sprintf("timestamp %q is neither ISO 8601 nor Unix seconds", value))
}
