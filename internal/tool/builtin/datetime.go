package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	toolcore "github.com/harunnryd/chatlab/internal/tool"

	"github.com/itchyny/timefmt-go"
)

const (
	DefaultDateFormat  = "%Y-%m-%d %H:%M:%S"
	DefaultInputFormat = "%Y-%m-%d"
	DefaultUnit        = "days"

	// HumanFormat renders e.g. "Thursday, April 03, 2025 10:30:00 AM".
	HumanFormat = "%A, %B %d, %Y %I:%M:%S %p"
)

func init() {
	toolcore.RegisterBuiltin("get_current_datetime", func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		return &CurrentDatetimeTool{now: options.Clock}, nil
	})
	toolcore.RegisterBuiltin("add_duration_to_datetime", func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		return &AddDurationTool{now: options.Clock}, nil
	})
}

type currentDatetimeInput struct {
	DateFormat *string `json:"date_format,omitempty" jsonschema:"description=A string specifying the format of the returned datetime. Uses strftime format codes.,default=%Y-%m-%d %H:%M:%S"`
}

// CurrentDatetimeTool returns the wall clock formatted with strftime codes.
type CurrentDatetimeTool struct {
	now func() time.Time
}

func (t *CurrentDatetimeTool) Name() string {
	return "get_current_datetime"
}

func (t *CurrentDatetimeTool) Description() string {
	return "Returns the current date and time formatted according to the specified format"
}

func (t *CurrentDatetimeTool) ToolMetadata() toolcore.ToolMetadata {
	return toolcore.ToolMetadata{
		Source:       "builtin",
		Capabilities: []string{"time.query", "clock.now"},
		Risk:         toolcore.RiskLow,
	}
}

func (t *CurrentDatetimeTool) Parameters() map[string]interface{} {
	return toolcore.ReflectSchema[currentDatetimeInput]()
}

func (t *CurrentDatetimeTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	_ = ctx

	var args currentDatetimeInput
	if err := decodeInput(input, &args); err != nil {
		return nil, err
	}

	format := DefaultDateFormat
	if args.DateFormat != nil {
		format = *args.DateFormat
	}
	if strings.TrimSpace(format) == "" {
		return nil, chatErrors.InvalidFormat("date_format must be provided")
	}

	return json.Marshal(timefmt.Format(t.clock(), format))
}

func (t *CurrentDatetimeTool) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

type addDurationInput struct {
	DatetimeStr string  `json:"datetime_str" jsonschema:"description=The input datetime string to which the duration will be added. This should be formatted according to the input_format parameter."`
	Duration    float64 `json:"duration,omitempty" jsonschema:"description=The amount of time to add to the datetime. Can be positive (for future dates) or negative (for past dates). Defaults to 0."`
	Unit        string  `json:"unit,omitempty" jsonschema:"description=The unit of time for the duration. One of seconds or minutes or hours or days or weeks or months or years. Defaults to days.,default=days"`
	InputFormat string  `json:"input_format,omitempty" jsonschema:"description=The strptime format string for parsing datetime_str. For example %Y-%m-%d for dates like 2025-04-03.,default=%Y-%m-%d"`
}

// AddDurationTool shifts a parsed datetime. Month and year arithmetic clamps
// the day to the last valid day of the target month.
type AddDurationTool struct {
	now func() time.Time
}

func (t *AddDurationTool) Name() string {
	return "add_duration_to_datetime"
}

func (t *AddDurationTool) Description() string {
	return "Adds a specified duration to a datetime string and returns the resulting datetime in a detailed format. " +
		"This tool parses the input datetime string with the given strptime format, adds the specified duration in the requested unit, " +
		"and returns a formatted string of the resulting datetime. It handles seconds, minutes, hours, days, weeks, months, and years, " +
		"with special handling for month and year calculations to account for varying month lengths and leap years. " +
		"The output always includes the day of the week, month name, day, year, and time with AM/PM indicator " +
		"(e.g., 'Thursday, April 03, 2025 10:30:00 AM')."
}

func (t *AddDurationTool) ToolMetadata() toolcore.ToolMetadata {
	return toolcore.ToolMetadata{
		Source:       "builtin",
		Capabilities: []string{"time.arithmetic"},
		Risk:         toolcore.RiskLow,
	}
}

func (t *AddDurationTool) Parameters() map[string]interface{} {
	return toolcore.ReflectSchema[addDurationInput]()
}

func (t *AddDurationTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	_ = ctx

	var args addDurationInput
	if err := decodeInput(input, &args); err != nil {
		return nil, err
	}
	if args.Unit == "" {
		args.Unit = DefaultUnit
	}
	if args.InputFormat == "" {
		args.InputFormat = DefaultInputFormat
	}

	loc := time.Local
	if t.now != nil {
		loc = t.now().Location()
	}

	date, err := timefmt.ParseInLocation(args.DatetimeStr, args.InputFormat, loc)
	if err != nil {
		return nil, chatErrors.InvalidFormat(fmt.Sprintf("datetime_str %q does not match %q", args.DatetimeStr, args.InputFormat))
	}

	shifted, err := AddDuration(date, args.Duration, args.Unit)
	if err != nil {
		return nil, err
	}

	return json.Marshal(timefmt.Format(shifted, HumanFormat))
}

// AddDuration adds amount units to t. Fractional amounts are accepted for
// fixed-length units only.
func AddDuration(t time.Time, amount float64, unit string) (time.Time, error) {
	var step time.Duration
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "seconds":
		step = time.Second
	case "minutes":
		step = time.Minute
	case "hours":
		step = time.Hour
	case "days":
		step = 24 * time.Hour
	case "weeks":
		step = 7 * 24 * time.Hour
	case "months", "years":
		if amount != math.Trunc(amount) {
			return time.Time{}, chatErrors.InvalidInput(fmt.Sprintf("%s duration must be a whole number, got %v", unit, amount))
		}
		if math.Abs(amount) > math.MaxInt32 {
			return time.Time{}, chatErrors.InvalidInput(fmt.Sprintf("duration %v %s is out of range", amount, unit))
		}
		months := int(amount)
		if strings.EqualFold(strings.TrimSpace(unit), "years") {
			months *= 12
		}
		return AddMonths(t, months), nil
	default:
		return time.Time{}, chatErrors.UnsupportedUnit(unit)
	}

	// time.Duration is int64 nanoseconds; float64(MaxInt64) rounds up to 2^63.
	nanos := amount * float64(step)
	if math.IsNaN(nanos) || math.Abs(nanos) >= math.MaxInt64 {
		return time.Time{}, chatErrors.InvalidInput(fmt.Sprintf("duration %v %s is out of range", amount, unit))
	}
	return t.Add(time.Duration(nanos)), nil
}

// AddMonths moves t by n calendar months, clamping the day of month.
// Feb 29 plus one year lands on Feb 28 in a non-leap year.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()

	total := int(month) - 1 + n
	year += floorDiv(total, 12)
	month = time.Month(total - floorDiv(total, 12)*12 + 1)

	if last := DaysIn(year, month); day > last {
		day = last
	}

	hour, minute, sec := t.Clock()
	return time.Date(year, month, day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func DaysIn(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeap(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func decodeInput(input json.RawMessage, v any) error {
	if len(input) == 0 {
		return nil
	}
	if err := json.Unmarshal(input, v); err != nil {
		return chatErrors.InvalidInput(fmt.Sprintf("invalid input: %v", err))
	}
	return nil
}
