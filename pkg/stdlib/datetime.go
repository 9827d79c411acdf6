package stdlib

import (
	"strings"
	"time"

	"github.com/quickdata/qexpr/pkg/types"
)

func registerDatetime(r *Registry) {
	r.Register("now", dtNow, Info{Category: "datetime", Description: "Current time as an RFC 3339 string (UTC)"})
	r.Register("today", dtToday, Info{Category: "datetime", Description: "Current date as YYYY-MM-DD (UTC)"})
	r.Register("timestamp", dtTimestamp, Info{Category: "datetime", Description: "Current Unix timestamp in seconds"})
	r.Register("date_format", dtFormat, Info{Category: "datetime", Description: "Format an RFC 3339 time with a strftime-style pattern"})
	r.Register("date_parse", dtParse, Info{Category: "datetime", Description: "Parse a time string into RFC 3339 form"})
	r.Register("date_add", dtAdd, Info{Category: "datetime", Description: "Add days to a time"})
	r.Register("date_diff", dtDiff, Info{Category: "datetime", Description: "Whole days between two times"})
	r.Register("year", dtYear, Info{Category: "datetime", Description: "Year component of a time"})
	r.Register("month", dtMonth, Info{Category: "datetime", Description: "Month component of a time"})
	r.Register("day", dtDay, Info{Category: "datetime", Description: "Day-of-month component of a time"})
}

// parseTime accepts the formats date values move through the engine in.
func parseTime(name, s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, types.NewValueError("%s() cannot parse time %q", name, s)
}

// strftimeToGo translates the common strftime directives into a Go layout.
var strftimeReplacer = strings.NewReplacer(
	"%Y", "2006",
	"%m", "01",
	"%d", "02",
	"%H", "15",
	"%M", "04",
	"%S", "05",
	"%y", "06",
	"%B", "January",
	"%b", "Jan",
	"%A", "Monday",
	"%a", "Mon",
)

func dtNow(args []types.Value) (types.Value, error) {
	if err := requireArgs("now", args, 0); err != nil {
		return types.Null, err
	}
	return types.NewString(time.Now().UTC().Format(time.RFC3339)), nil
}

func dtToday(args []types.Value) (types.Value, error) {
	if err := requireArgs("today", args, 0); err != nil {
		return types.Null, err
	}
	return types.NewString(time.Now().UTC().Format("2006-01-02")), nil
}

func dtTimestamp(args []types.Value) (types.Value, error) {
	if err := requireArgs("timestamp", args, 0); err != nil {
		return types.Null, err
	}
	return types.NewInt(time.Now().Unix()), nil
}

func dtFormat(args []types.Value) (types.Value, error) {
	if err := requireArgs("date_format", args, 2); err != nil {
		return types.Null, err
	}
	s, err := argString("date_format", args, 0)
	if err != nil {
		return types.Null, err
	}
	pattern, err := argString("date_format", args, 1)
	if err != nil {
		return types.Null, err
	}
	t, err := parseTime("date_format", s)
	if err != nil {
		return types.Null, err
	}
	return types.NewString(t.Format(strftimeReplacer.Replace(pattern))), nil
}

func dtParse(args []types.Value) (types.Value, error) {
	if err := requireArgs("date_parse", args, 1); err != nil {
		return types.Null, err
	}
	s, err := argString("date_parse", args, 0)
	if err != nil {
		return types.Null, err
	}
	t, err := parseTime("date_parse", s)
	if err != nil {
		return types.Null, err
	}
	return types.NewString(t.UTC().Format(time.RFC3339)), nil
}

func dtAdd(args []types.Value) (types.Value, error) {
	if err := requireArgs("date_add", args, 2); err != nil {
		return types.Null, err
	}
	s, err := argString("date_add", args, 0)
	if err != nil {
		return types.Null, err
	}
	days, err := argInt("date_add", args, 1)
	if err != nil {
		return types.Null, err
	}
	t, err := parseTime("date_add", s)
	if err != nil {
		return types.Null, err
	}
	return types.NewString(t.AddDate(0, 0, int(days)).UTC().Format(time.RFC3339)), nil
}

func dtDiff(args []types.Value) (types.Value, error) {
	if err := requireArgs("date_diff", args, 2); err != nil {
		return types.Null, err
	}
	a, err := argString("date_diff", args, 0)
	if err != nil {
		return types.Null, err
	}
	b, err := argString("date_diff", args, 1)
	if err != nil {
		return types.Null, err
	}
	ta, err := parseTime("date_diff", a)
	if err != nil {
		return types.Null, err
	}
	tb, err := parseTime("date_diff", b)
	if err != nil {
		return types.Null, err
	}
	return types.NewInt(int64(ta.Sub(tb).Hours() / 24)), nil
}

func dtComponent(name string, args []types.Value, pick func(time.Time) int) (types.Value, error) {
	if err := requireArgs(name, args, 1); err != nil {
		return types.Null, err
	}
	s, err := argString(name, args, 0)
	if err != nil {
		return types.Null, err
	}
	t, err := parseTime(name, s)
	if err != nil {
		return types.Null, err
	}
	return types.NewInt(int64(pick(t))), nil
}

func dtYear(args []types.Value) (types.Value, error) {
	return dtComponent("year", args, func(t time.Time) int { return t.Year() })
}

func dtMonth(args []types.Value) (types.Value, error) {
	return dtComponent("month", args, func(t time.Time) int { return int(t.Month()) })
}

func dtDay(args []types.Value) (types.Value, error) {
	return dtComponent("day", args, func(t time.Time) int { return t.Day() })
}
