package stdtime

import (
	"time"

	"github.com/podhmo/vsharp"
)

// now is replaced in tests.
var now = time.Now

// Install registers the native `time` functions with the interpreter.
// Instants are host time.Time values, so their methods (`t.year()`,
// `t.format(layout)`) are callable from scripts as well.
func Install(interp *vsharp.Interpreter) {
	interp.Register("time", map[string]any{
		"now":           func() time.Time { return now() },
		"date":          today,
		"now_millis":    func() time.Time { return now().Truncate(time.Millisecond) },
		"difference":    difference,
		"to_iso8601":    toISO8601,
		"parse_iso8601": parseISO8601,
		"add_days":      func(t time.Time, days int) time.Time { return t.AddDate(0, 0, days) },
		"add_hours":     func(t time.Time, hours int) time.Time { return t.Add(time.Duration(hours) * time.Hour) },
		"add_minutes":   func(t time.Time, minutes int) time.Time { return t.Add(time.Duration(minutes) * time.Minute) },
		"unix":          func(t time.Time) int64 { return t.Unix() },
	})
}

// today is the current date at midnight in the local zone.
func today() time.Time {
	y, m, d := now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// difference returns end - start in seconds.
func difference(start, end time.Time) float64 {
	return end.Sub(start).Seconds()
}

func toISO8601(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseISO8601(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
