package stdtime

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/podhmo/vsharp"
)

func TestClockFunctions(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 13, 45, 10, 123456789, time.Local)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	i := vsharp.NewInterpreter(vsharp.WithStdout(&bytes.Buffer{}))
	Install(i)
	got, err := i.EvalString(context.Background(), `
set today = time.date()
[today.hour(), today.day(), time.now().nanosecond(), time.now_millis().nanosecond(), time.difference(today, time.add_hours(today, 13))]`)
	if err != nil {
		t.Fatalf("EvalString() failed: %v", err)
	}
	if want := "[0, 1, 123456789, 123000000, 46800]"; got.Inspect() != want {
		t.Errorf("got %s, want %s", got.Inspect(), want)
	}
}
