package logging

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestFormatValueQuotesOnlyWhenNeeded(t *testing.T) {
	cases := []struct {
		in   slog.Value
		want string
	}{
		{slog.StringValue("abc123"), "abc123"},
		{slog.StringValue("two words"), `"two words"`},
		{slog.StringValue("k=v"), `"k=v"`},
		{slog.StringValue(""), `""`},
		{slog.IntValue(42), "42"},
		{slog.Float64Value(1.25), "1.25"},
		{slog.BoolValue(true), "true"},
		{slog.DurationValue(1500 * time.Millisecond), "1.5s"},
		{slog.AnyValue(errors.New("exit status 1")), `"exit status 1"`},
	}
	for _, tc := range cases {
		if got := formatValue(tc.in); got != tc.want {
			t.Errorf("formatValue(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAttrStringLeavesTextUnquoted(t *testing.T) {
	if got := attrString(slog.StringValue("two words")); got != "two words" {
		t.Fatalf("attrString string = %q", got)
	}
	if got := attrString(slog.AnyValue(errors.New("boom here"))); got != "boom here" {
		t.Fatalf("attrString error = %q", got)
	}
	if got := attrString(slog.AnyValue(time.Second)); got != "1s" {
		t.Fatalf("attrString stringer = %q", got)
	}
}

func TestConsoleTimeZero(t *testing.T) {
	if got := consoleTime(time.Time{}); got != "" {
		t.Fatalf("zero time = %q, want empty", got)
	}
	ts := time.Date(2024, 3, 9, 14, 5, 6, 0, time.Local)
	if got := consoleTime(ts); got != "2024-03-09 14:05:06" {
		t.Fatalf("consoleTime = %q", got)
	}
}

func TestConsoleFieldValuesAreUnquoted(t *testing.T) {
	got := formatValueForKey(FieldErrorHint, slog.StringValue("check logs for details"))
	if got != "check logs for details" {
		t.Fatalf("hint = %q, want unquoted text", got)
	}
	if got := formatValueForKey("error", slog.AnyValue(errors.New("exit status 1"))); got != "exit status 1" {
		t.Fatalf("error = %q, want unquoted text", got)
	}
}
