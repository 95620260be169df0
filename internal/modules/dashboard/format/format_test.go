package format

import (
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestDuration(t *testing.T) {
	tests := []struct {
		name string
		in   *int64
		want string
	}{
		{name: "nil", in: nil, want: "—"},
		{name: "zero", in: ptr[int64](0), want: "—"},
		{name: "under a minute", in: ptr[int64](45), want: "45s"},
		{name: "one second", in: ptr[int64](1), want: "1s"},
		{name: "exactly a minute", in: ptr[int64](60), want: "1m 0s"},
		{name: "minutes and seconds", in: ptr[int64](125), want: "2m 5s"},
		{name: "over an hour stays in minutes", in: ptr[int64](3725), want: "62m 5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Duration(tt.in); got != tt.want {
				t.Errorf("Duration() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestDuration_deterministic(t *testing.T) {
	in := ptr[int64](125)
	first := Duration(in)
	for i := 0; i < 10; i++ {
		if got := Duration(in); got != first {
			t.Fatalf("Duration() changed between calls: %q vs %q", got, first)
		}
	}
	if *in != 125 {
		t.Fatalf("Duration() mutated its input: %d", *in)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0%"},
		{in: 42, want: "42%"},
		{in: 42.5, want: "42.5%"},
		{in: 100, want: "100%"},
		{in: 120, want: "120%"},
		{in: -3, want: "-3%"},
	}
	for _, tt := range tests {
		if got := Percent(tt.in); got != tt.want {
			t.Errorf("Percent(%v) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestTimestamp(t *testing.T) {
	utc := time.UTC
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		name string
		raw  string
		loc  *time.Location
		want string
	}{
		{name: "RFC3339 UTC", raw: "2025-03-01T14:05:09Z", loc: utc, want: "3/1/2025, 2:05:09 PM"},
		{name: "RFC3339 with offset converted", raw: "2025-03-01T14:05:09+02:00", loc: utc, want: "3/1/2025, 12:05:09 PM"},
		{name: "fractional seconds", raw: "2025-03-01T00:00:01.123456Z", loc: utc, want: "3/1/2025, 12:00:01 AM"},
		{name: "naive read in display location", raw: "2025-03-01T14:05:09.500000", loc: berlin, want: "3/1/2025, 2:05:09 PM"},
		{name: "space separator", raw: "2025-03-01 09:30:00", loc: utc, want: "3/1/2025, 9:30:00 AM"},
		{name: "zoned into display location", raw: "2025-07-01T10:00:00Z", loc: berlin, want: "7/1/2025, 12:00:00 PM"},
		{name: "empty", raw: "  ", loc: utc, want: "—"},
		{name: "unparseable passes through", raw: "yesterday", loc: utc, want: "yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Timestamp(tt.raw, tt.loc); got != tt.want {
				t.Errorf("Timestamp(%q) = %q; want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestOptionalTimestamp(t *testing.T) {
	if got := OptionalTimestamp(nil, time.UTC); got != Placeholder {
		t.Errorf("OptionalTimestamp(nil) = %q; want %q", got, Placeholder)
	}
	raw := "2025-03-01T14:05:09Z"
	if got := OptionalTimestamp(&raw, time.UTC); got != "3/1/2025, 2:05:09 PM" {
		t.Errorf("OptionalTimestamp(%q) = %q", raw, got)
	}
}

func TestParseTimestamp_nilLocationDefaultsToLocal(t *testing.T) {
	got, ok := ParseTimestamp("2025-03-01T14:05:09", nil)
	if !ok {
		t.Fatal("ParseTimestamp() ok = false")
	}
	if got.Location() != time.Local {
		t.Errorf("location = %v; want Local", got.Location())
	}
}
