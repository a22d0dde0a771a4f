package timeutil

import (
	"testing"
	"time"
)

func TestToInstant(t *testing.T) {
	tests := []struct {
		name    string
		local   string
		tz      string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "utc",
			local: "2026-03-10T09:00:00",
			tz:    "UTC",
			want:  time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			name:  "new york winter",
			local: "2026-01-15T09:00:00",
			tz:    "America/New_York",
			want:  time.Date(2026, 1, 15, 14, 0, 0, 0, time.UTC),
		},
		{
			name:  "new york summer",
			local: "2026-07-15T09:00:00",
			tz:    "America/New_York",
			want:  time.Date(2026, 7, 15, 13, 0, 0, 0, time.UTC),
		},
		{
			name:  "without seconds",
			local: "2026-03-10T09:00",
			tz:    "UTC",
			want:  time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			name:    "unknown zone",
			local:   "2026-03-10T09:00:00",
			tz:      "Mars/Olympus",
			wantErr: true,
		},
		{
			name:    "garbage datetime",
			local:   "not-a-datetime",
			tz:      "UTC",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToInstant(tt.local, tt.tz)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ToInstant(%q, %q) expected error, got %v", tt.local, tt.tz, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToInstant(%q, %q) error: %v", tt.local, tt.tz, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ToInstant(%q, %q) = %v, want %v", tt.local, tt.tz, got, tt.want)
			}
		})
	}
}

func TestToLocalRoundTrip(t *testing.T) {
	pairs := []struct {
		local string
		tz    string
	}{
		{"2026-01-15T09:00:00", "America/New_York"},
		{"2026-07-15T23:30:00", "Europe/Berlin"},
		{"2026-03-10T00:00:00", "UTC"},
		{"2026-11-01T12:00:00", "Australia/Sydney"},
	}
	for _, p := range pairs {
		instant, err := ToInstant(p.local, p.tz)
		if err != nil {
			t.Fatalf("ToInstant(%q, %q) error: %v", p.local, p.tz, err)
		}
		back, err := ToLocal(instant, p.tz)
		if err != nil {
			t.Fatalf("ToLocal error: %v", err)
		}
		if back != p.local {
			t.Errorf("round trip %q in %s = %q", p.local, p.tz, back)
		}
	}
}

func TestToLocalUnknownZone(t *testing.T) {
	if _, err := ToLocal(time.Now(), "Nowhere/Special"); err == nil {
		t.Error("expected error for unknown zone")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "PT30M", want: 30 * time.Minute},
		{in: "PT1H", want: time.Hour},
		{in: "PT1H30M", want: 90 * time.Minute},
		{in: "P1D", want: 24 * time.Hour},
		{in: "P1DT2H", want: 26 * time.Hour},
		{in: "PT45S", want: 45 * time.Second},
		{in: "PT0H30M", want: 30 * time.Minute},
		{in: "P", wantErr: true},
		{in: "PT", wantErr: true},
		{in: "", wantErr: true},
		{in: "30M", wantErr: true},
		{in: "P1M", wantErr: true}, // months are outside the grammar
		{in: "PT-5M", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDuration(%q) expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDuration(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Minute, "PT30M"},
		{time.Hour, "PT1H"},
		{90 * time.Minute, "PT1H30M"},
		{24 * time.Hour, "P1D"},
		{26 * time.Hour, "P1DT2H"},
		{0, "PT0S"},
		{-time.Minute, "PT0S"},
		{24*time.Hour + 61*time.Second, "P1DT1M1S"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Reparsing the compact form must preserve the parsed value, so PT0H30M
// normalizes to PT30M without changing meaning.
func TestDurationCompaction(t *testing.T) {
	inputs := []string{"PT0H30M", "PT30M", "P1DT0H", "PT1H0M", "P2DT3H4M5S"}
	for _, in := range inputs {
		first, err := ParseDuration(in)
		if err != nil {
			t.Fatalf("ParseDuration(%q) error: %v", in, err)
		}
		formatted := FormatDuration(first)
		second, err := ParseDuration(formatted)
		if err != nil {
			t.Fatalf("ParseDuration(%q) error: %v", formatted, err)
		}
		if first != second {
			t.Errorf("%q -> %q changed value: %v != %v", in, formatted, first, second)
		}
	}
	if got := FormatDuration(mustParse(t, "PT0H30M")); got != "PT30M" {
		t.Errorf("PT0H30M formats as %q, want PT30M", got)
	}
}

func mustParse(t *testing.T, s string) time.Duration {
	t.Helper()
	d, err := ParseDuration(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}
