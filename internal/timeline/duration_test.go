package timeline

import (
	"testing"
	"time"
)

func TestFormatBreakdown(t *testing.T) {
	// Mid-morning anchor so same-day additions stay on the same calendar day.
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    string
	}{
		{"zero", 0, "0S"},
		{"under a minute", 59 * time.Second, "59S"},
		{"just over a minute", 61 * time.Second, "1M 1S"},
		{"whole minutes", 5 * time.Minute, "5M"},
		{"exactly one hour", 3600 * time.Second, "1H"},
		{"hour and a minute", 3661 * time.Second, "1H 1M"},
		{"whole hours", 4 * time.Hour, "4H"},
		{"over a day", 90000 * time.Second, "1D 1H"},
		{"whole days", 3 * 24 * time.Hour, "3D"},
		{"days and hours", 3*24*time.Hour + 4*time.Hour, "3D 4H"},
		{"whole weeks", 14 * 24 * time.Hour, "2W"},
		{"weeks and days", 9 * 24 * time.Hour, "1W 2D"},
		{"whole months", 28 * 24 * time.Hour, "1M"},
		{"months and weeks", 35 * 24 * time.Hour, "1M 1W"},
		{"many months", 6 * 28 * 24 * time.Hour, "6M"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatBreakdown(base, base.Add(tt.elapsed))
			if got != tt.want {
				t.Errorf("FormatBreakdown(+%v) = %q, want %q", tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestFormatBreakdown_MinutesSuppressedAcrossMidnight(t *testing.T) {
	// 1h30m spanning midnight: hours show, minutes do not, since the two
	// instants fall on different calendar days.
	from := time.Date(2026, 3, 2, 23, 15, 0, 0, time.UTC)
	to := from.Add(90 * time.Minute)

	if got := FormatBreakdown(from, to); got != "1H" {
		t.Errorf("cross-midnight FormatBreakdown = %q, want %q", got, "1H")
	}

	// Same elapsed time within one day keeps the minutes.
	from = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if got := FormatBreakdown(from, from.Add(90*time.Minute)); got != "1H 30M" {
		t.Errorf("same-day FormatBreakdown = %q, want %q", got, "1H 30M")
	}
}

func TestFormatBreakdown_NegativeClampsToZero(t *testing.T) {
	from := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	if got := FormatBreakdown(from, to); got != "0S" {
		t.Errorf("negative elapsed = %q, want %q", got, "0S")
	}
}

func TestFormatBreakdown_NeverShowsSecondsPastAnHour(t *testing.T) {
	from := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	for _, elapsed := range []time.Duration{
		3601 * time.Second,
		25*time.Hour + 30*time.Second,
		8*24*time.Hour + 59*time.Second,
	} {
		got := FormatBreakdown(from, from.Add(elapsed))
		if len(got) > 0 && got[len(got)-1] == 'S' {
			t.Errorf("FormatBreakdown(+%v) = %q shows seconds past one hour", elapsed, got)
		}
	}
}
