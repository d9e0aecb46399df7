package analytics

import (
	"testing"
	"time"

	"github.com/armaanamatya/3380-coogmusic-sub001/internal/apperr"
)

func TestRatioString(t *testing.T) {
	cases := []struct {
		a, b int
		want string
	}{
		{10, 4, "2.50:1"},
		{1, 3, "0.33:1"},
		{5, 5, "1.00:1"},
		{0, 7, "N/A"},
		{7, 0, "N/A"},
		{0, 0, "N/A"},
	}
	for _, c := range cases {
		if got := ratioString(c.a, c.b); got != c.want {
			t.Errorf("ratioString(%d, %d) = %q, want %q", c.a, c.b, got, c.want)
		}
	}
}

func TestPercentage(t *testing.T) {
	cases := []struct {
		part, whole int
		want        string
	}{
		{1, 4, "25.00%"},
		{1, 3, "33.33%"},
		{3, 3, "100.00%"},
		{0, 5, "0.00%"},
		{0, 0, "0.00%"},
		{5, 0, "0.00%"},
	}
	for _, c := range cases {
		if got := percentage(c.part, c.whole); got != c.want {
			t.Errorf("percentage(%d, %d) = %q, want %q", c.part, c.whole, got, c.want)
		}
	}
}

func TestAgeBand(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		dob  time.Time
		want string
	}{
		{time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), "<18"},
		{time.Date(2008, 8, 28, 0, 0, 0, 0, time.UTC), "18-24"}, // 18th birthday today
		{time.Date(2008, 8, 29, 0, 0, 0, 0, time.UTC), "<18"},   // 18 tomorrow
		{time.Date(2002, 1, 1, 0, 0, 0, 0, time.UTC), "18-24"},
		{time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), "25-34"},
		{time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), "35-44"},
		{time.Date(1975, 1, 1, 0, 0, 0, 0, time.UTC), "45-54"},
		{time.Date(1971, 6, 1, 0, 0, 0, 0, time.UTC), ">55"}, // exactly 55 has no other band
		{time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC), ">55"},
	}
	for _, c := range cases {
		if got := ageBand(c.dob, now); got != c.want {
			t.Errorf("ageBand(%s) = %q, want %q", c.dob.Format(DateLayout), got, c.want)
		}
	}
}

func TestCountryCode(t *testing.T) {
	cases := []struct {
		country string
		want    string
	}{
		{"United States", "US"},
		{"United Kingdom", "UK"},
		{"South Korea", "KR"},
		{"Iceland", "IC"},
		{"peru", "PE"},
		{"X", "X"},
	}
	for _, c := range cases {
		if got := countryCode(c.country); got != c.want {
			t.Errorf("countryCode(%q) = %q, want %q", c.country, got, c.want)
		}
	}
}

func TestParseRange(t *testing.T) {
	r, err := parseRange("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("parseRange: %v", err)
	}
	// bounds are inclusive on both ends
	if !r.Contains(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("start day excluded")
	}
	if !r.Contains(time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)) {
		t.Error("end day excluded")
	}
	if r.Contains(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("day after end included")
	}

	for _, c := range [][2]string{
		{"", "2024-01-31"},
		{"2024-01-01", ""},
		{"01/01/2024", "2024-01-31"},
		{"2024-02-01", "2024-01-31"},
	} {
		if _, err := parseRange(c[0], c[1]); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("parseRange(%q, %q) err = %v, want validation", c[0], c[1], err)
		}
	}
}
