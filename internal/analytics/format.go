package analytics

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ratioString renders a:b as "x.xx:1". Either side being zero yields
// the "N/A" sentinel, never a division by zero. The sentinel is part
// of the data contract consumed by the UI.
func ratioString(a, b int) string {
	if a == 0 || b == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f:1", float64(a)/float64(b))
}

// percentage renders part/whole as "x.xx%". A zero whole yields
// "0.00%".
func percentage(part, whole int) string {
	if whole == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(part)/float64(whole)*100)
}

// ageBands in report order.
var ageBands = []string{"<18", "18-24", "25-34", "35-44", "45-54", ">55"}

// ageBand buckets a date of birth as of now. Age 55 falls in ">55",
// the bands otherwise have no home for it.
func ageBand(dob, now time.Time) string {
	age := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		age--
	}
	switch {
	case age < 18:
		return "<18"
	case age <= 24:
		return "18-24"
	case age <= 34:
		return "25-34"
	case age <= 44:
		return "35-44"
	case age <= 54:
		return "45-54"
	default:
		return ">55"
	}
}

// countryCodes maps the country names the registration form offers to
// their display codes.
var countryCodes = map[string]string{
	"United States":  "US",
	"United Kingdom": "UK",
	"Canada":         "CA",
	"Mexico":         "MX",
	"Germany":        "DE",
	"France":         "FR",
	"Spain":          "ES",
	"Italy":          "IT",
	"Brazil":         "BR",
	"Argentina":      "AR",
	"Japan":          "JP",
	"China":          "CN",
	"South Korea":    "KR",
	"India":          "IN",
	"Australia":      "AU",
	"Nigeria":        "NG",
	"South Africa":   "ZA",
	"Vietnam":        "VN",
	"Philippines":    "PH",
	"Pakistan":       "PK",
}

// countryCode returns the display code for a country name, falling
// back to the first two letters upper-cased when unmapped.
func countryCode(country string) string {
	if code, ok := countryCodes[country]; ok {
		return code
	}
	var b strings.Builder
	rest := country
	for i := 0; i < 2 && len(rest) > 0; i++ {
		r, size := utf8.DecodeRuneInString(rest)
		b.WriteString(strings.ToUpper(string(r)))
		rest = rest[size:]
	}
	return b.String()
}

// parseRange validates and parses an inclusive date-string pair.
func parseRange(startDate, endDate string) (DateRange, error) {
	if startDate == "" || endDate == "" {
		return DateRange{}, errMissingRange
	}
	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return DateRange{}, errBadDate(startDate)
	}
	end, err := time.Parse(DateLayout, endDate)
	if err != nil {
		return DateRange{}, errBadDate(endDate)
	}
	if end.Before(start) {
		return DateRange{}, errInvertedRange
	}
	return DateRange{Start: start, End: end}, nil
}
