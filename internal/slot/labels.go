package slot

import (
	"strings"
	"time"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
)

// Wall-clock label formats shared with the clients. Dates are day_month_year
// without padding ("5_3_2025"), times are zero-padded 12-hour labels ("09:00 AM").
const (
	DateLayout = "2_1_2006"
	TimeLayout = "03:04 PM"

	parseTimeLayout = "3:04 PM"
)

// NormalizeDate validates a day_month_year label and returns its canonical form.
func NormalizeDate(raw string) (string, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return "", apperr.Validation("date %q must look like day_month_year, e.g. 5_3_2025", raw)
	}
	return d.Format(DateLayout), nil
}

// NormalizeTime validates a 12-hour time label and returns its canonical form.
func NormalizeTime(raw string) (string, error) {
	t, err := time.Parse(parseTimeLayout, strings.ToUpper(strings.TrimSpace(raw)))
	if err != nil {
		return "", apperr.Validation("time %q must be a 12-hour label like 09:00 AM", raw)
	}
	return t.Format(TimeLayout), nil
}

// At builds the instant a date and time label denote in loc.
func At(date, label string, loc *time.Location) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, apperr.Validation("date %q must look like day_month_year, e.g. 5_3_2025", date)
	}
	t, err := time.Parse(parseTimeLayout, strings.ToUpper(strings.TrimSpace(label)))
	if err != nil {
		return time.Time{}, apperr.Validation("time %q must be a 12-hour label like 09:00 AM", label)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// minuteOfDay orders canonical labels chronologically.
func minuteOfDay(label string) int {
	t, err := time.Parse(TimeLayout, label)
	if err != nil {
		return -1
	}
	return t.Hour()*60 + t.Minute()
}
