package analytics

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDateRange parses the boundary encoding of two ISO dates joined by an
// underscore ("2024-01-02_2024-03-04") into UTC-midnight start and end dates.
func ParseDateRange(s string) (time.Time, time.Time, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: expected two dates joined by underscore, got %q", ErrInvalidDateRange, s)
	}

	start, err := time.ParseInLocation(dateLayout, parts[0], time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: bad start date %q", ErrInvalidDateRange, parts[0])
	}
	end, err := time.ParseInLocation(dateLayout, parts[1], time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: bad end date %q", ErrInvalidDateRange, parts[1])
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %s after end %s", ErrInvalidDateRange, parts[0], parts[1])
	}

	return start, end, nil
}

// Day truncates t to UTC midnight so dates compare and hash consistently.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TradingDays returns the set of weekdays in [start, end]. Exchange holidays
// are not modeled; a missing weekday bar is treated as a cache gap upstream.
func TradingDays(start, end time.Time) map[time.Time]bool {
	days := make(map[time.Time]bool)
	for d := Day(start); !d.After(Day(end)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days[d] = true
		}
	}
	return days
}
