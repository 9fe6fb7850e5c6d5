package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// Minutes is a time of day expressed as minutes since midnight. It is
// the canonical representation for every slot comparison; display
// strings exist only at the API boundary.
type Minutes int

const minutesPerDay = 24 * 60

// String renders the canonical 24-hour "HH:MM" form.
func (m Minutes) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Clock12 renders the 12-hour "H:MM AM/PM" form for display.
func (m Minutes) Clock12() string {
	h := int(m) / 60
	mm := int(m) % 60

	hour12 := h % 12
	if hour12 == 0 {
		hour12 = 12
	}
	meridiem := "AM"
	if h >= 12 {
		meridiem = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", hour12, mm, meridiem)
}

// ParseClock parses a time-of-day string in either 24-hour "HH:MM"
// or 12-hour "H:MM AM/PM" notation. "12:00 AM" is midnight and
// "12:00 PM" is noon.
func ParseClock(s string) (Minutes, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time string")
	}

	timePart := s
	meridiem := ""
	if fields := strings.Fields(s); len(fields) == 2 {
		timePart = fields[0]
		meridiem = strings.ToUpper(fields[1])
		if meridiem != "AM" && meridiem != "PM" {
			return 0, fmt.Errorf("invalid meridiem %q", fields[1])
		}
	} else if len(fields) > 2 {
		return 0, fmt.Errorf("invalid time string %q", s)
	}

	hhmm := strings.Split(timePart, ":")
	if len(hhmm) != 2 {
		return 0, fmt.Errorf("invalid time string %q", s)
	}

	hours, err := strconv.Atoi(hhmm[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	mins, err := strconv.Atoi(hhmm[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if mins < 0 || mins > 59 {
		return 0, fmt.Errorf("minute out of range in %q", s)
	}

	switch meridiem {
	case "":
		if hours < 0 || hours > 23 {
			return 0, fmt.Errorf("hour out of range in %q", s)
		}
	case "AM":
		if hours < 1 || hours > 12 {
			return 0, fmt.Errorf("hour out of range in %q", s)
		}
		if hours == 12 {
			hours = 0
		}
	case "PM":
		if hours < 1 || hours > 12 {
			return 0, fmt.Errorf("hour out of range in %q", s)
		}
		if hours != 12 {
			hours += 12
		}
	}

	total := hours*60 + mins
	if total >= minutesPerDay {
		return 0, fmt.Errorf("time out of range in %q", s)
	}
	return Minutes(total), nil
}

// Canonicalize normalizes any accepted time string to "HH:MM".
func Canonicalize(s string) (string, error) {
	m, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	return m.String(), nil
}
