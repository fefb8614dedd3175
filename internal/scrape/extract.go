package scrape

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	docIDPattern      = regexp.MustCompile(`(Doc|publication)Id=(\d+)`)
	activityIDPattern = regexp.MustCompile(`(studyActivityId|Stac)=(\d+)`)
	meetingTimePattern = regexp.MustCompile(
		`(\d\d?):(\d\d) ([ap]\.?m\.?)(?: - (\d\d?):(\d\d) ([ap]\.?m\.?))?\s\(`)
	subcommitteePattern = regexp.MustCompile(`^(.+) \(([A-Z0-9]{3,5})\)$`)
	relativeDatePattern = regexp.MustCompile(`-(20\d\d)-(\d\d)-(\d\d)`)
	nonDigits           = regexp.MustCompile(`\D`)
)

// relativeDateLabels are the labels the source shows instead of an absolute
// date for meetings near the current day. The date is then carried in a CSS
// class on the row.
var relativeDateLabels = map[string]bool{
	"Earlier Today": true,
	"Later Today":   true,
	"In Progress":   true,
	"Tomorrow":      true,
	"Yesterday":     true,
}

// ExtractDocID parses a document identifier out of a DocId or publicationId
// query parameter.
func ExtractDocID(url string) (int64, error) {
	m := docIDPattern.FindStringSubmatch(url)
	if m == nil {
		return 0, fmt.Errorf("no document ID in %q", url)
	}
	return strconv.ParseInt(m[2], 10, 64)
}

// ExtractActivityID parses the source activity identifier out of a
// studyActivityId or Stac query parameter.
func ExtractActivityID(url string) (int64, error) {
	m := activityIDPattern.FindStringSubmatch(url)
	if m == nil {
		return 0, fmt.Errorf("no activity ID in %q", url)
	}
	return strconv.ParseInt(m[2], 10, 64)
}

// To24Hour converts a 12-hour clock reading to a 24-hour one. Noon and
// midnight both land on a multiple of 12 after the pm offset and are
// normalized back down, so 12 a.m. maps to 0 and 12 p.m. stays 12.
func To24Hour(hour int, meridiem string) int {
	if strings.Contains(strings.ToLower(meridiem), "p") {
		hour += 12
	}
	if hour%12 == 0 {
		hour -= 12
	}
	return hour
}

// ClockTime is a wall-clock time of day without a date or zone.
type ClockTime struct {
	Hour   int
	Minute int
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseMeetingTime parses the combined time string of a meeting row, e.g.
// "11:00 a.m. - 1:00 p.m. (EST)". The end time is optional.
func ParseMeetingTime(s string) (start ClockTime, end *ClockTime, err error) {
	m := meetingTimePattern.FindStringSubmatch(s)
	if m == nil {
		return ClockTime{}, nil, fmt.Errorf("unparseable meeting time %q", s)
	}
	startHour, _ := strconv.Atoi(m[1])
	startMinute, _ := strconv.Atoi(m[2])
	start = ClockTime{Hour: To24Hour(startHour, m[3]), Minute: startMinute}
	if m[4] != "" {
		endHour, _ := strconv.Atoi(m[4])
		endMinute, _ := strconv.Atoi(m[5])
		end = &ClockTime{Hour: To24Hour(endHour, m[6]), Minute: endMinute}
	}
	return start, end, nil
}

// ParseLongDate parses dates of the form "March 11, 2011".
func ParseLongDate(s string) (time.Time, error) {
	d, err := time.Parse("January 2, 2006", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable date %q", s)
	}
	return d, nil
}

// ParseSubcommittee splits "Subcommittee on Example (SECU)" into name and
// acronym. Acronyms are 3-5 uppercase alphanumerics.
func ParseSubcommittee(text string) (name, acronym string, err error) {
	m := subcommitteePattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", "", fmt.Errorf("unparseable subcommittee entry %q", text)
	}
	return m[1], m[2], nil
}

// MeetingDate resolves a meeting row's date. Rows near the current day show a
// relative label and encode the absolute date in a -YYYY-MM-DD class token;
// all other rows carry a long date prefixed with the day of week.
func MeetingDate(dateLabel, rowClass string) (time.Time, error) {
	if relativeDateLabels[dateLabel] {
		m := relativeDatePattern.FindStringSubmatch(rowClass)
		if m == nil {
			return time.Time{}, fmt.Errorf("no date in row class %q for label %q", rowClass, dateLabel)
		}
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
	}
	// Split off the leading day-of-week token.
	_, rest, found := strings.Cut(dateLabel, ", ")
	if !found {
		return time.Time{}, fmt.Errorf("unparseable date label %q", dateLabel)
	}
	return ParseLongDate(rest)
}
