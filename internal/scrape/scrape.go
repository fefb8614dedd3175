package scrape

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const meetingItemPrefix = "meeting-item-"

// activityTitleMax caps scraped study titles to the column width.
const activityTitleMax = 500

// CommitteeEntry is one top-level block of the committee list page.
type CommitteeEntry struct {
	Name          string
	Acronym       string
	Subcommittees []SubcommitteeEntry
}

// SubcommitteeEntry is one nested subcommittee line within a committee block.
type SubcommitteeEntry struct {
	Name    string
	Acronym string
}

// StudyLink is a link from a meeting row to a study/activity page.
type StudyLink struct {
	Name string
	URL  string
}

// MeetingRow holds the structured fields of one meeting entry, extracted from
// the page but not yet reconciled against the store.
type MeetingRow struct {
	SourceID  int64
	Number    int
	Cancelled bool

	DateLabel string
	RowClass  string
	TimeText  string

	NoticeURL   string
	MinutesURL  string
	EvidenceURL string

	Webcast   bool
	InCamera  bool
	Televised bool
	Travel    bool

	Studies []StudyLink
}

// ParseCommitteeList extracts the committee blocks of the committee list
// page. An empty result is not an error here; the importer decides how loudly
// to complain about it.
func ParseCommitteeList(doc *goquery.Document) ([]CommitteeEntry, error) {
	var entries []CommitteeEntry
	var parseErr error

	doc.Find(".committees-list .accordion-item").EachWithBreak(func(i int, div *goquery.Selection) bool {
		acronymCell := div.Find(".accordion-bar-title .committee-acronym-cell")
		if acronymCell.Length() != 1 {
			parseErr = fmt.Errorf("committee block %d: expected 1 acronym cell, found %d", i, acronymCell.Length())
			return false
		}
		nameCell := div.Find(".accordion-bar-title .committee-name")
		if nameCell.Length() != 1 {
			parseErr = fmt.Errorf("committee block %d: expected 1 name cell, found %d", i, nameCell.Length())
			return false
		}

		entry := CommitteeEntry{
			Name:    strings.TrimSpace(nameCell.Text()),
			Acronym: strings.TrimSpace(acronymCell.Text()),
		}

		div.Find(".subcommittee-item .subcommittee-name").EachWithBreak(func(_ int, sub *goquery.Selection) bool {
			name, acronym, err := ParseSubcommittee(sub.Text())
			if err != nil {
				parseErr = err
				return false
			}
			entry.Subcommittees = append(entry.Subcommittees, SubcommitteeEntry{Name: name, Acronym: acronym})
			return true
		})
		if parseErr != nil {
			return false
		}

		entries = append(entries, entry)
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}
	return entries, nil
}

// ParseMeetingList extracts the meeting rows of a committee's meeting list
// page, in source order.
func ParseMeetingList(doc *goquery.Document) ([]MeetingRow, error) {
	var rows []MeetingRow
	var parseErr error

	doc.Find("#meeting-accordion .accordion-item").EachWithBreak(func(i int, div *goquery.Selection) bool {
		row, err := parseMeetingRow(div)
		if err != nil {
			parseErr = fmt.Errorf("meeting row %d: %w", i, err)
			return false
		}
		rows = append(rows, row)
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}
	return rows, nil
}

func parseMeetingRow(div *goquery.Selection) (MeetingRow, error) {
	var row MeetingRow

	id, _ := div.Attr("id")
	if !strings.HasPrefix(id, meetingItemPrefix) {
		return row, fmt.Errorf("unexpected element ID %q", id)
	}
	sourceID, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(id, meetingItemPrefix)), 10, 64)
	if err != nil {
		return row, fmt.Errorf("unparseable source ID in %q: %w", id, err)
	}
	row.SourceID = sourceID

	numberText := nonDigits.ReplaceAllString(div.Find(".meeting-title .meeting-number").Text(), "")
	number, err := strconv.Atoi(numberText)
	if err != nil || number <= 0 {
		return row, fmt.Errorf("meeting number %q is not a positive integer", numberText)
	}
	row.Number = number

	row.Cancelled = div.Find(".meeting-title .icon-cancel").Length() > 0
	row.DateLabel = strings.TrimSpace(div.Find(".meeting-title .date-label").Text())
	row.RowClass, _ = div.Attr("class")
	row.TimeText = div.Find(".the-time").Text()

	row.NoticeURL, _ = div.Find("a.btn-meeting-notice").Attr("href")
	row.MinutesURL, _ = div.Find("a.btn-meeting-minutes").Attr("href")
	row.EvidenceURL, _ = div.Find("a.btn-meeting-evidence").Attr("href")

	row.Webcast = div.Find(".btn-meeting-parlvu").Length() > 0
	row.InCamera = div.Find(`.meeting-title i[title*="In Camera"]`).Length() > 0
	row.Televised = div.Find(".meeting-title .icon-television").Length() > 0
	row.Travel = div.Find(".meeting-title .icon-plane").Length() > 0

	div.Find(".meeting-card-study a").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		row.Studies = append(row.Studies, StudyLink{
			Name: strings.TrimSpace(link.Text()),
			URL:  href,
		})
	})

	return row, nil
}

// ParseActivityTitle extracts the study title from an activity detail page.
func ParseActivityTitle(doc *goquery.Document) (string, error) {
	heading := doc.Find(".core-content h2").First()
	if heading.Length() == 0 {
		return "", fmt.Errorf("no activity title heading found")
	}
	title := strings.TrimSpace(heading.Text())
	if title == "" {
		return "", fmt.Errorf("empty activity title")
	}
	if len(title) > activityTitleMax {
		title = title[:activityTitleMax]
	}
	return title, nil
}
