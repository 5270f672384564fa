package scraper

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/nsu-tools/course-scheduler-api/internal/models"
)

// courseTableSelector matches the offered-courses table on the portal page.
const courseTableSelector = "table#offeredCourseTbl"

// ParseSections extracts course sections from the offered-courses page.
// Rows that violate the catalog invariants (empty day set, inverted time
// interval) are skipped; the caller decides whether the skip count matters.
func ParseSections(body io.Reader, crossLists map[string]string) ([]models.Section, int, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, 0, fmt.Errorf("parse offered courses page: %w", err)
	}

	table := doc.Find(courseTableSelector)
	if table.Length() == 0 {
		return nil, 0, fmt.Errorf("offered courses table not found in page")
	}

	var sections []models.Section
	skipped := 0
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 6 {
			return
		}

		// Column layout on the portal: row number, course code, section,
		// instructor, day/time, room, seats.
		courseCode := normalizeCourseCode(cellText(cells, 1), crossLists)
		sec := models.Section{
			CourseCode:    courseCode,
			SectionNumber: cellText(cells, 2),
			Kind:          models.KindForCourse(courseCode),
			Instructor:    cellText(cells, 3),
			Room:          cellText(cells, 5),
		}

		if cells.Length() > 6 {
			if seats, err := strconv.Atoi(cellText(cells, 6)); err == nil && seats >= 0 {
				sec.SeatsAvailable = seats
			}
		}

		days, start, end, err := parseDayTime(cellText(cells, 4))
		if err != nil {
			skipped++
			return
		}
		sec.Days = days
		sec.StartTime = start
		sec.EndTime = end

		if !sec.Valid() || sec.CourseCode == "" || sec.SectionNumber == "" {
			skipped++
			return
		}
		sections = append(sections, sec)
	})

	return sections, skipped, nil
}

// parseDayTime splits a portal day/time string like "ST 01:00 PM - 02:30 PM"
// into its day set and clock interval.
func parseDayTime(raw string) (models.DaySet, models.ClockTime, models.ClockTime, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, models.ClockNone, models.ClockNone, fmt.Errorf("empty day/time cell")
	}

	split := len(raw)
	for i, r := range raw {
		if unicode.IsDigit(r) {
			split = i
			break
		}
	}
	dayPart := strings.TrimSpace(raw[:split])
	timePart := strings.TrimSpace(raw[split:])

	days, err := models.ParseDaySet(dayPart)
	if err != nil || days == 0 {
		return 0, models.ClockNone, models.ClockNone, fmt.Errorf("unparseable day block %q", dayPart)
	}

	startRaw, endRaw, found := strings.Cut(timePart, " - ")
	if !found {
		return 0, models.ClockNone, models.ClockNone, fmt.Errorf("unparseable time block %q", timePart)
	}
	start, err := parseTwelveHour(startRaw)
	if err != nil {
		return 0, models.ClockNone, models.ClockNone, err
	}
	end, err := parseTwelveHour(endRaw)
	if err != nil {
		return 0, models.ClockNone, models.ClockNone, err
	}
	return days, start, end, nil
}

// parseTwelveHour accepts portal clock strings such as "01:00 PM".
func parseTwelveHour(raw string) (models.ClockTime, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	var hour, minute int
	var meridiem string
	if _, err := fmt.Sscanf(raw, "%d:%d %s", &hour, &minute, &meridiem); err != nil {
		return models.ClockNone, fmt.Errorf("malformed clock value %q", raw)
	}
	if hour < 1 || hour > 12 || minute < 0 || minute > 59 {
		return models.ClockNone, fmt.Errorf("clock value %q out of range", raw)
	}
	switch meridiem {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return models.ClockNone, fmt.Errorf("clock value %q missing AM/PM marker", raw)
	}
	return models.NewClock(hour, minute), nil
}

// normalizeCourseCode collapses whitespace and maps cross-listed codes
// (e.g. "CSE332/EEE336") onto their canonical course code.
func normalizeCourseCode(raw string, crossLists map[string]string) string {
	code := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	if canonical, ok := crossLists[code]; ok {
		return strings.ToUpper(canonical)
	}
	return code
}

func cellText(cells *goquery.Selection, index int) string {
	return strings.TrimSpace(cells.Eq(index).Text())
}
