package stats

import (
	"slices"
	"time"

	"github.com/lilizblack/bookeareads-server/internal/domain"
)

// readingDays collects the set of calendar days with any logged progress.
func readingDays(books []domain.Book) map[string]bool {
	days := make(map[string]bool)
	for _, b := range books {
		if b.IsDeleted() {
			continue
		}
		for _, l := range b.ReadingLogs {
			days[l.Date] = true
		}
	}
	return days
}

// CurrentStreak returns the number of consecutive days with logged reading
// ending at now. A streak only counts as alive when today or yesterday has
// an entry; otherwise it is 0 no matter how long the historic run was.
func CurrentStreak(books []domain.Book, now time.Time) int {
	days := readingDays(books)
	if len(days) == 0 {
		return 0
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	anchor := today
	if !days[domain.DayKey(anchor)] {
		anchor = today.AddDate(0, 0, -1)
		if !days[domain.DayKey(anchor)] {
			return 0
		}
	}

	streak := 0
	for days[domain.DayKey(anchor)] {
		streak++
		anchor = anchor.AddDate(0, 0, -1)
	}
	return streak
}

// LongestStreak returns the longest run of consecutive reading days in the
// whole history.
func LongestStreak(books []domain.Book) int {
	days := readingDays(books)
	if len(days) == 0 {
		return 0
	}

	sorted := make([]string, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	slices.Sort(sorted)

	longest := 1
	run := 1
	for i := 1; i < len(sorted); i++ {
		curr, err := time.ParseInLocation(domain.DayLayout, sorted[i], time.Local)
		if err != nil {
			continue
		}
		prev, err := time.ParseInLocation(domain.DayLayout, sorted[i-1], time.Local)
		if err != nil {
			continue
		}
		if prev.AddDate(0, 0, 1).Equal(curr) {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}
	return longest
}
