package stats

import (
	"time"

	"github.com/lilizblack/bookeareads-server/internal/domain"
)

// FinishedIn returns the books whose FinishedAt falls inside the window.
// Soft-deleted entries are skipped.
func FinishedIn(books []domain.Book, p Period) []domain.Book {
	var out []domain.Book
	for _, b := range books {
		if b.IsDeleted() || b.FinishedAt == nil {
			continue
		}
		if p.Contains(*b.FinishedAt) {
			out = append(out, b)
		}
	}
	return out
}

// AddedIn counts books added to the library inside the window.
func AddedIn(books []domain.Book, p Period) int {
	count := 0
	for _, b := range books {
		if b.IsDeleted() {
			continue
		}
		if p.Contains(b.CreatedAt) {
			count++
		}
	}
	return count
}

// CountByStatus tallies live books per reading status.
func CountByStatus(books []domain.Book) map[domain.Status]int {
	counts := make(map[domain.Status]int)
	for _, b := range books {
		if b.IsDeleted() {
			continue
		}
		counts[b.Status]++
	}
	return counts
}

// Spend sums the purchase price of owned books bought inside the window.
// Books without a purchase date fall back to the date they were added.
func Spend(books []domain.Book, p Period) float64 {
	total := 0.0
	for _, b := range books {
		if b.IsDeleted() || !b.Owned {
			continue
		}
		when := b.CreatedAt
		if b.PurchaseDate != nil {
			when = *b.PurchaseDate
		}
		if p.Contains(when) {
			total += b.Price
		}
	}
	return total
}

// ProgressDelta returns the progress a book gained inside the window, in the
// unit of its tracking mode. Log values are cumulative positions, so the
// delta is the window's high-water mark minus the high-water mark before the
// window started, clamped at zero.
func ProgressDelta(b domain.Book, p Period) float64 {
	maxIn := 0.0
	maxBefore := 0.0

	for _, l := range b.ReadingLogs {
		day, err := l.Day()
		if err != nil {
			continue
		}
		switch {
		case p.Contains(day):
			maxIn = max(maxIn, l.Value)
		case !p.Start.IsZero() && day.Before(p.Start):
			maxBefore = max(maxBefore, l.Value)
		}
	}

	if maxIn == 0 {
		return 0
	}
	delta := maxIn - maxBefore
	if delta < 0 {
		return 0
	}
	return delta
}

// MinutesRead sums timed reading across all books inside the window.
func MinutesRead(books []domain.Book, p Period) int {
	total := 0
	for _, b := range books {
		if b.IsDeleted() {
			continue
		}
		for _, l := range b.ReadingLogs {
			if l.Minutes > 0 && p.ContainsDay(l.Date) {
				total += l.Minutes
			}
		}
	}
	return total
}

// WorstRated returns the finished-in-window book with the lowest non-zero
// rating, or nil when no rated book finished in the window.
func WorstRated(books []domain.Book, p Period) *domain.Book {
	var worst *domain.Book
	for _, b := range FinishedIn(books, p) {
		if b.Rating == 0 {
			continue
		}
		if worst == nil || b.Rating < worst.Rating {
			bb := b
			worst = &bb
		}
	}
	return worst
}

// GoalProgress reports how the current year and month stand against targets.
type GoalProgress struct {
	Year             int `json:"year"`
	YearlyTarget     int `json:"yearly_target,omitempty"`
	YearlyFinished   int `json:"yearly_finished"`
	MonthlyTarget    int `json:"monthly_target,omitempty"`
	MonthlyFinished  int `json:"monthly_finished"`
	RemainingYearly  int `json:"remaining_yearly,omitempty"`
	RemainingMonthly int `json:"remaining_monthly,omitempty"`
}

// Goal evaluates a reading goal against the library as of now.
func Goal(goal domain.ReadingGoal, books []domain.Book, now time.Time) GoalProgress {
	gp := GoalProgress{
		Year:          goal.Year,
		YearlyTarget:  goal.YearlyTarget,
		MonthlyTarget: goal.MonthlyTarget,
	}
	if gp.Year == 0 {
		gp.Year = now.Year()
	}

	gp.YearlyFinished = len(FinishedIn(books, YearPeriod(gp.Year)))
	if now.Year() == gp.Year {
		gp.MonthlyFinished = len(FinishedIn(books, MonthPeriod(gp.Year, now.Month())))
	}

	if gp.YearlyTarget > 0 && gp.YearlyFinished < gp.YearlyTarget {
		gp.RemainingYearly = gp.YearlyTarget - gp.YearlyFinished
	}
	if gp.MonthlyTarget > 0 && gp.MonthlyFinished < gp.MonthlyTarget {
		gp.RemainingMonthly = gp.MonthlyTarget - gp.MonthlyFinished
	}
	return gp
}
