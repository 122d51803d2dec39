// Package domain contains the core business entities and domain logic for the Bookea reading tracker.
package domain

import "time"

// Format is the physical form of a book.
type Format string

const (
	FormatPhysical  Format = "physical"
	FormatEbook     Format = "ebook"
	FormatAudiobook Format = "audiobook"
)

// Status is the reading status of a book.
type Status string

const (
	StatusWantToRead Status = "want-to-read"
	StatusReading    Status = "reading"
	StatusRead       Status = "read"
	StatusPaused     Status = "paused"
	StatusDNF        Status = "dnf"
)

// TrackingMode selects the unit used to record progress.
type TrackingMode string

const (
	TrackPages    TrackingMode = "pages"
	TrackChapters TrackingMode = "chapters"
	TrackMinutes  TrackingMode = "minutes"
)

// Ownership records what happened to a physical copy after reading.
type Ownership string

const (
	OwnershipKept Ownership = "kept"
	OwnershipSold Ownership = "sold"
)

// Book is a library entry with its reading history.
type Book struct {
	Syncable
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	ISBN          string   `json:"isbn,omitempty"`
	Description   string   `json:"description,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishYear   string   `json:"publish_year,omitempty"`
	CoverURL      string   `json:"cover_url,omitempty"`
	CoverBlurHash string   `json:"cover_blurhash,omitempty"`
	Genres        []string `json:"genres,omitempty"`

	Format       Format       `json:"format,omitempty"`
	Status       Status       `json:"status"`
	TrackingMode TrackingMode `json:"tracking_mode,omitempty"`

	// Progress is cumulative in the unit of the tracking mode.
	Progress      float64 `json:"progress"`
	TotalPages    int     `json:"total_pages,omitempty"`
	TotalChapters int     `json:"total_chapters,omitempty"`
	TotalMinutes  int     `json:"total_minutes,omitempty"`

	Owned            bool       `json:"owned,omitempty"`
	Price            float64    `json:"price,omitempty"`
	PurchaseLocation string     `json:"purchase_location,omitempty"`
	PurchaseDate     *time.Time `json:"purchase_date,omitempty"`
	Ownership        Ownership  `json:"ownership,omitempty"`

	Rating      float64 `json:"rating,omitempty"`
	SpiceRating float64 `json:"spice_rating,omitempty"`

	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	PausedAt   *time.Time `json:"paused_at,omitempty"`
	DNFAt      *time.Time `json:"dnf_at,omitempty"`

	// TotalTimeRead accumulates timer minutes across all sessions.
	TotalTimeRead int `json:"total_time_read,omitempty"`
	// TotalTimedProgress accumulates progress made during timed sessions,
	// in the unit of the tracking mode.
	TotalTimedProgress float64 `json:"total_timed_progress,omitempty"`

	ReadingLogs []ReadingLog `json:"reading_logs,omitempty"`
	Notes       []Note       `json:"notes,omitempty"`
}

// Mode returns the effective tracking mode. Books without an explicit mode
// track minutes when they are audiobooks and pages otherwise.
func (b *Book) Mode() TrackingMode {
	if b.TrackingMode != "" {
		return b.TrackingMode
	}
	if b.Format == FormatAudiobook {
		return TrackMinutes
	}
	return TrackPages
}

// TotalForMode returns the book's total length in the unit of its effective
// tracking mode, or 0 when unknown.
func (b *Book) TotalForMode() float64 {
	switch b.Mode() {
	case TrackChapters:
		return float64(b.TotalChapters)
	case TrackMinutes:
		return float64(b.TotalMinutes)
	default:
		return float64(b.TotalPages)
	}
}

// ApplyStatus transitions the book to a new status, applying the side
// effects each transition implies. Marking a book read completes its
// progress when the total length is known and stamps FinishedAt once.
// Moving it back to want-to-read resets progress.
func (b *Book) ApplyStatus(status Status) {
	now := time.Now()
	b.Status = status

	switch status {
	case StatusRead:
		if total := b.TotalForMode(); total > 0 {
			b.Progress = total
		}
		if b.FinishedAt == nil {
			b.FinishedAt = &now
		}
	case StatusWantToRead:
		b.Progress = 0
	case StatusReading:
		if b.StartedAt == nil {
			b.StartedAt = &now
		}
	case StatusPaused:
		b.PausedAt = &now
	case StatusDNF:
		b.DNFAt = &now
	}
}

// UpsertLog records cumulative progress for a calendar day. A book keeps at
// most one log entry per day: logging twice on the same day overwrites the
// value and accumulates the minutes.
func (b *Book) UpsertLog(date string, value float64, minutes int) {
	for i := range b.ReadingLogs {
		if b.ReadingLogs[i].Date == date {
			b.ReadingLogs[i].Value = value
			b.ReadingLogs[i].Minutes += minutes
			return
		}
	}
	b.ReadingLogs = append(b.ReadingLogs, ReadingLog{Date: date, Value: value, Minutes: minutes})
}

// LogFor returns the reading log entry for a day, or nil.
func (b *Book) LogFor(date string) *ReadingLog {
	for i := range b.ReadingLogs {
		if b.ReadingLogs[i].Date == date {
			return &b.ReadingLogs[i]
		}
	}
	return nil
}
