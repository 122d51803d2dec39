// Package main provides a tool to seed the database with test reading data.
//
// This creates test users with book collections, reading logs, timer sessions
// and goals to exercise stats and search features against realistic data.
//
// Usage:
//
//	DB_PATH=~/bookeareads/db go run ./cmd/seed
//	DB_PATH=~/bookeareads/db go run ./cmd/seed --users 3
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/lilizblack/bookeareads-server/internal/auth"
	"github.com/lilizblack/bookeareads-server/internal/domain"
	"github.com/lilizblack/bookeareads-server/internal/id"
	"github.com/lilizblack/bookeareads-server/internal/store"
)

var userCount = flag.Int("users", 2, "Number of test users to create")

// sampleBooks is a small shelf of well-known titles to seed libraries with.
var sampleBooks = []struct {
	title  string
	author string
	pages  int
	format domain.Format
}{
	{"The Name of the Wind", "Patrick Rothfuss", 662, domain.FormatPhysical},
	{"Piranesi", "Susanna Clarke", 245, domain.FormatPhysical},
	{"Project Hail Mary", "Andy Weir", 476, domain.FormatEbook},
	{"The Fifth Season", "N.K. Jemisin", 468, domain.FormatPhysical},
	{"Circe", "Madeline Miller", 393, domain.FormatPhysical},
	{"A Memory Called Empire", "Arkady Martine", 462, domain.FormatEbook},
	{"The House in the Cerulean Sea", "TJ Klune", 396, domain.FormatPhysical},
	{"Tomorrow, and Tomorrow, and Tomorrow", "Gabrielle Zevin", 401, domain.FormatPhysical},
}

var testUserNames = []string{
	"Alex Rivera",
	"Jordan Chen",
	"Sam Taylor",
	"Casey Morgan",
	"Riley Kim",
}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/bookeareads/db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	n := min(*userCount, len(testUserNames))
	for i := range n {
		user, err := ensureUser(ctx, s, i)
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		fmt.Printf("\nSeeding data for user: %s (%s)\n", user.DisplayName, user.ID)
		seedLibrary(ctx, s, rng, user.ID)
	}

	fmt.Println("\nSeeding complete!")
}

// ensureUser creates the i-th test user, or returns the existing one.
func ensureUser(ctx context.Context, s *store.Store, i int) (*domain.User, error) {
	email := fmt.Sprintf("test%d@example.com", i+1)
	if existing, err := s.Users.GetByIndex(ctx, "email", email); err == nil {
		fmt.Printf("  User %s already exists, reusing\n", email)
		return existing, nil
	}

	passwordHash, err := auth.HashPassword("testpass123")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		Syncable: domain.Syncable{
			ID:        id.MustGenerate("usr"),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Email:        email,
		PasswordHash: passwordHash,
		DisplayName:  testUserNames[i],
	}
	if err := s.Users.Create(ctx, user.ID, user); err != nil {
		return nil, err
	}
	fmt.Printf("  Created user: %s (%s)\n", user.DisplayName, email)
	return user, nil
}

// seedLibrary fills one user's collection with books, logs and sessions.
func seedLibrary(ctx context.Context, s *store.Store, rng *rand.Rand, userID string) {
	now := time.Now()

	numBooks := min(4+rng.Intn(3), len(sampleBooks))
	shuffled := rng.Perm(len(sampleBooks))

	created := 0
	for _, idx := range shuffled[:numBooks] {
		sample := sampleBooks[idx]

		book := &domain.Book{
			Syncable: domain.Syncable{
				ID:        id.MustGenerate("bk"),
				CreatedAt: now.AddDate(0, 0, -rng.Intn(60)),
				UpdatedAt: now,
			},
			Title:      sample.title,
			Author:     sample.author,
			TotalPages: sample.pages,
			Format:     sample.format,
			Status:     domain.StatusReading,
			Owned:      rng.Float32() < 0.7,
		}

		// Read, reading and want-to-read in rough thirds
		switch rng.Intn(3) {
		case 0:
			book.ApplyStatus(domain.StatusRead)
			book.Rating = float64(5+rng.Intn(6)) / 2 // 2.5 to 5.0
		case 1:
			book.ApplyStatus(domain.StatusWantToRead)
		default:
			book.ApplyStatus(domain.StatusReading)
			book.Progress = float64(rng.Intn(sample.pages * 8 / 10))
		}

		seedLogs(rng, book, now)

		if err := s.CreateBook(ctx, userID, book); err != nil {
			log.Printf("  Failed to create book %q: %v", sample.title, err)
			continue
		}
		created++

		for _, ses := range seedSessions(rng, book, now) {
			if err := s.CreateReadingSession(ctx, userID, &ses); err != nil {
				log.Printf("  Failed to create session: %v", err)
			}
		}
	}
	fmt.Printf("  Created %d books\n", created)

	goal := &domain.ReadingGoal{
		Year:          now.Year(),
		YearlyTarget:  12 + rng.Intn(24),
		MonthlyTarget: 1 + rng.Intn(3),
	}
	if err := s.SetGoal(ctx, userID, goal); err != nil {
		log.Printf("  Failed to set goal: %v", err)
	} else {
		fmt.Printf("  Set goal: %d books/year\n", goal.YearlyTarget)
	}
}

// seedLogs writes daily progress logs over the past two weeks. Today and
// yesterday always get a log so streak stats have something to anchor on.
func seedLogs(rng *rand.Rand, book *domain.Book, now time.Time) {
	if book.Status == domain.StatusWantToRead {
		return
	}

	position := 0.0
	for day := 13; day >= 0; day-- {
		if day > 1 && rng.Float32() > 0.6 {
			continue
		}
		position += float64(10 + rng.Intn(50))
		if max := book.TotalForMode(); max > 0 && position > max {
			position = max
		}
		book.ReadingLogs = append(book.ReadingLogs, domain.ReadingLog{
			Date:    domain.DayKey(now.AddDate(0, 0, -day)),
			Value:   position,
			Minutes: 10 + rng.Intn(50),
		})
	}
}

// seedSessions produces a few timed reading sessions for a book.
func seedSessions(rng *rand.Rand, book *domain.Book, now time.Time) []domain.ReadingSession {
	if book.Status == domain.StatusWantToRead {
		return nil
	}

	sessions := make([]domain.ReadingSession, 0, 3)
	for range 1 + rng.Intn(3) {
		minutes := 15 + rng.Intn(45)
		start := now.AddDate(0, 0, -rng.Intn(14)).Add(-time.Duration(minutes) * time.Minute)
		sessions = append(sessions, domain.ReadingSession{
			ID:        id.MustGenerate("ses"),
			BookID:    book.ID,
			StartedAt: start,
			EndedAt:   start.Add(time.Duration(minutes) * time.Minute),
			Minutes:   minutes,
			Progress:  book.Progress,
		})
	}
	return sessions
}
