package main

import (
	"encoding/json/v2"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lilizblack/bookeareads-server/internal/covers"
	"github.com/lilizblack/bookeareads-server/internal/domain"
	"github.com/lilizblack/bookeareads-server/internal/metadata"
	"github.com/lilizblack/bookeareads-server/internal/metadata/googlebooks"
	"github.com/lilizblack/bookeareads-server/internal/metadata/openlibrary"
	"github.com/lilizblack/bookeareads-server/internal/search"
	"github.com/lilizblack/bookeareads-server/internal/stats"
	"github.com/lilizblack/bookeareads-server/internal/tracker"
)

func addCmd() *cobra.Command {
	var title, author, isbn, format, status string
	var genres []string
	var pages, chapters, minutes int
	var rating, price float64
	var owned, lookup bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to your collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			book := &domain.Book{
				Title:         title,
				Author:        author,
				ISBN:          isbn,
				Format:        domain.Format(format),
				Status:        domain.Status(status),
				Genres:        genres,
				TotalPages:    pages,
				TotalChapters: chapters,
				TotalMinutes:  minutes,
				Rating:        rating,
				Price:         price,
				Owned:         owned,
			}

			if lookup {
				if result := lookupBook(cmd, title, author, isbn); result != nil {
					applyCandidate(book, result)
					fmt.Printf("Matched %q via %s\n", result.Title, result.Source)
				} else {
					fmt.Println("No catalog match, adding with the given fields.")
				}
			}

			created, err := tr.Add(cmd.Context(), book)
			if err != nil {
				return err
			}

			fmt.Printf("Added: %s by %s (ID: %s)\n", created.Title, created.Author, created.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "book title (required)")
	cmd.Flags().StringVarP(&author, "author", "a", "", "book author")
	cmd.Flags().StringVar(&isbn, "isbn", "", "ISBN")
	cmd.Flags().StringVarP(&format, "format", "f", "physical", "format (physical, ebook, audiobook)")
	cmd.Flags().StringVarP(&status, "status", "s", "want-to-read", "status (want-to-read, reading, read, paused, dnf)")
	cmd.Flags().StringSliceVarP(&genres, "genres", "g", nil, "comma-separated genres")
	cmd.Flags().IntVar(&pages, "pages", 0, "total pages")
	cmd.Flags().IntVar(&chapters, "chapters", 0, "total chapters")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "total minutes (audiobooks)")
	cmd.Flags().Float64VarP(&rating, "rating", "r", 0, "rating (0.5-5)")
	cmd.Flags().Float64Var(&price, "price", 0, "purchase price")
	cmd.Flags().BoolVar(&owned, "owned", false, "mark as owned")
	cmd.Flags().BoolVar(&lookup, "lookup", false, "fill in details from catalog APIs")
	cmd.MarkFlagRequired("title")
	return cmd
}

func listCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books in your collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			books := tr.List()
			shown := 0
			for _, b := range books {
				if status != "" && b.Status != domain.Status(status) {
					continue
				}
				printBookShort(b)
				shown++
			}
			if shown == 0 {
				fmt.Println("No books found.")
				return nil
			}
			fmt.Printf("\nTotal: %d books\n", shown)
			return nil
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "filter by status")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [book-id]",
		Short: "Show details of one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			b, err := tr.Get(args[0])
			if err != nil {
				return err
			}
			printBookFull(b)
			return nil
		},
	}
}

func updateCmd() *cobra.Command {
	var title, author, status, format, ownership string
	var rating, spice, progress, price float64
	var pages, chapters, minutes int
	var owned bool

	cmd := &cobra.Command{
		Use:   "update [book-id]",
		Short: "Update a book's details or status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			var patch tracker.BookPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("author") {
				patch.Author = &author
			}
			if flags.Changed("status") {
				s := domain.Status(status)
				patch.Status = &s
			}
			if flags.Changed("format") {
				f := domain.Format(format)
				patch.Format = &f
			}
			if flags.Changed("ownership") {
				o := domain.Ownership(ownership)
				patch.Ownership = &o
			}
			if flags.Changed("rating") {
				patch.Rating = &rating
			}
			if flags.Changed("spice") {
				patch.SpiceRating = &spice
			}
			if flags.Changed("progress") {
				patch.Progress = &progress
			}
			if flags.Changed("price") {
				patch.Price = &price
			}
			if flags.Changed("pages") {
				patch.TotalPages = &pages
			}
			if flags.Changed("chapters") {
				patch.TotalChapters = &chapters
			}
			if flags.Changed("minutes") {
				patch.TotalMinutes = &minutes
			}
			if flags.Changed("owned") {
				patch.Owned = &owned
			}

			b, err := tr.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			printBookFull(b)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "book title")
	cmd.Flags().StringVarP(&author, "author", "a", "", "book author")
	cmd.Flags().StringVarP(&status, "status", "s", "", "reading status")
	cmd.Flags().StringVarP(&format, "format", "f", "", "format")
	cmd.Flags().StringVar(&ownership, "ownership", "", "what happened to the copy (kept, sold)")
	cmd.Flags().Float64VarP(&rating, "rating", "r", 0, "rating (0.5-5)")
	cmd.Flags().Float64Var(&spice, "spice", 0, "spice rating")
	cmd.Flags().Float64VarP(&progress, "progress", "p", 0, "current position")
	cmd.Flags().Float64Var(&price, "price", 0, "purchase price")
	cmd.Flags().IntVar(&pages, "pages", 0, "total pages")
	cmd.Flags().IntVar(&chapters, "chapters", 0, "total chapters")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "total minutes")
	cmd.Flags().BoolVar(&owned, "owned", false, "mark as owned")
	return cmd
}

func logCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log [book-id] [position]",
		Short: "Log today's reading position",
		Long: `Log your current position in the book, in the unit of its tracking
mode (page, chapter or minute). Today's log entry is created or raised,
never lowered.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid position: %s", args[1])
			}

			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			b, err := tr.LogProgress(cmd.Context(), args[0], value)
			if err != nil {
				return err
			}

			fmt.Printf("%s: %s\n", b.Title, progressLine(b))
			return nil
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [book-id]...",
		Short: "Remove books from your collection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := tr.BulkDelete(cmd.Context(), args); err != nil {
				return err
			}
			fmt.Printf("Deleted %d books\n", len(args))
			return nil
		},
	}
}

func noteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Manage notes on a book",
	}

	var page int
	addNote := &cobra.Command{
		Use:   "add [book-id] [text]",
		Short: "Add a note to a book",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			note, err := tr.AddNote(cmd.Context(), args[0], strings.Join(args[1:], " "), page)
			if err != nil {
				return err
			}
			fmt.Printf("Added note %s\n", note.ID)
			return nil
		},
	}
	addNote.Flags().IntVarP(&page, "page", "p", 0, "page the note refers to")

	listNotes := &cobra.Command{
		Use:   "list [book-id]",
		Short: "List a book's notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			b, err := tr.Get(args[0])
			if err != nil {
				return err
			}
			if len(b.Notes) == 0 {
				fmt.Println("No notes.")
				return nil
			}
			for _, n := range b.Notes {
				fmt.Printf("%-12s %s", n.ID, n.Text)
				if n.Page > 0 {
					fmt.Printf(" (p. %d)", n.Page)
				}
				fmt.Println()
			}
			return nil
		},
	}

	deleteNote := &cobra.Command{
		Use:   "delete [book-id] [note-id]",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := tr.DeleteNote(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Println("Deleted.")
			return nil
		},
	}

	cmd.AddCommand(addNote, listNotes, deleteNote)
	return cmd
}

// timerState persists the running timer between CLI invocations.
type timerState struct {
	BookID    string    `json:"book_id"`
	StartedAt time.Time `json:"started_at"`
}

func timerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Run a reading timer",
	}
	cmd.AddCommand(timerStartCmd(), timerStopCmd(), timerStatusCmd())
	return cmd
}

func timerStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start [book-id]",
		Short: "Start the reading timer for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			timer, err := tr.StartTimer(args[0])
			if err != nil {
				return err
			}

			if prev, err := readTimerState(); err == nil && prev.BookID != args[0] {
				fmt.Printf("Discarded running timer for %s\n", prev.BookID)
			}
			if err := writeTimerState(timerState{BookID: timer.BookID, StartedAt: timer.StartedAt}); err != nil {
				return err
			}

			b, _ := tr.Get(args[0])
			fmt.Printf("Timer started for: %s\n", b.Title)
			return nil
		},
	}
}

func timerStopCmd() *cobra.Command {
	var progress float64
	var minutes int

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the timer and record the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := readTimerState()
			if err != nil {
				return fmt.Errorf("no timer is running")
			}

			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			// The timer slot lives in memory, so hand the persisted
			// session back to the engine before stopping it.
			if _, err := tr.StartTimer(state.BookID); err != nil {
				os.Remove(timerPath())
				return err
			}

			elapsed := minutes
			if !cmd.Flags().Changed("minutes") {
				elapsed = domain.ActiveTimer{StartedAt: state.StartedAt}.Elapsed(time.Now())
			}

			session, err := tr.StopTimer(cmd.Context(), state.BookID, elapsed, progress)
			if err != nil {
				return err
			}
			os.Remove(timerPath())

			b, _ := tr.Get(state.BookID)
			fmt.Printf("Read %d minutes of %s\n", session.Minutes, b.Title)
			if b != nil {
				fmt.Println(progressLine(b))
			}
			return nil
		},
	}

	cmd.Flags().Float64VarP(&progress, "progress", "p", 0, "position reached, in the book's tracking unit")
	cmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "override the measured minutes")
	return cmd
}

func timerStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := readTimerState()
			if err != nil {
				fmt.Println("No timer is running.")
				return nil
			}

			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			title := state.BookID
			if b, err := tr.Get(state.BookID); err == nil {
				title = b.Title
			}
			elapsed := domain.ActiveTimer{StartedAt: state.StartedAt}.Elapsed(time.Now())
			fmt.Printf("Reading %s for %d minutes\n", title, elapsed)
			return nil
		},
	}
}

func readTimerState() (timerState, error) {
	var state timerState
	data, err := os.ReadFile(timerPath())
	if err != nil {
		return state, err
	}
	err = json.Unmarshal(data, &state)
	return state, err
}

func writeTimerState(state timerState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return os.WriteFile(timerPath(), data, 0o644)
}

func goalCmd() *cobra.Command {
	var year, yearly, monthly int

	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Show or set your reading goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			flags := cmd.Flags()
			if flags.Changed("yearly") || flags.Changed("monthly") {
				goal := domain.ReadingGoal{Year: year, YearlyTarget: yearly, MonthlyTarget: monthly}
				if goal.Year == 0 {
					goal.Year = time.Now().Year()
				}
				if err := tr.SetGoal(cmd.Context(), goal); err != nil {
					return err
				}
			}

			goal := tr.Goal()
			if !goal.IsSet() {
				fmt.Println("No reading goal set. Use --yearly or --monthly to set one.")
				return nil
			}

			gp := stats.Goal(goal, tr.Collection(), time.Now())
			fmt.Printf("Goal for %d\n", gp.Year)
			if gp.YearlyTarget > 0 {
				fmt.Printf("  Year:  %d/%d finished", gp.YearlyFinished, gp.YearlyTarget)
				if gp.RemainingYearly > 0 {
					fmt.Printf(" (%d to go)", gp.RemainingYearly)
				}
				fmt.Println()
			}
			if gp.MonthlyTarget > 0 {
				fmt.Printf("  Month: %d/%d finished", gp.MonthlyFinished, gp.MonthlyTarget)
				if gp.RemainingMonthly > 0 {
					fmt.Printf(" (%d to go)", gp.RemainingMonthly)
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "goal year (default: current)")
	cmd.Flags().IntVar(&yearly, "yearly", 0, "books to finish this year")
	cmd.Flags().IntVar(&monthly, "monthly", 0, "books to finish each month")
	return cmd
}

func statsCmd() *cobra.Command {
	var year, month int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show reading statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			now := time.Now()
			if year == 0 {
				year = now.Year()
			}

			period := stats.YearPeriod(year)
			label := strconv.Itoa(year)
			if month > 0 {
				period = stats.MonthPeriod(year, time.Month(month))
				label = fmt.Sprintf("%s %d", time.Month(month), year)
			}

			books := tr.Collection()
			finished := stats.FinishedIn(books, period)

			pages := 0.0
			for _, b := range books {
				pages += stats.ProgressDelta(b, period)
			}

			fmt.Printf("Stats for %s\n", label)
			fmt.Printf("  Finished:     %d books\n", len(finished))
			fmt.Printf("  Added:        %d books\n", stats.AddedIn(books, period))
			fmt.Printf("  Progress:     %.0f pages/chapters/minutes\n", pages)
			fmt.Printf("  Timed:        %d minutes\n", stats.MinutesRead(books, period))
			fmt.Printf("  Spend:        %.2f\n", stats.Spend(books, period))
			fmt.Printf("  Streak:       %d days (longest %d)\n",
				stats.CurrentStreak(books, now), stats.LongestStreak(books))

			if worst := stats.WorstRated(books, period); worst != nil {
				fmt.Printf("  Worst rated:  %s (%.1f)\n", worst.Title, worst.Rating)
			}

			fmt.Println("  By status:")
			for status, count := range stats.CountByStatus(books) {
				fmt.Printf("    %-13s %d\n", status, count)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", 0, "year (default: current)")
	cmd.Flags().IntVarP(&month, "month", "m", 0, "month (1-12, default: whole year)")
	return cmd
}

func searchCmd() *cobra.Command {
	var statuses, formats, genres []string
	var limit int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Full-text search your collection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			params := search.DefaultSearchParams()
			params.Query = strings.Join(args, " ")
			params.Statuses = statuses
			params.Formats = formats
			params.Genres = genres
			params.Limit = limit

			result, err := tr.Search(cmd.Context(), params)
			if err != nil {
				return err
			}

			if result.Total == 0 {
				fmt.Println("No matching books found.")
				return nil
			}

			for _, hit := range result.Hits {
				fmt.Printf("[%.2f] %s by %s (ID: %s)\n", hit.Score, hit.Title, hit.Author, hit.ID)
			}
			fmt.Printf("\n%d matches in %dms\n", result.Total, result.TookMs)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "filter by status")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "filter by format")
	cmd.Flags().StringSliceVarP(&genres, "genre", "g", nil, "filter by genre")
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "max results")
	return cmd
}

func lookupCmd() *cobra.Command {
	var author, isbn, adopt string

	cmd := &cobra.Command{
		Use:   "lookup [title]",
		Short: "Look up book details in public catalogs",
		Long: `Search Open Library, falling back to Google Books, for a book's
details. With --adopt the matched details are merged into one of your
books and its cover is downloaded.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			if title == "" && isbn == "" {
				return fmt.Errorf("give a title or --isbn")
			}

			result := lookupBook(cmd, title, author, isbn)
			if result == nil {
				fmt.Println("No plausible match found.")
				return nil
			}

			fmt.Printf("Found via %s:\n", result.Source)
			fmt.Printf("  Title:     %s\n", result.Title)
			fmt.Printf("  Author:    %s\n", result.Author)
			if result.ISBN != "" {
				fmt.Printf("  ISBN:      %s\n", result.ISBN)
			}
			if result.Publisher != "" {
				fmt.Printf("  Publisher: %s (%s)\n", result.Publisher, result.PublishYear)
			}
			if result.Pages > 0 {
				fmt.Printf("  Pages:     %d\n", result.Pages)
			}
			if len(result.Genres) > 0 {
				fmt.Printf("  Genres:    %s\n", strings.Join(result.Genres, ", "))
			}

			if adopt == "" {
				return nil
			}

			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			patch := candidatePatch(result)
			if result.CoverURL != "" {
				cache, err := covers.NewCache(coversDir(), newLogger().Logger)
				if err == nil {
					if cover, err := cache.Fetch(cmd.Context(), adopt, result.CoverURL); err != nil {
						fmt.Printf("Cover download failed: %v\n", err)
					} else if cover.BlurHash != "" {
						patch.CoverBlurHash = &cover.BlurHash
					}
				}
			}

			b, err := tr.Update(cmd.Context(), adopt, patch)
			if err != nil {
				return err
			}
			fmt.Printf("Updated %s\n", b.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&author, "author", "a", "", "author to narrow the search")
	cmd.Flags().StringVar(&isbn, "isbn", "", "look up by ISBN instead")
	cmd.Flags().StringVar(&adopt, "adopt", "", "book ID to merge the result into")
	return cmd
}

// lookupBook runs the catalog waterfall. A nil result means no plausible
// match; lookup failures are already logged by the service.
func lookupBook(cmd *cobra.Command, title, author, isbn string) *metadata.LookupResult {
	log := newLogger()
	svc := metadata.NewService(log.Logger, true,
		openlibrary.NewClient(log.Logger),
		googlebooks.NewClient(log.Logger),
	)

	result, err := svc.Lookup(cmd.Context(), metadata.LookupQuery{
		Title:  title,
		Author: author,
		ISBN:   isbn,
	})
	if err != nil {
		return nil
	}
	return result
}

// applyCandidate fills empty book fields from a catalog hit. Fields the
// user gave explicitly win.
func applyCandidate(book *domain.Book, result *metadata.LookupResult) {
	if book.Author == "" {
		book.Author = result.Author
	}
	if book.ISBN == "" {
		book.ISBN = result.ISBN
	}
	book.Description = result.Description
	book.Publisher = result.Publisher
	book.PublishYear = result.PublishYear
	book.CoverURL = result.CoverURL
	if book.TotalPages == 0 {
		book.TotalPages = result.Pages
	}
	if len(book.Genres) == 0 {
		book.Genres = result.Genres
	}
}

// candidatePatch converts a catalog hit into a partial update.
func candidatePatch(result *metadata.LookupResult) tracker.BookPatch {
	patch := tracker.BookPatch{
		Description: &result.Description,
		Publisher:   &result.Publisher,
		PublishYear: &result.PublishYear,
	}
	if result.Author != "" {
		patch.Author = &result.Author
	}
	if result.ISBN != "" {
		patch.ISBN = &result.ISBN
	}
	if result.CoverURL != "" {
		patch.CoverURL = &result.CoverURL
	}
	if result.Pages > 0 {
		patch.TotalPages = &result.Pages
	}
	if len(result.Genres) > 0 {
		patch.Genres = &result.Genres
	}
	return patch
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export your collection to a JSON file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			path := "bookea-export.json"
			if len(args) > 0 {
				path = args[0]
			}

			data, err := tr.Export()
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}

			fmt.Printf("Exported %d books to %s\n", len(tr.List()), path)
			return nil
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Import books from an export file",
		Long: `Import a previously exported collection. Books whose title or ISBN
already exist are skipped. When signed in, the server copy is replaced
with the merged collection.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := tr.Import(cmd.Context(), data)
			if err != nil {
				return err
			}

			fmt.Printf("Imported: %d, duplicates skipped: %d\n", report.Imported, report.Duplicates)
			for _, e := range report.Errors {
				fmt.Printf("  error: %s\n", e)
			}
			return nil
		},
	}
}

func printBookShort(b *domain.Book) {
	fmt.Printf("%-14s %s by %s [%s]", b.ID, b.Title, b.Author, b.Status)
	if b.Rating > 0 {
		fmt.Printf(" %.1f★", b.Rating)
	}
	fmt.Println()
}

func printBookFull(b *domain.Book) {
	fmt.Printf("%s by %s\n", b.Title, b.Author)
	fmt.Printf("  ID:       %s\n", b.ID)
	fmt.Printf("  Status:   %s\n", b.Status)
	fmt.Printf("  Format:   %s\n", b.Format)
	if b.ISBN != "" {
		fmt.Printf("  ISBN:     %s\n", b.ISBN)
	}
	if b.Publisher != "" {
		fmt.Printf("  Publisher: %s (%s)\n", b.Publisher, b.PublishYear)
	}
	if len(b.Genres) > 0 {
		fmt.Printf("  Genres:   %s\n", strings.Join(b.Genres, ", "))
	}
	fmt.Printf("  Progress: %s\n", progressLine(b))
	if b.Rating > 0 {
		fmt.Printf("  Rating:   %.1f\n", b.Rating)
	}
	if b.TotalTimeRead > 0 {
		fmt.Printf("  Timed:    %d minutes\n", b.TotalTimeRead)
	}
	if len(b.ReadingLogs) > 0 {
		last := b.ReadingLogs[len(b.ReadingLogs)-1]
		fmt.Printf("  Last log: %s at %.0f\n", last.Date, last.Value)
	}
}

// progressLine renders position against total in the book's tracking unit.
func progressLine(b *domain.Book) string {
	unit := string(b.Mode())
	if total := b.TotalForMode(); total > 0 {
		return fmt.Sprintf("%.0f/%.0f %s (%.0f%%)", b.Progress, total, unit, 100*b.Progress/total)
	}
	return fmt.Sprintf("%.0f %s", b.Progress, unit)
}
