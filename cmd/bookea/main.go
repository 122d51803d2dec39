// Package main provides bookea, the command-line reading tracker.
//
// The collection lives in a local snapshot file and works fully offline.
// After signing in against a BookeaReads server every change is mirrored
// there in the background, and books added offline can be pushed up with
// the sync command.
package main

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lilizblack/bookeareads-server/internal/importwatch"
	"github.com/lilizblack/bookeareads-server/internal/logger"
	"github.com/lilizblack/bookeareads-server/internal/remote"
	"github.com/lilizblack/bookeareads-server/internal/search"
	"github.com/lilizblack/bookeareads-server/internal/tracker"
)

var (
	dataDir   string
	serverURL string
	verbose   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bookea",
		Short: "Bookea - your personal reading tracker",
		Long: `Bookea tracks what you read: your collection, daily progress,
reading timers, goals and stats. Works offline; sign in against a
BookeaReads server to keep devices in sync.`,
	}

	homeDir, _ := os.UserHomeDir()
	defaultData := filepath.Join(homeDir, ".bookea")

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", defaultData, "data directory")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "sync server URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(
		registerCmd(),
		loginCmd(),
		logoutCmd(),
		addCmd(),
		listCmd(),
		showCmd(),
		updateCmd(),
		logCmd(),
		noteCmd(),
		deleteCmd(),
		timerCmd(),
		goalCmd(),
		statsCmd(),
		searchCmd(),
		lookupCmd(),
		exportCmd(),
		importCmd(),
		syncCmd(),
		watchCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger() *logger.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return logger.New(logger.Config{
		Writer: os.Stderr,
		Level:  level,
	})
}

func credentialsPath() string { return filepath.Join(dataDir, "credentials.json") }
func snapshotPath() string    { return filepath.Join(dataDir, "library.json") }
func timerPath() string       { return filepath.Join(dataDir, "timer.json") }
func coversDir() string       { return filepath.Join(dataDir, "covers") }

// loadClient builds the server client, restoring any saved session.
// The second return value persists the (possibly rotated) tokens and
// must be called before exit when the client was used.
func loadClient(log *logger.Logger) (*remote.Client, func()) {
	client := remote.NewClient(serverURL, log.Logger)

	if data, err := os.ReadFile(credentialsPath()); err == nil {
		var creds remote.Credentials
		if err := json.Unmarshal(data, &creds); err == nil {
			client.SetCredentials(creds)
		}
	}

	save := func() {
		creds := client.Credentials()
		if creds.SessionID == "" {
			os.Remove(credentialsPath())
			return
		}
		data, err := json.Marshal(creds)
		if err != nil {
			return
		}
		if err := os.WriteFile(credentialsPath(), data, 0o600); err != nil {
			log.Warn("failed to save credentials", "error", err)
		}
	}
	return client, save
}

// initTracker opens the local collection. With a saved session the server
// becomes the source of truth and every change is mirrored to it.
func initTracker(ctx context.Context) (*tracker.Tracker, func(), error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}

	log := newLogger()
	client, saveCreds := loadClient(log)

	opts := tracker.Options{
		SnapshotPath: snapshotPath(),
		Logger:       log.Logger,
	}
	if client.HasSession() {
		opts.Remote = client
	}

	index, err := search.NewSearchIndex(search.Options{
		DataPath: filepath.Join(dataDir, "search"),
		Logger:   log.Logger,
	})
	if err != nil {
		log.Warn("search index unavailable", "error", err)
	} else {
		opts.Index = index
	}

	tr := tracker.New(opts)
	if err := tr.Load(ctx); err != nil {
		if index != nil {
			index.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		tr.Close()
		for _, f := range tr.MirrorFailures() {
			log.Warn("change not mirrored to server", "kind", f.Kind, "error", f.Error)
		}
		if index != nil {
			index.Close()
		}
		saveCreds()
	}
	return tr, cleanup, nil
}

func registerCmd() *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the sync server",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			client, saveCreds := loadClient(log)
			defer saveCreds()

			account, err := client.Register(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}

			fmt.Printf("Registered as %s\n", account.Email)
			if account.IsRoot {
				fmt.Println("This is the server's root account.")
			}
			return pushLocalBooks(cmd.Context(), client)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "email address (required)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (required)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the sync server",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			client, saveCreds := loadClient(log)
			defer saveCreds()

			hostname, _ := os.Hostname()
			account, err := client.Login(cmd.Context(), email, password, hostname)
			if err != nil {
				return err
			}

			fmt.Printf("Signed in as %s\n", account.Email)
			return pushLocalBooks(cmd.Context(), client)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "email address (required)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (required)")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

// pushLocalBooks offers offline-created books to the freshly signed-in
// account. Errors are reported but do not fail the sign-in.
func pushLocalBooks(ctx context.Context, client *remote.Client) error {
	tr := tracker.New(tracker.Options{
		SnapshotPath: snapshotPath(),
		Remote:       client,
		Logger:       newLogger().Logger,
	})
	defer tr.Close()

	if err := tr.LoadSnapshot(); err != nil {
		return err
	}

	report, err := tr.SyncLocalToCloud(ctx)
	if err != nil {
		fmt.Printf("Local books not pushed yet: %v\n", err)
		return nil
	}
	if report.Synced > 0 || report.Skipped > 0 {
		fmt.Printf("Pushed %d local books (%d already on the server)\n", report.Synced, report.Skipped)
	}
	return nil
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			client, saveCreds := loadClient(log)
			defer saveCreds()

			if !client.HasSession() {
				fmt.Println("Not signed in.")
				return nil
			}
			if err := client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Signed out.")
			return nil
		},
	}
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push offline-created books to the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := tr.SyncLocalToCloud(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Synced: %d, skipped: %d\n", report.Synced, report.Skipped)
			for _, e := range report.Errors {
				fmt.Printf("  error: %s\n", e)
			}
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a directory and import export files dropped into it",
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, cleanup, err := initTracker(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			log := newLogger()
			w, err := importwatch.New(tr, log.Logger, importwatch.Options{Dir: dir})
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			fmt.Printf("Watching %s (Ctrl-C to stop)\n", dir)
			return w.Start(ctx)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "directory to watch (required)")
	cmd.MarkFlagRequired("dir")
	return cmd
}
