package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/lilizblack/bookeareads-server/internal/domain"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/bookeareads/db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	userCount := 0
	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("user:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte("user:")); it.ValidForPrefix([]byte("user:")); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// Skip index keys
			if strings.HasPrefix(key, "user:idx:") {
				continue
			}

			err := item.Value(func(val []byte) error {
				var user domain.User
				if err := json.Unmarshal(val, &user); err != nil {
					return err
				}
				userCount++

				books, sessions := countPrefix(txn, "book:"+user.ID+":"), countPrefix(txn, "session:"+user.ID+":")

				fmt.Printf("User: %s\n", user.Email)
				fmt.Printf("  ID: %s\n", user.ID)
				fmt.Printf("  Root: %v\n", user.IsRoot)
				fmt.Printf("  Books: %d\n", books)
				fmt.Printf("  Sessions: %d\n", sessions)

				if hasKey(txn, "goal:"+user.ID) {
					fmt.Println("  Goal: set")
				}
				fmt.Println()
				return nil
			})
			if err != nil {
				log.Printf("Error reading user %s: %v", key, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Total users: %d\n", userCount)
}

// countPrefix counts data keys under a prefix, skipping secondary indexes.
func countPrefix(txn *badger.Txn, prefix string) int {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
		key := string(it.Item().Key())
		if strings.HasPrefix(key[len(prefix):], "idx:") {
			continue
		}
		n++
	}
	return n
}

func hasKey(txn *badger.Txn, key string) bool {
	_, err := txn.Get([]byte(key))
	return err == nil
}
