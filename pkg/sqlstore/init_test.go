package sqlstore

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env so integration tests can reach a real database. Unit
	// tests in this package run against sqlmock and don't need it.
	paths := []string{
		"../../.env",
		"../.env",
		".env",
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err == nil {
				log.Printf("Loaded .env from %s for tests", p)
				return
			}
		}
	}
}
