package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// LoadEnv loads variables from a .env file if present. Real deployments set
// environment variables directly, so a missing file is not an error.
func LoadEnv() {
	loadOnce.Do(func() {
		if _, err := os.Stat(".env"); err == nil {
			if err := godotenv.Load(); err != nil {
				log.Printf("Error loading .env file: %v", err)
			}
		}
	})
}
