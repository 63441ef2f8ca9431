package main

import (
	"log"
	"os"

	"github.com/rawblock/isospec-engine/internal/api"
	"github.com/rawblock/isospec-engine/internal/db"
	"github.com/rawblock/isospec-engine/internal/elements"
)

func main() {
	log.Println("Starting RawBlock Isotope Engine (Microservice: isospec-fine-structure)...")
	log.Printf("Isotope table loaded: %d elements", len(elements.Symbols()))

	// ─── Environment Variables ──────────────────────────────────────────
	// DATABASE_URL is optional: without it the engine serves computations
	// but keeps no job history. Use a .env file for local development.
	// ────────────────────────────────────────────────────────────────────

	var dbConn *db.PostgresStore
	if dbUrl := os.Getenv("DATABASE_URL"); dbUrl != "" {
		conn, err := db.Connect(dbUrl)
		if err != nil {
			log.Printf("Warning: Failed to connect to PostgreSQL, continuing without job history. Error: %v", err)
		} else {
			dbConn = conn
			defer dbConn.Close()
			if err := dbConn.InitSchema(); err != nil {
				log.Printf("Warning: DB schema init failed: %v", err)
			}
		}
	} else {
		log.Println("DATABASE_URL not set — engine running without job history")
	}

	// Setup WebSocket Hub for job lifecycle events
	wsHub := api.NewHub()
	go wsHub.Run()

	// Setup the Gin Router
	r := api.SetupRouter(dbConn, wsHub)

	port := getEnvOrDefault("PORT", "5339")

	// Start the server
	log.Printf("Engine running on :%s (API Node: isospec-fine-structure)\n", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// getEnvOrDefault returns the env var value or a safe default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
