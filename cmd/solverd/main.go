package main

import (
	"context"
	"log"
	"os"

	"github.com/rawblock/tametsi-solver/internal/api"
	"github.com/rawblock/tametsi-solver/internal/db"
	"github.com/rawblock/tametsi-solver/internal/driver"
)

func main() {
	log.Println("Starting Tametsi Solver Engine...")

	puzzleDir := requireEnv("PUZZLE_DIR")

	var dbConn *db.PostgresStore
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		conn, err := db.Connect(dbURL)
		if err != nil {
			log.Printf("Warning: Failed to connect to PostgreSQL, continuing without persisting run history. Error: %v", err)
		} else {
			dbConn = conn
			defer dbConn.Close()
			if err := dbConn.InitSchema(); err != nil {
				log.Printf("Warning: DB schema init failed: %v", err)
			}
		}
	} else {
		log.Println("DATABASE_URL not set — running without run history persistence")
	}

	wsHub := api.NewHub()
	go wsHub.Run()

	var recorder driver.Recorder
	if dbConn != nil {
		recorder = dbConn
	}
	d := driver.New(puzzleDir, wsHub, recorder)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	r := api.SetupRouter(d, wsHub)

	port := getEnvOrDefault("PORT", "5339")
	log.Printf("Solver engine running on :%s (catalog: %s)\n", port, puzzleDir)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// requireEnv reads a required environment variable and exits if it is not set.
func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set. "+
			"Set it in the environment before starting the service.", key)
	}
	return val
}

// getEnvOrDefault returns the env var value or a safe default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
