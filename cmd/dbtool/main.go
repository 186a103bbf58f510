package main

import (
	"context"
	"fleet-route-optimizer/internal/adapters/repositories"
	"fleet-route-optimizer/internal/config"
	"fleet-route-optimizer/internal/platform/db"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	seedPath := config.Get("SEED_PATH", "data/seeds/scenarios.yaml")
	log.Printf("Seeding scenarios from %s...", seedPath)
	n, err := repositories.SeedScenariosFromYAML(ctx, repositories.NewPostgresScenarioRepository(conn), seedPath)
	if err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Printf("Seeding complete. inserted=%d", n)
}
