package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"storefront-backend/internal/config"
	"storefront-backend/internal/infrastructure/database"
	"storefront-backend/internal/infrastructure/migrate"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migrations instead of applying")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		log.Fatalf("❌ Invalid database config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := database.NewPostgresDB(dbConfig)
	if err := db.Connect(ctx); err != nil {
		log.Fatalf("❌ Failed to connect database: %v", err)
	}
	defer db.Close()

	if *down > 0 {
		if err := migrate.Rollback(ctx, db.Pool, *down); err != nil {
			log.Fatalf("❌ Rollback failed: %v", err)
		}
		log.Printf("✅ Rolled back %d migration(s)", *down)
		return
	}

	if err := migrate.Apply(ctx, db.Pool); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Migrations applied")
}
