package main

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pointsdesk/pointsdesk-golang/internal/database"
	"github.com/pointsdesk/pointsdesk-golang/internal/handlers"
	"github.com/pointsdesk/pointsdesk-golang/internal/routes"
)

func main() {
	// 1. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	// 2. --- Database Connection ---
	db, err := database.Open()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// SQLite runs the schema on startup; MySQL schemas are managed
	// out of band but this is a no-op when the tables already exist.
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "mysql"
	}
	if err := database.EnsureSchema(db, driver); err != nil {
		log.Fatalf("Failed to apply database schema: %v", err)
	}

	// 3. --- Application Setup ---
	app := &handlers.Handlers{DB: db}

	// 4. --- Background Worker ---
	// Sweeps timed bans whose unban date has passed, so accounts come
	// back without waiting for their next login attempt.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		log.Println("Background worker started: monitoring for expired bans...")

		for range ticker.C {
			app.SweepExpiredBans()
		}
	}()

	// 5. --- Router Setup ---
	router := routes.SetupRouter(app)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	log.Printf("Starting server on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
