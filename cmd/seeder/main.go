package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/opencourt/rally/internal/booking"
	"github.com/opencourt/rally/internal/database"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := make(map[string]string)
	required := []string{"DB_NAME"}

	for _, key := range required {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		} else {
			log.Fatalf("Error: Required environment variable %s is not set.", key)
		}
	}
	config["TURSO_PRIMARY_URL"] = os.Getenv("TURSO_PRIMARY_URL")
	config["TURSO_AUTH_TOKEN"] = os.Getenv("TURSO_AUTH_TOKEN")
	return config
}

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()

	db, teardown, err := database.InitDB(cfg["DB_NAME"], cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"], "./migrations")
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	store := booking.New(db)
	ctx := context.Background()

	owners := []string{"user-1", "user-2", "user-3", "user-4"}
	slots := []string{"slot-18-19", "slot-19-20", "slot-20-21"}

	created := 0
	for day := 0; day < 3; day++ {
		date := time.Now().AddDate(0, 0, day+1).Format("2006-01-02")
		for i, slot := range slots {
			b := &booking.Booking{
				ID:        uuid.New().String(),
				OwnerID:   owners[(day+i)%len(owners)],
				FieldID:   fmt.Sprintf("field-%d", i+1),
				PlayDate:  date,
				SlotID:    slot,
				CreatedAt: time.Now(),
			}
			if err := store.CreateBooking(ctx, b); err != nil {
				log.Error("Failed to seed booking", "error", err, "date", date, "slot", slot)
				continue
			}
			created++
		}
	}

	log.Info("Seeding complete", "bookings", created)
}
