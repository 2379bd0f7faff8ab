package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"zone-alerts-vms/be/config"
	"zone-alerts-vms/be/database"
	"zone-alerts-vms/be/repository"
	"zone-alerts-vms/be/utils"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "new password (min 6 chars)")
	flag.Parse()

	if *email == "" || len(*password) < 6 {
		log.Fatal("-email and a -password of at least 6 characters are required")
	}

	// Load environment variables
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Initialize(cfg.Database, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)

	user, err := users.FindByEmail(ctx, *email)
	if err != nil {
		log.Fatalf("User not found: %v", err)
	}

	hashedPassword, err := utils.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	if err := users.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		log.Fatalf("Failed to update password: %v", err)
	}

	fmt.Printf("Password updated successfully for %s\n", user.Email)
}
