package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"zone-alerts-vms/be/config"
	"zone-alerts-vms/be/database"
	"zone-alerts-vms/be/models"
	"zone-alerts-vms/be/repository"
	"zone-alerts-vms/be/utils"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Creates an account from the command line, e.g. for a first operator:
//
//	go run ./scripts/create_user -email ops@example.com -password secret1 -name Ops -lastname Team
func main() {
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password (min 6 chars)")
	name := flag.String("name", "Admin", "first name")
	lastname := flag.String("lastname", "User", "last name")
	flag.Parse()

	if *email == "" || len(*password) < 6 {
		log.Fatal("-email and a -password of at least 6 characters are required")
	}

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Initialize(cfg.Database, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	hash, err := utils.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{Name: *name, Lastname: *lastname, Email: *email, Password: hash}
	err = repository.NewUserRepository(db).Create(context.Background(), user)
	if errors.Is(err, repository.ErrEmailTaken) {
		log.Fatalf("User %s already exists", *email)
	}
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("User created: id=%d email=%s\n", user.ID, user.Email)
}
