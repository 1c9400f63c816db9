package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/travellanka/listings-backend/internal/config"
	"github.com/travellanka/listings-backend/internal/database"
	"github.com/travellanka/listings-backend/internal/models"
	"github.com/travellanka/listings-backend/internal/services"
	"github.com/travellanka/listings-backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	var (
		email     string
		password  string
		firstName string
		lastName  string
	)
	flag.StringVar(&email, "email", os.Getenv("ADMIN_EMAIL"), "Admin email (defaults to ADMIN_EMAIL)")
	flag.StringVar(&password, "password", os.Getenv("ADMIN_PASSWORD"), "Admin password (defaults to ADMIN_PASSWORD, generated when empty)")
	flag.StringVar(&firstName, "first-name", "Travel Lanka", "Admin first name")
	flag.StringVar(&lastName, "last-name", "Admin", "Admin last name")
	flag.Parse()

	if email == "" {
		log.Fatal("admin email is required (-email or ADMIN_EMAIL)")
	}
	if !models.IsValidEmail(email) {
		log.Fatalf("invalid admin email: %s", email)
	}

	generated := false
	if password == "" {
		var err error
		password, err = utils.GeneratePassword(16)
		if err != nil {
			log.Fatalf("failed to generate password: %v", err)
		}
		generated = true
	}
	if len(password) < services.MinPasswordLength {
		log.Fatalf("password must be at least %d characters", services.MinPasswordLength)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cfg.Security.BcryptCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	accounts := database.NewAccountRepository(db)
	admin := &models.Account{
		FirstName:         firstName,
		LastName:          lastName,
		Email:             email,
		PasswordHash:      string(hash),
		Role:              models.RoleAdmin,
		HasCompletedSetup: true,
		IsActive:          true,
	}
	if err := accounts.Create(ctx, admin); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			log.Fatalf("an account with email %s already exists", email)
		}
		log.Fatalf("failed to create admin: %v", err)
	}

	fmt.Println("===========================================")
	fmt.Println("Admin account created")
	fmt.Println("===========================================")
	fmt.Printf("ID:    %s\n", admin.ID)
	fmt.Printf("Email: %s\n", admin.Email)
	if generated {
		fmt.Printf("Password: %s\n", password)
		fmt.Println()
		fmt.Println("⚠️  Store this password now, it is not shown again.")
	}
}
