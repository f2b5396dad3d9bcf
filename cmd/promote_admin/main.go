package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/pushp314/chatbridge-backend/internal/config"
	"github.com/pushp314/chatbridge-backend/internal/database"
	"github.com/pushp314/chatbridge-backend/internal/models"
	"github.com/pushp314/chatbridge-backend/internal/store"
)

func main() {
	contact := flag.String("contact", "", "email of the user to promote")
	flag.Parse()
	if *contact == "" {
		log.Fatal("usage: promote_admin -contact user@example.com")
	}

	config.LoadConfig()
	db, err := database.Connect(config.AppConfig)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	ctx := context.Background()
	users := store.NewUserStore(db)

	user, err := users.GetByContact(ctx, *contact)
	if err != nil {
		log.Fatalf("User %s not found: %v", *contact, err)
	}
	if user.Source != models.SourceLocal {
		log.Fatalf("User %s is an external contact and cannot be promoted", *contact)
	}

	if err := users.UpdateRole(ctx, user.ID, models.RoleAdmin); err != nil {
		log.Fatalf("Failed to update user role: %v", err)
	}

	fmt.Printf("Successfully promoted %s (%s) to admin.\n", user.Name, user.Contact)
}
