// Command expire-invitations moves pending invitations past their deadline to expired.
// It is meant to run from cron next to the server.
package main

import (
	"context"
	"log"
	"time"

	"github.com/yukikurage/org-membership-api/internal/config"
	"github.com/yukikurage/org-membership-api/internal/database"
	"github.com/yukikurage/org-membership-api/internal/notify"
	"github.com/yukikurage/org-membership-api/internal/repository"
	"github.com/yukikurage/org-membership-api/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	invitations := services.NewInvitationService(repository.NewStore(db), notify.Noop{})
	count, err := invitations.ExpireStale(ctx, time.Now().UTC())
	if err != nil {
		log.Fatalf("Failed to expire invitations: %v", err)
	}

	log.Printf("Expired %d invitations", count)
}
