// Command devtoken mints an access token for an existing user so the API can
// be exercised locally.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/remnika/wallet/internal/auth"
	"github.com/remnika/wallet/internal/config"
	"github.com/remnika/wallet/internal/identity"
	"github.com/remnika/wallet/internal/infra"
)

func main() {
	userID := flag.String("user", "", "user id to issue the token for (required)")
	flag.Parse()

	if err := run(*userID); err != nil {
		fmt.Fprintf(os.Stderr, "devtoken: %v\n", err)
		os.Exit(1)
	}
}

func run(userID string) error {
	if userID == "" {
		return fmt.Errorf("-user is required")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	ctx := context.Background()
	db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := identity.NewPostgresRepository(db).FindByID(ctx, userID)
	if err != nil {
		return err
	}
	token, err := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL).Issue(user)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
