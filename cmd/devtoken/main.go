// Command devtoken mints an access token signed with JWT_SECRET_KEY for local
// testing against the API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/moyuu-az/attendance-system/internal/config"
	"github.com/moyuu-az/attendance-system/internal/pkg/jwt"
)

func main() {
	userID := flag.String("user", "", "user id to put in the token")
	admin := flag.Bool("admin", false, "mint an admin token")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: devtoken -user <id> [-admin]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	svc, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating token service:", err)
		os.Exit(1)
	}

	token, expiresAt, err := svc.GenerateAccessToken(*userID, *admin)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error generating token:", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "expires at %s\n", time.Unix(expiresAt, 0).Format(time.RFC3339))
	fmt.Println(token)
}
