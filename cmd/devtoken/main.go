// Command devtoken mints an access token for local testing.  It signs with
// JWT_SECRET from the environment or .env, the same secret the server
// verifies with.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/venue-seat-layout/internal/config"
	"github.com/iliyamo/venue-seat-layout/internal/middleware"
	"github.com/iliyamo/venue-seat-layout/internal/utils"
)

func main() {
	subject := flag.String("sub", "designer@example.com", "token subject, recorded as last editor on save")
	role := flag.String("role", middleware.RoleDesigner, "DESIGNER or OWNER")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to ACCESS_TOKEN_TTL_MIN")
	flag.Parse()

	cfg := config.LoadAuth()
	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = time.Duration(cfg.AccessTTLMin) * time.Minute
	}
	r := strings.ToUpper(*role)
	if r != middleware.RoleDesigner && r != middleware.RoleOwner {
		log.Fatalf("devtoken: unknown role %q", *role)
	}
	tok, err := utils.NewAccessToken(cfg.JWTSecret, *subject, r, lifetime)
	if err != nil {
		log.Fatalf("devtoken: %v", err)
	}
	fmt.Println(tok.Token)
	log.Printf("devtoken: %s as %s, expires %s", *subject, r, tok.Exp.Format(time.RFC3339))
}
