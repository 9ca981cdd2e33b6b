package main

import (
	"flag"
	"fmt"
	"log"

	"tennis-ledger-api/config"
	"tennis-ledger-api/packages/auth"
	"tennis-ledger-api/packages/auth/models"
)

func main() {
	subject := flag.String("sub", "operator", "token subject")
	role := flag.String("role", models.RoleAdmin, "token role")
	ttl := flag.Duration("ttl", 0, "token lifetime (default 12h)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	if !models.IsValidRole(*role) {
		log.Fatalf("Unknown role %q, expected one of %v", *role, models.GetAllRoles())
	}

	token, err := auth.NewModule(cfg.JWTSecret).GenerateToken(*subject, *role, *ttl)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}
