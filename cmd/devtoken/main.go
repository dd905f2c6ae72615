// Package main provides a tool to mint an access token for local development.
//
// The token is sealed with the server's key file, so the server must share the
// same data path (or AUTH_KEY_PATH).
//
// Usage:
//
//	go run ./cmd/devtoken -user alice
//	REELNOTES_TOKEN=$(go run ./cmd/devtoken -user alice) reelctl list
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"

	"github.com/reelnotes/reelnotes-server/internal/auth"
	"github.com/reelnotes/reelnotes-server/internal/config"
)

var (
	userID = flag.String("user", "", "User id to put in the token (required)")
	ttl    = flag.Duration("ttl", 0, "Token lifetime (default: ACCESS_TOKEN_DURATION)")
)

func main() {
	flag.Parse()

	if *userID == "" {
		log.Fatal("-user is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	key, err := auth.LoadOrGenerateKey(cfg.Auth.KeyPath)
	if err != nil {
		log.Fatalf("Failed to load auth key: %v", err)
	}

	duration := cfg.Auth.AccessTokenDuration
	if *ttl > 0 {
		duration = *ttl
	}

	tokens, err := auth.NewTokenService(hex.EncodeToString(key), duration)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	token, err := tokens.GenerateAccessToken(*userID)
	if err != nil {
		log.Fatalf("Failed to mint token: %v", err)
	}

	fmt.Println(token)
}
