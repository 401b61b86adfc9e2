// verify-db reports inconsistencies in the configured store: conversions left
// half-written, cached totals that no longer match their items, and counters that
// fell behind issued numbers. It exits non-zero when a severe issue is found.
//
// Usage: go run ./cmd/verify-db
package main

import (
	"context"
	"log"
	"os"

	"estimate-desk/internal/bootstrap"
	"estimate-desk/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}

	ctx := context.Background()
	env, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("[CONNECT] %v", err)
	}
	defer env.Close()
	log.Printf("[CONNECT] %s store", cfg.StoreDriver)

	result, err := env.Service.CheckConsistency(ctx)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	for _, issue := range result.Issues {
		tag := "[WARN]"
		if issue.Severe() {
			tag = "[SEVERE]"
		}
		log.Printf("%s %s", tag, issue)
	}

	if result.Severe > 0 {
		log.Printf("[DONE] %d issue(s), %d severe", len(result.Issues), result.Severe)
		env.Close()
		os.Exit(1)
	}
	log.Printf("[DONE] %d issue(s), none severe", len(result.Issues))
}
