package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"estimate-desk/internal/ai"
	"estimate-desk/internal/bootstrap"
	"estimate-desk/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // Load .env if present

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY not set")
	}

	// In-memory store: the draft must come back validated without touching real data.
	svc := bootstrap.NewService(store.New(store.NewMemoryBackend()), ai.NewAgent(apiKey), nil)
	ctx := context.Background()

	job := "Tear out 40 feet of rotten cedar fence, set two new posts, rebuild it and stain both sides."

	fmt.Printf("DRAFTING: %s\n", job)
	result, err := svc.DraftLineItems(ctx, job)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	fmt.Printf("\n--- DRAFT ---\n")
	fmt.Printf("Confidence: %.2f\n", result.Confidence)
	fmt.Printf("Reasoning: %s\n", result.Reasoning)

	fmt.Printf("\nItems:\n")
	for _, item := range result.Items {
		fmt.Printf("- %s: %s %s @ %s (taxable: %t)\n", item.Description, item.Quantity, item.Unit, item.UnitPrice.StringFixed(2), item.Taxable)
	}
	for _, r := range result.Rejected {
		fmt.Printf("- rejected %q: %s\n", r.Description, r.Reason)
	}
	if len(result.Items) == 0 {
		os.Exit(1)
	}
}
