package main

import (
	"context"
	"log"
	"net/http"

	webAdapter "estimate-desk/internal/adapters/web"
	"estimate-desk/internal/bootstrap"
	"estimate-desk/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	env, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer env.Close()

	if cfg.OpenAIKey == "" {
		log.Println("Warning: OPENAI_API_KEY is not set, /api/draft will return 503")
	}

	handler := webAdapter.NewHandler(env.Service, cfg.AllowedOrigins)

	log.Printf("server starting on :%s (store: %s)", cfg.ServerPort, cfg.StoreDriver)
	if err := http.ListenAndServe(":"+cfg.ServerPort, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
