// app is the command-line entry point. With arguments it runs one command and exits;
// without arguments it starts the interactive shell.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"

	"estimate-desk/internal/adapters/cli"
	"estimate-desk/internal/adapters/repl"
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
		log.Fatalf("Unable to open store: %v", err)
	}

	if len(os.Args) > 1 {
		err := cli.Execute(ctx, env.Service, os.Args[1:])
		env.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	defer env.Close()
	if cfg.OpenAIKey == "" {
		log.Println("Warning: OPENAI_API_KEY is not set, drafting is disabled")
	}
	repl.Run(ctx, env.Service, bufio.NewReader(os.Stdin))
}
