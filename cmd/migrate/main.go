// Command migrate runs schema operations for the backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"atelier/internal/bootstrap"
	"atelier/internal/config"
	"atelier/internal/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|status>")
}

func run() error {
	_ = godotenv.Load()
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.ApplySchema(ctx, rt.DB); err != nil {
			return fmt.Errorf("schema apply failed: %w", err)
		}
		created, err := bootstrap.EnsureContent(ctx, rt.DB)
		if err != nil {
			return fmt.Errorf("content init failed: %w", err)
		}
		log.Printf("schema applied (site content created=%t)", created)
	case "status":
		tables, err := database.SchemaStatus(ctx, rt.DB)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		missing := 0
		for _, t := range tables {
			state := "present"
			if !t.Exists {
				state = "missing"
				missing++
			}
			log.Printf("%-24s %s", t.Table, state)
		}
		log.Printf("tables=%d missing=%d", len(tables), missing)
	default:
		return usage()
	}
	return nil
}
