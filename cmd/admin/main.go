// Command admin provides account management utilities for operators.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"atelier/internal/bootstrap"
	"atelier/internal/config"
	"atelier/internal/models"
	"atelier/internal/repository"

	"github.com/joho/godotenv"
)

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin create-admin <email> <password> [name]  - Create an admin account")
	fmt.Println("  go run ./cmd/admin disable <email>                         - Disable an account and revoke its sessions")
	fmt.Println("  go run ./cmd/admin revoke-sessions <email>                 - Invalidate every token of an account")
	fmt.Println("  go run ./cmd/admin list-admins                             - List all admins")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close(ctx)

	accounts := repository.NewAccountRepository(rt.DB)

	switch command := os.Args[1]; command {
	case "create-admin":
		if len(os.Args) < 4 {
			printUsage()
			os.Exit(1)
		}
		name := "Administrator"
		if len(os.Args) > 4 {
			name = os.Args[4]
		}
		acc, err := bootstrap.Accounts(rt.DB).CreateAccount(ctx, name, os.Args[2], os.Args[3], models.RoleAdmin)
		if err != nil {
			log.Fatalf("Failed to create admin: %v", err)
		}
		fmt.Printf("Created admin %s (ID: %d)\n", acc.Email, acc.ID)

	case "disable":
		acc := mustFind(ctx, accounts, os.Args)
		if acc.Status == models.AccountStatusDisabled {
			fmt.Printf("Account %s (ID: %d) is already disabled\n", acc.Email, acc.ID)
			return
		}
		acc.Status = models.AccountStatusDisabled
		acc.SessionVersion++
		if err := accounts.Update(ctx, acc); err != nil {
			log.Fatalf("Failed to disable account: %v", err)
		}
		fmt.Printf("Disabled %s (ID: %d)\n", acc.Email, acc.ID)

	case "revoke-sessions":
		acc := mustFind(ctx, accounts, os.Args)
		if err := accounts.BumpSessionVersion(ctx, acc.ID); err != nil {
			log.Fatalf("Failed to revoke sessions: %v", err)
		}
		fmt.Printf("Revoked all sessions of %s (ID: %d)\n", acc.Email, acc.ID)

	case "list-admins":
		admins, _, err := accounts.List(ctx, repository.AccountFilter{Role: models.RoleAdmin, Sort: "created_at"})
		if err != nil {
			log.Fatalf("Failed to fetch admins: %v", err)
		}
		if len(admins) == 0 {
			fmt.Println("No admins found in the system")
			return
		}
		fmt.Println("Current admins:")
		for _, admin := range admins {
			fmt.Printf("ID: %d | Name: %s | Email: %s | Status: %s\n", admin.ID, admin.Name, admin.Email, admin.Status)
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func mustFind(ctx context.Context, accounts repository.AccountRepository, args []string) *models.Account {
	if len(args) < 3 {
		printUsage()
		os.Exit(1)
	}
	acc, err := accounts.GetByEmail(ctx, args[2])
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	if acc == nil {
		fmt.Printf("No account with email %s\n", args[2])
		os.Exit(1)
	}
	return acc
}
