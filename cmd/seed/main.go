// Command seed populates the database with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"atelier/internal/bootstrap"
	"atelier/internal/config"
	"atelier/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	opts := seed.DefaultOptions
	flag.IntVar(&opts.Vendors, "vendors", opts.Vendors, "Number of vendors to create")
	flag.IntVar(&opts.Users, "users", opts.Users, "Number of shoppers to create")
	flag.IntVar(&opts.ProductsPerVendor, "products", opts.ProductsPerVendor, "Approved products per vendor")
	flag.IntVar(&opts.PendingPerVendor, "pending", opts.PendingPerVendor, "Pending submissions per vendor")
	flag.IntVar(&opts.CommentsPerUser, "comments", opts.CommentsPerUser, "Comments per shopper")
	flag.BoolVar(&opts.Clean, "clean", opts.Clean, "Remove previous demo data first")
	flag.Int64Var(&opts.RandomSeed, "seed", 0, "Random seed for reproducible data (0 for random)")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ApplySchema: true, EnsureAdmin: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close(ctx)

	summary, err := seed.NewSeeder(rt.DB, opts).Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d vendors, %d users, %d products, %d pending submissions",
		summary.Vendors, summary.Users, summary.Products, summary.Submissions)
	log.Printf("All demo accounts use the password: %s", seed.DemoPassword)
}
