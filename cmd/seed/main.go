// cmd/seed/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront/internal/pkg/auth"
	"github.com/your-org/storefront/internal/pkg/logger"
)

func main() {
	var (
		categories = flag.Bool("categories", false, "seed the default categories")
		products   = flag.Bool("products", false, "seed the default products (seeds categories first)")
		users      = flag.Bool("users", false, "seed the admin and demo accounts")
		dedupe     = flag.Bool("cleanup-duplicates", false, "remove accounts that share an email, keeping the oldest")
		hash       = flag.String("hash-password", "", "print a bcrypt hash for the given password and exit")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg.Logging)
	passwords := auth.NewPasswordManager(cfg)

	if *hash != "" {
		hashed, err := passwords.HashPassword(*hash)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		if err := passwords.VerifyPassword(*hash, hashed); err != nil {
			log.Fatalf("Hash verification failed: %v", err)
		}
		fmt.Println(hashed)
		return
	}

	if !*categories && !*products && !*users && !*dedupe {
		*categories, *products, *users = true, true, true
	}

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	migration := postgres.NewMigration(db.GetDB(), log)
	if err := migration.RunAutoMigrations(ctx); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	if *categories || *products {
		n, err := migration.SeedCategories(ctx, postgres.DefaultCategories)
		if err != nil {
			log.Fatalf("Seeding categories failed: %v", err)
		}
		fmt.Printf("categories created: %d\n", n)
	}
	if *products {
		n, err := migration.SeedProducts(ctx, postgres.DefaultProducts)
		if err != nil {
			log.Fatalf("Seeding products failed: %v", err)
		}
		fmt.Printf("products created: %d\n", n)
	}
	if *users {
		n, err := migration.SeedUsers(ctx, postgres.DefaultUsers, passwords)
		if err != nil {
			log.Fatalf("Seeding users failed: %v", err)
		}
		fmt.Printf("users created: %d\n", n)
	}
	if *dedupe {
		n, err := user.NewService(db.GetDB(), cfg, log).CleanupDuplicateEmails(ctx)
		if err != nil {
			log.Fatalf("Duplicate cleanup failed: %v", err)
		}
		fmt.Printf("duplicate accounts removed: %d\n", n)
	}

	counts, err := migration.TableCounts(ctx)
	if err != nil {
		log.Fatalf("Failed to count rows: %v", err)
	}
	tables := make([]string, 0, len(counts))
	for name := range counts {
		tables = append(tables, name)
	}
	sort.Strings(tables)
	for _, name := range tables {
		fmt.Printf("%-20s %d\n", name, counts[name])
	}
}
