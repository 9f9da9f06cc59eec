package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	dbfs "github.com/garnizeh/jobtrack/db"
	"github.com/garnizeh/jobtrack/internal/config"
	"github.com/garnizeh/jobtrack/internal/credentials"
	"github.com/garnizeh/jobtrack/internal/db"
	"github.com/garnizeh/jobtrack/internal/repository/sqlite"
)

const devAdminPassword = "admin123"

func main() {
	var (
		adminUser     = flag.String("admin", "admin", "Username of the seeded account (empty to skip seeding)")
		adminPassword = flag.String("admin-password", os.Getenv("JOBTRACK_ADMIN_PASSWORD"), "Password of the seeded account")
	)
	flag.Parse()

	ctx := context.Background()
	if err := config.LoadDotEnv(""); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	database, err := db.New(ctx, cfg.DatabasePath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
		fmt.Fprintf(os.Stderr, "Migration runner error: %v\n", err)
		os.Exit(1)
	}

	if *adminUser != "" {
		password := *adminPassword
		if password == "" {
			if !config.IsDevelopment() {
				fmt.Fprintln(os.Stderr, "Seed error: set -admin-password or JOBTRACK_ADMIN_PASSWORD (the default is only used with JOBTRACK_ENV=development)")
				os.Exit(1)
			}
			password = devAdminPassword
		}

		creds := credentials.NewService(sqlite.New(database, nil), cfg.BcryptCost, nil)
		created, err := creds.EnsureUser(ctx, *adminUser, password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Seed error: %v\n", err)
			os.Exit(1)
		}
		if created {
			fmt.Printf("Created user %q.\n", *adminUser)
		} else {
			fmt.Printf("User %q already exists.\n", *adminUser)
		}
	}

	fmt.Println("Database initialized successfully.")
}
