package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/garnizeh/jobtrack/internal/config"
	"github.com/garnizeh/jobtrack/internal/db"
)

func main() {
	out := flag.String("out", "", "Backup file to write (default <database_path>.<timestamp>.bak)")
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
	src := cfg.DatabasePath
	dst := *out
	if dst == "" {
		dst = src + "." + time.Now().UTC().Format("20060102T150405Z") + ".bak"
	}

	if _, err := os.Stat(src); err != nil {
		fmt.Fprintf(os.Stderr, "Backup error: %v\n", err)
		os.Exit(1)
	}
	database, err := db.New(ctx, src, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Backup error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	// VACUUM INTO writes a consistent snapshot even while the server is running.
	if _, err := database.Exec(ctx, `VACUUM INTO ?`, dst); err != nil {
		fmt.Fprintf(os.Stderr, "Backup error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Database backup written to %s.\n", dst)
}
