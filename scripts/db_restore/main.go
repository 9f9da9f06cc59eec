package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/garnizeh/jobtrack/internal/config"
	"github.com/garnizeh/jobtrack/internal/db"
)

func main() {
	from := flag.String("from", "", "Backup file to restore (required)")
	flag.Parse()
	if *from == "" {
		fmt.Fprintln(os.Stderr, "Restore error: -from is required")
		os.Exit(1)
	}

	if err := config.LoadDotEnv(""); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := checkBackup(*from); err != nil {
		fmt.Fprintf(os.Stderr, "Restore error: %v\n", err)
		os.Exit(1)
	}
	if err := restore(*from, cfg.DatabasePath); err != nil {
		fmt.Fprintf(os.Stderr, "Restore error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Database restore completed.")
}

// checkBackup refuses files that are not a healthy SQLite database.
func checkBackup(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	ctx := context.Background()
	database, err := db.New(ctx, "file:"+path+"?mode=ro", nil)
	if err != nil {
		return err
	}
	defer database.Close()

	var result string
	if err := database.QueryRow(ctx, `PRAGMA integrity_check`).Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// restore copies src next to dst and renames it into place so a failed copy
// never leaves a truncated database behind.
func restore(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	tmp := dst + ".restore"
	dstFile, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		os.Remove(tmp)
		return err
	}
	if err := dstFile.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	// stale journal files belong to the database being replaced
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(dst + suffix)
	}
	return os.Rename(tmp, dst)
}
