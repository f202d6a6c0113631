package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"

	"github.com/ignite/connect-metrics/internal/config"
	"github.com/ignite/connect-metrics/internal/pkg/logger"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		fatal("failed to load config", err)
	}
	if cfg.Database.URL == "" {
		fatal("DATABASE_URL is required", nil)
	}

	dir := "migrations"
	listOnly := false
	for _, a := range os.Args[1:] {
		if a == "--list" {
			listOnly = true
		} else {
			dir = a
		}
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		fatal("connect", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		fatal("ping", err)
	}
	logger.Info("connected to database")

	if listOnly {
		if err := listCache(db, os.Stdout); err != nil {
			fatal("list metrics_cache", err)
		}
		return
	}

	files, err := migrationFiles(dir)
	if err != nil {
		fatal("read migrations dir", err)
	}
	okCount, errCount := apply(db, files, os.Stdout)
	logger.Info("migrations complete", "ok", okCount, "errors", errCount)
	if errCount > 0 {
		os.Exit(1)
	}
}

type migration struct {
	name string
	sql  string
}

// migrationFiles returns the non-empty .sql files in dir, sorted by name.
func migrationFiles(dir string) ([]migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out []migration
	for _, n := range names {
		data, err := os.ReadFile(filepath.Join(dir, n))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", n, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		out = append(out, migration{name: n, sql: string(data)})
	}
	return out, nil
}

// apply runs each migration in its own transaction. A failed file is
// rolled back and the rest still run.
func apply(db *sql.DB, files []migration, out io.Writer) (okCount, errCount int) {
	for _, m := range files {
		fmt.Fprintf(out, "  %s ... ", m.name)

		tx, err := db.Begin()
		if err != nil {
			fmt.Fprintf(out, "BEGIN ERROR: %v\n", err)
			errCount++
			continue
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			fmt.Fprintf(out, "ERROR: %v\n", err)
			errCount++
			continue
		}
		if err := tx.Commit(); err != nil {
			fmt.Fprintf(out, "COMMIT ERROR: %v\n", err)
			errCount++
			continue
		}
		fmt.Fprintln(out, "OK")
		okCount++
	}
	return okCount, errCount
}

// listCache prints every cached view with the time it was computed.
func listCache(db *sql.DB, out io.Writer) error {
	rows, err := db.Query(`SELECT id, last_updated FROM metrics_cache ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var id string
		var updated sql.NullTime
		if err := rows.Scan(&id, &updated); err != nil {
			return err
		}
		fmt.Fprintf(out, "  %-40s %s\n", id, updated.Time.Format("2006-01-02 15:04:05 MST"))
		n++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Total: %d entries\n", n)
	return nil
}

func fatal(msg string, err error) {
	if err != nil {
		logger.Error(msg, "error", err)
	} else {
		logger.Error(msg)
	}
	os.Exit(1)
}
