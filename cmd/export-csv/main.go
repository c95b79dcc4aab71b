package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"paperhub/pkg/database"
)

func main() {
	var (
		out = flag.String("out", "data/publications.csv", "output CSV path")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := exportPublications(ctx, db, *out); err != nil {
		log.Fatalf("export publications failed: %v", err)
	}

	log.Printf("exported publications to %s", *out)
}

func exportPublications(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"id", "year", "volume", "issue", "is_special_issue",
		"title", "content", "author", "doi", "artifact_kind", "artifact_ref",
		"created_at", "updated_at",
	}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT id, year, volume, issue, is_special_issue, title, content, author, doi,
               artifact_kind, artifact_ref, created_at, updated_at
        FROM publications
        ORDER BY year, volume, issue
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id        string
			year      int
			volume    string
			issue     int
			special   int
			title     string
			content   string
			author    string
			doi       sql.NullString
			artKind   string
			artRef    sql.NullString
			createdAt time.Time
			updatedAt time.Time
		)

		if err := rows.Scan(&id, &year, &volume, &issue, &special, &title, &content,
			&author, &doi, &artKind, &artRef, &createdAt, &updatedAt); err != nil {
			return err
		}

		if err := w.Write([]string{
			id,
			strconv.Itoa(year),
			volume,
			strconv.Itoa(issue),
			strconv.FormatBool(special != 0),
			title,
			content,
			author,
			doi.String,
			artKind,
			artRef.String,
			createdAt.Format(time.RFC3339),
			updatedAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}
