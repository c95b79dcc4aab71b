package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"paperhub/internal/artifact"
	"paperhub/internal/publication"
	"paperhub/internal/sidecar"
	"paperhub/pkg/database"
	"paperhub/pkg/utils"
)

// import-csv bulk-creates publications from a manifest. Each row names a
// local PDF file, so imported records go through the same create path as
// API uploads and never exist without a stored artifact.
//
// Manifest header: year,volume,issue,is_special_issue,title,content,author,doi,pdf_path
func main() {
	var (
		in = flag.String("in", "data/publications.csv", "input CSV manifest path")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := utils.LoadServiceConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	backend, err := artifact.New(artifact.Config{
		Kind:        cfg.ArtifactBackend,
		UploadDir:   cfg.UploadDir,
		PeerURL:     cfg.PeerURL,
		PeerTimeout: cfg.PeerTimeout,
	})
	if err != nil {
		log.Fatalf("artifact backend: %v", err)
	}

	projector, err := sidecar.NewProjector(cfg.SidecarDir)
	if err != nil {
		log.Fatalf("sidecar projector: %v", err)
	}

	svc := publication.NewService(publication.NewRepo(db), backend, projector, nil)

	n, err := importPublications(ctx, svc, *in)
	if err != nil {
		log.Fatalf("import publications failed: %v", err)
	}

	log.Printf("imported %d publications from %s", n, *in)
}

func importPublications(ctx context.Context, svc *publication.Service, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return 0, err
	}

	imported := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, err
		}
		if len(row) == 0 {
			continue
		}

		title := valueAt(header, row, "title")
		pdfPath := valueAt(header, row, "pdf_path")
		if title == "" || pdfPath == "" {
			continue
		}

		year, err := strconv.Atoi(valueAt(header, row, "year"))
		if err != nil {
			return imported, fmt.Errorf("parse year for %q: %w", title, err)
		}
		issue, err := strconv.Atoi(valueAt(header, row, "issue"))
		if err != nil {
			return imported, fmt.Errorf("parse issue for %q: %w", title, err)
		}

		pdf, err := os.ReadFile(pdfPath)
		if err != nil {
			return imported, fmt.Errorf("read pdf for %q: %w", title, err)
		}

		_, err = svc.Create(ctx, publication.CreateInput{
			Year:           year,
			Volume:         valueAt(header, row, "volume"),
			Issue:          issue,
			IsSpecialIssue: valueAt(header, row, "is_special_issue") == "true",
			Title:          title,
			Content:        valueAt(header, row, "content"),
			Author:         valueAt(header, row, "author"),
			DOI:            valueAt(header, row, "doi"),
			PDF:            pdf,
			PDFContentType: artifact.ContentTypePDF,
		})
		if err != nil {
			return imported, fmt.Errorf("create %q: %w", title, err)
		}
		imported++
	}

	return imported, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
