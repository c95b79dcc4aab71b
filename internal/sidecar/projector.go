package sidecar

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"paperhub/pkg/models"
)

// document fixes the element order of the projection. doi is always
// emitted, empty when the record has none.
type document struct {
	XMLName        xml.Name `xml:"publication"`
	Title          string   `xml:"title"`
	Author         string   `xml:"author"`
	Volume         string   `xml:"volume"`
	Issue          int      `xml:"issue"`
	Year           int      `xml:"year"`
	DOI            string   `xml:"doi"`
	IsSpecialIssue bool     `xml:"isSpecialIssue"`
	Content        string   `xml:"content"`
	ID             string   `xml:"id"`
}

// Projector derives the XML side-file for a record. It never reads the
// record store; callers hand it an already-loaded record. The side-file
// is a disposable cache, record state always wins.
type Projector struct {
	Dir string
}

func NewProjector(dir string) (*Projector, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure sidecar dir: %w", err)
	}
	return &Projector{Dir: dir}, nil
}

// Project renders the record as a pretty-printed XML document.
func (p *Projector) Project(rec models.Publication) ([]byte, error) {
	doc := document{
		Title:          rec.Title,
		Author:         rec.Author,
		Volume:         rec.Volume,
		Issue:          rec.Issue,
		Year:           rec.Year,
		DOI:            rec.DOI,
		IsSpecialIssue: rec.IsSpecialIssue,
		Content:        rec.Content,
		ID:             rec.ID,
	}
	b, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sidecar: %w", err)
	}
	out := make([]byte, 0, len(xml.Header)+len(b)+1)
	out = append(out, xml.Header...)
	out = append(out, b...)
	out = append(out, '\n')
	return out, nil
}

// Persist writes or overwrites the side-file for the given record id.
func (p *Projector) Persist(id string, doc []byte) error {
	if err := os.WriteFile(p.Path(id), doc, 0o644); err != nil {
		return fmt.Errorf("write sidecar %s: %w", id, err)
	}
	return nil
}

// Retire deletes the side-file if present. Retiring a missing file is
// not an error.
func (p *Projector) Retire(id string) error {
	if err := os.Remove(p.Path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove sidecar %s: %w", id, err)
	}
	return nil
}

// Path names the side-file deterministically from the record id.
func (p *Projector) Path(id string) string {
	return filepath.Join(p.Dir, id+".xml")
}
