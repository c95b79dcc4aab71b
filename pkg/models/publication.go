package models

import "time"

// Artifact backend kinds. Selected once at startup, never mixed per-record.
const (
	ArtifactKindFile   = "file"
	ArtifactKindInline = "inline"
	ArtifactKindRemote = "remote"
)

// ArtifactRef locates the stored PDF for one publication.
// Locator is a file name relative to the uploads dir (file backend) or a
// peer-assigned id (remote backend). Data carries the payload itself for
// the inline backend and is empty otherwise.
type ArtifactRef struct {
	Kind    string `json:"kind"`
	Locator string `json:"locator,omitempty"`
	Data    []byte `json:"-"`
}

// Publication is one academic-publication record. The PDF artifact and the
// derived XML sidecar hang off it via Artifact and the record id.
type Publication struct {
	ID                  string      `json:"id"`
	Year                int         `json:"year"`
	Volume              string      `json:"volume"`
	Issue               int         `json:"issue"`
	IsSpecialIssue      bool        `json:"isSpecialIssue"`
	Title               string      `json:"title"`
	Content             string      `json:"content"`
	Author              string      `json:"author"`
	DOI                 string      `json:"doi,omitempty"`
	Artifact            ArtifactRef `json:"-"`
	ArtifactContentType string      `json:"artifactContentType"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}
