package feed

import "time"

const (
	EventCreated = "publication.created"
	EventUpdated = "publication.updated"
	EventDeleted = "publication.deleted"
)

// Event is one publication lifecycle change, broadcast as a JSON line.
type Event struct {
	Type  string    `json:"type"`
	ID    string    `json:"id"`
	Title string    `json:"title,omitempty"`
	At    time.Time `json:"at"`
}
