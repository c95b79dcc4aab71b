package publication

import (
	"context"
	"log"
	"strings"
	"time"

	"paperhub/internal/artifact"
	"paperhub/internal/feed"
	"paperhub/internal/sidecar"
	"paperhub/pkg/models"
)

// Service orchestrates the record store, artifact backend and sidecar
// projector so create/update/delete behave as single atomic intents with
// best-effort compensating cleanup where no shared transaction exists.
type Service struct {
	Repo      *Repo
	Artifacts artifact.Backend
	Sidecars  *sidecar.Projector
	Feed      *feed.Hub // optional
}

func NewService(repo *Repo, backend artifact.Backend, projector *sidecar.Projector, hub *feed.Hub) *Service {
	return &Service{Repo: repo, Artifacts: backend, Sidecars: projector, Feed: hub}
}

// CreateInput carries the full field set plus the PDF upload.
type CreateInput struct {
	Year           int
	Volume         string
	Issue          int
	IsSpecialIssue bool
	Title          string
	Content        string
	Author         string
	DOI            string

	PDF            []byte
	PDFContentType string
}

func (in CreateInput) validate() error {
	var missing []string
	if in.Year == 0 {
		missing = append(missing, "year")
	}
	if strings.TrimSpace(in.Volume) == "" {
		missing = append(missing, "volume")
	}
	if in.Issue < 0 {
		missing = append(missing, "issue")
	}
	if strings.TrimSpace(in.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(in.Content) == "" {
		missing = append(missing, "content")
	}
	if strings.TrimSpace(in.Author) == "" {
		missing = append(missing, "author")
	}
	if len(missing) > 0 {
		return validationf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Create validates everything before any side effect, then stores the
// artifact, commits the record, and projects the sidecar. A failed
// artifact store aborts with no record; a failed insert triggers a
// best-effort release of the just-stored artifact; a failed sidecar is
// logged and never rolls the record back.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Publication, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := artifact.CheckPayload(in.PDF, in.PDFContentType); err != nil {
		return nil, err
	}

	ref, err := s.Artifacts.Store(ctx, in.PDF)
	if err != nil {
		return nil, err
	}

	rec, err := s.Repo.Insert(ctx, models.Publication{
		Year:                in.Year,
		Volume:              in.Volume,
		Issue:               in.Issue,
		IsSpecialIssue:      in.IsSpecialIssue,
		Title:               in.Title,
		Content:             in.Content,
		Author:              in.Author,
		DOI:                 in.DOI,
		Artifact:            ref,
		ArtifactContentType: artifact.ContentTypePDF,
	})
	if err != nil {
		if relErr := s.Artifacts.Release(ctx, ref); relErr != nil {
			log.Printf("[publication] release after failed insert: %v", relErr)
		}
		return nil, err
	}

	s.projectSidecar(*rec)
	s.broadcast(feed.EventCreated, rec)
	return rec, nil
}

// UpdateInput carries a partial field set and an optional replacement PDF.
type UpdateInput struct {
	Fields models.PublicationUpdate

	PDF            []byte // nil means keep the current artifact
	PDFContentType string
}

func (in UpdateInput) validate() error {
	f := in.Fields
	// an explicit clear is only meaningful for doi; required text fields
	// must stay non-empty
	if f.Volume != nil && strings.TrimSpace(*f.Volume) == "" {
		return validationf("volume cannot be cleared")
	}
	if f.Title != nil && strings.TrimSpace(*f.Title) == "" {
		return validationf("title cannot be cleared")
	}
	if f.Content != nil && strings.TrimSpace(*f.Content) == "" {
		return validationf("content cannot be cleared")
	}
	if f.Author != nil && strings.TrimSpace(*f.Author) == "" {
		return validationf("author cannot be cleared")
	}
	if f.Year != nil && *f.Year == 0 {
		return validationf("year cannot be cleared")
	}
	return nil
}

// Update applies the supplied fields and, when a new PDF is present,
// replaces the artifact new-before-old: store the new one, repoint the
// record, then release the previous one, so the record never points at a
// released artifact.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.Publication, error) {
	current, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	if in.PDF != nil {
		if err := artifact.CheckPayload(in.PDF, in.PDFContentType); err != nil {
			return nil, err
		}

		newRef, err := s.Artifacts.Store(ctx, in.PDF)
		if err != nil {
			return nil, err
		}
		if err := s.Repo.UpdateArtifact(ctx, id, newRef); err != nil {
			if relErr := s.Artifacts.Release(ctx, newRef); relErr != nil {
				log.Printf("[publication] release after failed repoint: %v", relErr)
			}
			return nil, err
		}
		if relErr := s.Artifacts.Release(ctx, current.Artifact); relErr != nil {
			log.Printf("[publication] release previous artifact for %s: %v", id, relErr)
		}
	}

	rec, err := s.Repo.Update(ctx, id, in.Fields)
	if err != nil {
		return nil, err
	}

	s.projectSidecar(*rec)
	s.broadcast(feed.EventUpdated, rec)
	return rec, nil
}

// Delete removes the record first (the authoritative entity), then
// best-effort releases the artifact and retires the sidecar. Cleanup
// failures are logged, never surfaced: a deleted record is gone even if
// disk cleanup lags.
func (s *Service) Delete(ctx context.Context, id string) (*models.Publication, error) {
	rec, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	if relErr := s.Artifacts.Release(ctx, rec.Artifact); relErr != nil {
		log.Printf("[publication] release artifact for deleted %s: %v", id, relErr)
	}
	if retErr := s.Sidecars.Retire(rec.ID); retErr != nil {
		log.Printf("[publication] retire sidecar for deleted %s: %v", id, retErr)
	}

	s.broadcast(feed.EventDeleted, rec)
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Publication, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]models.Publication, error) {
	return s.Repo.List(ctx, f)
}

// SpecialIssues lists with isSpecialIssue pinned to true regardless of
// any caller-supplied value.
func (s *Service) SpecialIssues(ctx context.Context, f Filter) ([]models.Publication, error) {
	return s.Repo.List(ctx, f.ForceSpecialIssue())
}

func (s *Service) Years(ctx context.Context) ([]int, error) {
	return s.Repo.DistinctYears(ctx)
}

func (s *Service) Volumes(ctx context.Context, year int) ([]string, error) {
	return s.Repo.DistinctVolumes(ctx, year)
}

// ArtifactPayload is a resolved PDF ready to stream.
type ArtifactPayload struct {
	Data        []byte
	ContentType string
	Title       string
}

// Artifact resolves the record, then its PDF bytes via the backend.
func (s *Service) Artifact(ctx context.Context, id string) (*ArtifactPayload, error) {
	rec, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := s.Artifacts.Retrieve(ctx, rec.Artifact)
	if err != nil {
		return nil, err
	}
	return &ArtifactPayload{
		Data:        data,
		ContentType: rec.ArtifactContentType,
		Title:       rec.Title,
	}, nil
}

func (s *Service) projectSidecar(rec models.Publication) {
	doc, err := s.Sidecars.Project(rec)
	if err == nil {
		err = s.Sidecars.Persist(rec.ID, doc)
	}
	if err != nil {
		// sidecar is a derived cache; never fail the operation over it
		log.Printf("[publication] sidecar for %s: %v", rec.ID, err)
	}
}

func (s *Service) broadcast(eventType string, rec *models.Publication) {
	if s.Feed == nil {
		return
	}
	s.Feed.BroadcastJSON(feed.Event{
		Type:  eventType,
		ID:    rec.ID,
		Title: rec.Title,
		At:    time.Now().UTC(),
	})
}
