package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"paperhub/pkg/models"
)

// ContentTypePDF is the only media type any backend accepts.
const ContentTypePDF = "application/pdf"

var (
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrStoreFailed      = errors.New("artifact store failed")
	ErrRetrieveFailed   = errors.New("artifact retrieve failed")
	ErrReleaseFailed    = errors.New("artifact release failed")
)

// Backend stores, serves and releases PDF payloads. One implementation is
// selected at startup; refs carry the kind so a record always resolves
// through the backend that wrote it.
type Backend interface {
	Kind() string
	Store(ctx context.Context, data []byte) (models.ArtifactRef, error)
	Retrieve(ctx context.Context, ref models.ArtifactRef) ([]byte, error)
	Release(ctx context.Context, ref models.ArtifactRef) error
}

var pdfMagic = []byte("%PDF-")

// CheckPayload rejects anything that is not a non-empty PDF. Called before
// any backend write so a bad upload never touches storage.
func CheckPayload(data []byte, contentType string) error {
	if contentType != ContentTypePDF {
		return fmt.Errorf("%w: %q", ErrUnsupportedMedia, contentType)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: empty payload", ErrUnsupportedMedia)
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return fmt.Errorf("%w: payload is not a PDF", ErrUnsupportedMedia)
	}
	return nil
}

// Config selects and parameterizes a backend.
type Config struct {
	Kind        string
	UploadDir   string        // file backend
	PeerURL     string        // remote backend
	PeerTimeout time.Duration // remote backend
}

// New builds the configured backend.
func New(cfg Config) (Backend, error) {
	switch cfg.Kind {
	case models.ArtifactKindFile:
		return NewFileBackend(cfg.UploadDir)
	case models.ArtifactKindInline:
		return NewInlineBackend(), nil
	case models.ArtifactKindRemote:
		return NewRemoteBackend(cfg.PeerURL, cfg.PeerTimeout), nil
	default:
		return nil, fmt.Errorf("unknown artifact backend %q", cfg.Kind)
	}
}
