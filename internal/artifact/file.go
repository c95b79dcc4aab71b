package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"paperhub/pkg/models"
)

// FileBackend keeps one PDF file per record in a managed uploads dir.
type FileBackend struct {
	Dir string
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure upload dir: %w", err)
	}
	return &FileBackend{Dir: dir}, nil
}

func (b *FileBackend) Kind() string { return models.ArtifactKindFile }

func (b *FileBackend) Store(_ context.Context, data []byte) (models.ArtifactRef, error) {
	// creation-time prefix keeps the dir listable in upload order,
	// the uuid makes the name collision-resistant
	name := fmt.Sprintf("%d-%s.pdf", time.Now().UnixNano(), uuid.NewString())
	if err := os.WriteFile(filepath.Join(b.Dir, name), data, 0o644); err != nil {
		return models.ArtifactRef{}, fmt.Errorf("%w: write %s: %v", ErrStoreFailed, name, err)
	}
	return models.ArtifactRef{Kind: models.ArtifactKindFile, Locator: name}, nil
}

func (b *FileBackend) Retrieve(_ context.Context, ref models.ArtifactRef) ([]byte, error) {
	name, err := b.safeName(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(b.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrRetrieveFailed, name, err)
	}
	return data, nil
}

// Release deletes the file if present. Releasing a missing file is not an
// error, so release stays idempotent.
func (b *FileBackend) Release(_ context.Context, ref models.ArtifactRef) error {
	name, err := b.safeName(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(b.Dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %v", ErrReleaseFailed, name, err)
	}
	return nil
}

// safeName rejects locators that would escape the uploads dir.
func (b *FileBackend) safeName(ref models.ArtifactRef) (string, error) {
	name := ref.Locator
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("%w: bad locator %q", ErrRetrieveFailed, name)
	}
	return name, nil
}
