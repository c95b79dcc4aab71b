package artifact

import (
	"context"
	"fmt"

	"paperhub/pkg/models"
)

// InlineBackend stores the payload inside the record itself: Store is
// identity, Release is a no-op (the bytes go away with the record row).
type InlineBackend struct{}

func NewInlineBackend() *InlineBackend { return &InlineBackend{} }

func (b *InlineBackend) Kind() string { return models.ArtifactKindInline }

func (b *InlineBackend) Store(_ context.Context, data []byte) (models.ArtifactRef, error) {
	return models.ArtifactRef{Kind: models.ArtifactKindInline, Data: data}, nil
}

func (b *InlineBackend) Retrieve(_ context.Context, ref models.ArtifactRef) ([]byte, error) {
	if len(ref.Data) == 0 {
		return nil, fmt.Errorf("%w: inline payload missing", ErrRetrieveFailed)
	}
	return ref.Data, nil
}

func (b *InlineBackend) Release(_ context.Context, _ models.ArtifactRef) error {
	return nil
}
