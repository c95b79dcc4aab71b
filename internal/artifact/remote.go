package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"paperhub/pkg/models"
)

// RemoteBackend forwards store/retrieve/release to a peer instance's
// artifact endpoints (see Peer). A store failure here means no record
// gets committed, so the peer is the durability boundary.
type RemoteBackend struct {
	BaseURL string
	Client  *http.Client
}

func NewRemoteBackend(baseURL string, timeout time.Duration) *RemoteBackend {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RemoteBackend{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

func (b *RemoteBackend) Kind() string { return models.ArtifactKindRemote }

type storeResponse struct {
	ID string `json:"id"`
}

func (b *RemoteBackend) Store(ctx context.Context, data []byte) (models.ArtifactRef, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.BaseURL+"/internal/artifacts", bytes.NewReader(data))
	if err != nil {
		return models.ArtifactRef{}, fmt.Errorf("%w: build request: %v", ErrStoreFailed, err)
	}
	req.Header.Set("Content-Type", ContentTypePDF)

	resp, err := b.Client.Do(req)
	if err != nil {
		return models.ArtifactRef{}, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return models.ArtifactRef{}, fmt.Errorf("%w: peer status %s", ErrStoreFailed, resp.Status)
	}

	var out storeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.ID == "" {
		return models.ArtifactRef{}, fmt.Errorf("%w: bad peer response: %v", ErrStoreFailed, err)
	}
	return models.ArtifactRef{Kind: models.ArtifactKindRemote, Locator: out.ID}, nil
}

func (b *RemoteBackend) Retrieve(ctx context.Context, ref models.ArtifactRef) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		b.BaseURL+"/internal/artifacts/"+ref.Locator, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrRetrieveFailed, err)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieveFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: peer status %s", ErrRetrieveFailed, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrRetrieveFailed, err)
	}
	return data, nil
}

func (b *RemoteBackend) Release(ctx context.Context, ref models.ArtifactRef) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		b.BaseURL+"/internal/artifacts/"+ref.Locator, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrReleaseFailed, err)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReleaseFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// 404 keeps release idempotent across instances
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: peer status %s", ErrReleaseFailed, resp.Status)
	}
	return nil
}
