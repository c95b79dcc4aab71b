package publication

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperhub/internal/artifact"
	"paperhub/internal/sidecar"
	"paperhub/pkg/models"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type serviceFixture struct {
	svc       *Service
	uploadDir string
	projector *sidecar.Projector
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()

	uploadDir := t.TempDir()
	backend, err := artifact.NewFileBackend(uploadDir)
	require.NoError(t, err)

	projector, err := sidecar.NewProjector(t.TempDir())
	require.NoError(t, err)

	svc := NewService(NewRepo(newTestDB(t)), backend, projector, nil)
	return serviceFixture{svc: svc, uploadDir: uploadDir, projector: projector}
}

func validCreate() CreateInput {
	return CreateInput{
		Year:           2022,
		Volume:         "14",
		Issue:          3,
		Title:          "Adaptive Mesh Refinement",
		Content:        "We present a method.",
		Author:         "J. Doe",
		DOI:            "10.1000/xyz123",
		PDF:            samplePDF,
		PDFContentType: artifact.ContentTypePDF,
	}
}

func (f serviceFixture) uploadCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(f.uploadDir)
	require.NoError(t, err)
	return len(entries)
}

func TestCreateStoresRecordArtifactAndSidecar(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, validCreate())
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)

	// record is artifact-complete
	got, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	payload, err := f.svc.Artifact(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, payload.Data)
	assert.Equal(t, artifact.ContentTypePDF, payload.ContentType)
	assert.Equal(t, "Adaptive Mesh Refinement", payload.Title)

	// sidecar reflects the record
	side, err := os.ReadFile(f.projector.Path(rec.ID))
	require.NoError(t, err)
	assert.Contains(t, string(side), "<title>Adaptive Mesh Refinement</title>")
	assert.Contains(t, string(side), "<id>"+rec.ID+"</id>")
}

func TestCreateMissingFieldsFailsBeforeSideEffects(t *testing.T) {
	f := newServiceFixture(t)

	in := validCreate()
	in.Title = ""
	in.Author = ""

	_, err := f.svc.Create(context.Background(), in)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Msg, "title")
	assert.Contains(t, vErr.Msg, "author")

	// no artifact written, no record inserted
	assert.Zero(t, f.uploadCount(t))
	all, err := f.svc.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateNonPDFNeverCreatesRecord(t *testing.T) {
	f := newServiceFixture(t)

	in := validCreate()
	in.PDFContentType = "text/plain"

	_, err := f.svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, artifact.ErrUnsupportedMedia)

	assert.Zero(t, f.uploadCount(t))
	all, err := f.svc.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateEmptyPDFRejected(t *testing.T) {
	f := newServiceFixture(t)

	in := validCreate()
	in.PDF = nil

	_, err := f.svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, artifact.ErrUnsupportedMedia)
}

func TestUpdatePartialFieldsLeaveRestUnchanged(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, validCreate())
	require.NoError(t, err)

	got, err := f.svc.Update(ctx, rec.ID, UpdateInput{
		Fields: models.PublicationUpdate{Title: strPtr("Revised Title")},
	})
	require.NoError(t, err)

	assert.Equal(t, "Revised Title", got.Title)
	assert.Equal(t, rec.Year, got.Year)
	assert.Equal(t, rec.Author, got.Author)
	assert.Equal(t, rec.DOI, got.DOI)

	// sidecar re-projected
	side, err := os.ReadFile(f.projector.Path(rec.ID))
	require.NoError(t, err)
	assert.Contains(t, string(side), "<title>Revised Title</title>")
}

func TestUpdateRejectsClearingRequiredFields(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, validCreate())
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, rec.ID, UpdateInput{
		Fields: models.PublicationUpdate{Title: strPtr("")},
	})
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	// doi can be cleared explicitly
	got, err := f.svc.Update(ctx, rec.ID, UpdateInput{
		Fields: models.PublicationUpdate{DOI: strPtr("")},
	})
	require.NoError(t, err)
	assert.Empty(t, got.DOI)
}

func TestUpdateReplacesArtifactNewBeforeOld(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, validCreate())
	require.NoError(t, err)

	oldLocator := mustGetLocator(t, f.svc, rec.ID)
	replacement := append([]byte{}, samplePDF...)
	replacement = append(replacement, []byte("% second version\n")...)

	got, err := f.svc.Update(ctx, rec.ID, UpdateInput{
		PDF:            replacement,
		PDFContentType: artifact.ContentTypePDF,
	})
	require.NoError(t, err)

	newLocator := mustGetLocator(t, f.svc, got.ID)
	assert.NotEqual(t, oldLocator, newLocator)

	// exactly one resolvable artifact afterward
	assert.Equal(t, 1, f.uploadCount(t))
	_, err = os.Stat(filepath.Join(f.uploadDir, oldLocator))
	assert.True(t, os.IsNotExist(err))

	payload, err := f.svc.Artifact(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, replacement, payload.Data)
}

func TestUpdateNonPDFReplacementRejected(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, validCreate())
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, rec.ID, UpdateInput{
		PDF:            []byte("plain text"),
		PDFContentType: artifact.ContentTypePDF,
	})
	assert.ErrorIs(t, err, artifact.ErrUnsupportedMedia)

	// original artifact untouched
	payload, err := f.svc.Artifact(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, payload.Data)
}

func TestUpdateMissingIDIsNotFound(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.svc.Update(context.Background(),
		"8d6a3c6e-3a6c-4f6f-9f2b-0d2b7c1f4e55", UpdateInput{
			Fields: models.PublicationUpdate{Title: strPtr("X")},
		})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCleansUpArtifactAndSidecar(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, validCreate())
	require.NoError(t, err)
	require.Equal(t, 1, f.uploadCount(t))

	deleted, err := f.svc.Delete(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, deleted.ID)

	// record gone, second delete is NotFound
	_, err = f.svc.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Delete(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// no residual artifact or sidecar
	assert.Zero(t, f.uploadCount(t))
	_, err = os.Stat(f.projector.Path(rec.ID))
	assert.True(t, os.IsNotExist(err))
}

func TestSpecialIssuesForcesFlag(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	in := validCreate()
	_, err := f.svc.Create(ctx, in)
	require.NoError(t, err)

	in = validCreate()
	in.IsSpecialIssue = true
	in.Year = 2023
	special, err := f.svc.Create(ctx, in)
	require.NoError(t, err)

	// caller asking for non-special records still only gets special ones
	falseVal := false
	items, err := f.svc.SpecialIssues(ctx, Filter{SpecialIssue: &falseVal})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, special.ID, items[0].ID)
}

func TestYearsAndVolumesThroughService(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	mk := func(year int, volume string) {
		t.Helper()
		in := validCreate()
		in.Year = year
		in.Volume = volume
		_, err := f.svc.Create(ctx, in)
		require.NoError(t, err)
	}
	mk(2021, "A")
	mk(2022, "C")
	mk(2021, "B")

	years, err := f.svc.Years(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{2021, 2022}, years)

	volumes, err := f.svc.Volumes(ctx, 2021)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B"}, volumes)
}

func TestInlineBackendLifecycle(t *testing.T) {
	projector, err := sidecar.NewProjector(t.TempDir())
	require.NoError(t, err)
	svc := NewService(NewRepo(newTestDB(t)), artifact.NewInlineBackend(), projector, nil)
	ctx := context.Background()

	rec, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)

	payload, err := svc.Artifact(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, payload.Data)

	// delete leaves nothing to release; record is simply gone
	_, err = svc.Delete(ctx, rec.ID)
	require.NoError(t, err)
	_, err = svc.Artifact(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func mustGetLocator(t *testing.T, svc *Service, id string) string {
	t.Helper()
	rec, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotEmpty(t, rec.Artifact.Locator)
	return rec.Artifact.Locator
}
