package publication

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperhub/pkg/database"
	"paperhub/pkg/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func testFields() models.Publication {
	return models.Publication{
		Year:    2022,
		Volume:  "14",
		Issue:   3,
		Title:   "Adaptive Mesh Refinement",
		Content: "We present a method.",
		Author:  "J. Doe",
		DOI:     "10.1000/xyz123",
		Artifact: models.ArtifactRef{
			Kind:    models.ArtifactKindFile,
			Locator: "1700000000-abc.pdf",
		},
	}
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }

func TestInsertAssignsIDAndTimestamps(t *testing.T) {
	repo := NewRepo(newTestDB(t))
	ctx := context.Background()

	rec, err := repo.Insert(ctx, testFields())
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t, "application/pdf", rec.ArtifactContentType)

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, 2022, got.Year)
	assert.Equal(t, "10.1000/xyz123", got.DOI)
	assert.Equal(t, "1700000000-abc.pdf", got.Artifact.Locator)
}

func TestInsertIDsAreUnique(t *testing.T) {
	repo := NewRepo(newTestDB(t))
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		rec, err := repo.Insert(ctx, testFields())
		require.NoError(t, err)
		assert.False(t, seen[rec.ID], "id %s reused", rec.ID)
		seen[rec.ID] = true
	}
}

func TestMalformedIDFailsFast(t *testing.T) {
	repo := NewRepo(newTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"", "42", "not-a-uuid", "../../etc"} {
		_, err := repo.GetByID(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidID, "id %q", id)
		_, err = repo.Update(ctx, id, models.PublicationUpdate{Title: strPtr("X")})
		assert.ErrorIs(t, err, ErrInvalidID, "id %q", id)
		_, err = repo.Delete(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidID, "id %q", id)
	}
}

func TestGetMissingIsNotFound(t *testing.T) {
	repo := NewRepo(newTestDB(t))
	_, err := repo.GetByID(context.Background(), "8d6a3c6e-3a6c-4f6f-9f2b-0d2b7c1f4e55")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAppliesOnlySuppliedFields(t *testing.T) {
	repo := NewRepo(newTestDB(t))
	ctx := context.Background()

	rec, err := repo.Insert(ctx, testFields())
	require.NoError(t, err)

	got, err := repo.Update(ctx, rec.ID, models.PublicationUpdate{Title: strPtr("Revised")})
	require.NoError(t, err)

	assert.Equal(t, "Revised", got.Title)
	// everything else untouched
	assert.Equal(t, rec.Year, got.Year)
	assert.Equal(t, rec.Volume, got.Volume)
	assert.Equal(t, rec.Issue, got.Issue)
	assert.Equal(t, rec.Author, got.Author)
	assert.Equal(t, rec.Content, got.Content)
	assert.Equal(t, rec.DOI, got.DOI)
	assert.Equal(t, rec.IsSpecialIssue, got.IsSpecialIssue)
}

func TestUpdateClearsDOIExplicitly(t *testing.T) {
	repo := NewRepo(newTestDB(t))
	ctx := context.Background()

	rec, err := repo.Insert(ctx, testFields())
	require.NoError(t, err)

	got, err := repo.Update(ctx, rec.ID, models.PublicationUpdate{DOI: strPtr("")})
	require.NoError(t, err)
	assert.Empty(t, got.DOI)
}

func TestUpdateWithNoFieldsReturnsRecord(t *testing.T) {
	repo := NewRepo(newTestDB(t))
	ctx := context.Background()

	rec, err := repo.Insert(ctx, testFields())
	require.NoError(t, err)

	got, err := repo.Update(ctx, rec.ID, models.PublicationUpdate{})
	require.NoError(t, err)
	assert.Equal(t, rec.Title, got.Title)
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	repo := NewRepo(newTestDB(t))
	_, err := repo.Update(context.Background(),
		"8d6a3c6e-3a6c-4f6f-9f2b-0d2b7c1f4e55",
		models.PublicationUpdate{Title: strPtr("X")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateArtifactRepoints(t *testing.T) {
	repo := NewRepo(newTestDB(t))
	ctx := context.Background()

	rec, err := repo.Insert(ctx, testFields())
	require.NoError(t, err)

	newRef := models.ArtifactRef{Kind: models.ArtifactKindFile, Locator: "1700000001-def.pdf"}
	require.NoError(t, repo.UpdateArtifact(ctx, rec.ID, newRef))

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "1700000001-def.pdf", got.Artifact.Locator)
}

func TestDeleteReturnsRecordAndIsGone(t *testing.T) {
	repo := NewRepo(newTestDB(t))
	ctx := context.Background()

	rec, err := repo.Insert(ctx, testFields())
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, deleted.ID)
	assert.Equal(t, rec.Artifact.Locator, deleted.Artifact.Locator)

	_, err = repo.GetByID(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Delete(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFilters(t *testing.T) {
	repo := NewRepo(newTestDB(t))
	ctx := context.Background()

	insert := func(year int, volume string, special bool) {
		t.Helper()
		rec := testFields()
		rec.Year = year
		rec.Volume = volume
		rec.IsSpecialIssue = special
		_, err := repo.Insert(ctx, rec)
		require.NoError(t, err)
	}

	insert(2021, "A", false)
	insert(2021, "B", true)
	insert(2022, "C", true)

	all, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byYear, err := repo.List(ctx, Filter{Year: intPtr(2021)})
	require.NoError(t, err)
	assert.Len(t, byYear, 2)

	both, err := repo.List(ctx, Filter{Year: intPtr(2022), SpecialIssue: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "C", both[0].Volume)

	none, err := repo.List(ctx, Filter{Year: intPtr(2022), SpecialIssue: boolPtr(false)})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDistinctYearsAndVolumes(t *testing.T) {
	repo := NewRepo(newTestDB(t))
	ctx := context.Background()

	insert := func(year int, volume string) {
		t.Helper()
		rec := testFields()
		rec.Year = year
		rec.Volume = volume
		_, err := repo.Insert(ctx, rec)
		require.NoError(t, err)
	}

	insert(2021, "A")
	insert(2021, "B")
	insert(2022, "C")
	insert(2021, "A") // duplicate year+volume

	years, err := repo.DistinctYears(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{2021, 2022}, years)

	volumes, err := repo.DistinctVolumes(ctx, 2021)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B"}, volumes)

	empty, err := repo.DistinctVolumes(ctx, 1999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
