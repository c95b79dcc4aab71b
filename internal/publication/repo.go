package publication

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"paperhub/pkg/models"
)

// Repo is the record store: one row per publication.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// checkID fails fast on malformed identifiers before touching storage.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Insert assigns the id and timestamps and persists the record.
func (r *Repo) Insert(ctx context.Context, rec models.Publication) (*models.Publication, error) {
	rec.ID = uuid.NewString()
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if rec.ArtifactContentType == "" {
		rec.ArtifactContentType = "application/pdf"
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO publications (
			id, year, volume, issue, is_special_issue, title, content, author, doi,
			artifact_kind, artifact_ref, artifact_data, artifact_content_type,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID, rec.Year, rec.Volume, rec.Issue, boolToInt(rec.IsSpecialIssue),
		rec.Title, rec.Content, rec.Author, nullString(rec.DOI),
		rec.Artifact.Kind, nullString(rec.Artifact.Locator), rec.Artifact.Data,
		rec.ArtifactContentType, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert: %v", ErrPersistence, err)
	}
	return &rec, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.Publication, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	row := r.DB.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	rec, err := scanPublication(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get: %v", ErrPersistence, err)
	}
	return rec, nil
}

// Update applies only the fields the caller supplied; nil pointers leave
// the stored value untouched. Returns the record as stored afterward.
func (r *Repo) Update(ctx context.Context, id string, upd models.PublicationUpdate) (*models.Publication, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	if upd.Empty() {
		return r.GetByID(ctx, id)
	}

	var set []string
	var args []any

	if upd.Year != nil {
		set = append(set, "year = ?")
		args = append(args, *upd.Year)
	}
	if upd.Volume != nil {
		set = append(set, "volume = ?")
		args = append(args, *upd.Volume)
	}
	if upd.Issue != nil {
		set = append(set, "issue = ?")
		args = append(args, *upd.Issue)
	}
	if upd.IsSpecialIssue != nil {
		set = append(set, "is_special_issue = ?")
		args = append(args, boolToInt(*upd.IsSpecialIssue))
	}
	if upd.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Content != nil {
		set = append(set, "content = ?")
		args = append(args, *upd.Content)
	}
	if upd.Author != nil {
		set = append(set, "author = ?")
		args = append(args, *upd.Author)
	}
	if upd.DOI != nil {
		set = append(set, "doi = ?")
		args = append(args, nullString(*upd.DOI))
	}

	set = append(set, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx,
		"UPDATE publications SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("%w: update: %v", ErrPersistence, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r.GetByID(ctx, id)
}

// UpdateArtifact repoints the record at a freshly stored artifact.
func (r *Repo) UpdateArtifact(ctx context.Context, id string, ref models.ArtifactRef) error {
	if err := checkID(id); err != nil {
		return err
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE publications
		SET artifact_kind = ?, artifact_ref = ?, artifact_data = ?, updated_at = ?
		WHERE id = ?
	`, ref.Kind, nullString(ref.Locator), ref.Data, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%w: update artifact: %v", ErrPersistence, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Delete removes the row and returns the record as it was, so the caller
// can clean up its artifact and sidecar afterward.
func (r *Repo) Delete(ctx context.Context, id string) (*models.Publication, error) {
	rec, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := r.DB.ExecContext(ctx, `DELETE FROM publications WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("%w: delete: %v", ErrPersistence, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// lost a race with a concurrent delete
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, nil
}

func (r *Repo) List(ctx context.Context, f Filter) ([]models.Publication, error) {
	sqlStr, args := buildListSQL(f)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list query: %v", ErrPersistence, err)
	}
	defer rows.Close()

	out := make([]models.Publication, 0)
	for rows.Next() {
		rec, err := scanPublication(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: list scan: %v", ErrPersistence, err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows err: %v", ErrPersistence, err)
	}
	return out, nil
}

func (r *Repo) DistinctYears(ctx context.Context) ([]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT year FROM publications ORDER BY year`)
	if err != nil {
		return nil, fmt.Errorf("%w: distinct years: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("%w: scan year: %v", ErrPersistence, err)
		}
		out = append(out, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows err: %v", ErrPersistence, err)
	}
	return out, nil
}

func (r *Repo) DistinctVolumes(ctx context.Context, year int) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT DISTINCT volume FROM publications WHERE year = ? ORDER BY volume`, year)
	if err != nil {
		return nil, fmt.Errorf("%w: distinct volumes: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%w: scan volume: %v", ErrPersistence, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows err: %v", ErrPersistence, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPublication(row rowScanner) (*models.Publication, error) {
	var (
		rec       models.Publication
		special   int
		doi       sql.NullString
		artRef    sql.NullString
		artData   []byte
		createdAt time.Time
		updatedAt time.Time
	)

	if err := row.Scan(
		&rec.ID, &rec.Year, &rec.Volume, &rec.Issue, &special,
		&rec.Title, &rec.Content, &rec.Author, &doi,
		&rec.Artifact.Kind, &artRef, &artData, &rec.ArtifactContentType,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	rec.IsSpecialIssue = special != 0
	rec.DOI = doi.String
	rec.Artifact.Locator = artRef.String
	rec.Artifact.Data = artData
	rec.CreatedAt = createdAt
	rec.UpdatedAt = updatedAt
	return &rec, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
