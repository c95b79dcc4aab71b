package publication

import "strings"

// Filter is a pure conjunction of optional equality constraints. A nil
// field imposes no constraint; an empty filter matches every record.
type Filter struct {
	Year         *int
	Volume       *string
	Issue        *int
	DOI          *string
	SpecialIssue *bool
}

// ForceSpecialIssue returns the filter with isSpecialIssue pinned to
// true, overriding any caller-supplied value.
func (f Filter) ForceSpecialIssue() Filter {
	v := true
	f.SpecialIssue = &v
	return f
}

const selectColumns = `
	SELECT id, year, volume, issue, is_special_issue, title, content, author, doi,
	       artifact_kind, artifact_ref, artifact_data, artifact_content_type,
	       created_at, updated_at
	FROM publications
`

// buildListSQL turns the filter into a SELECT with a WHERE conjunction.
func buildListSQL(f Filter) (string, []any) {
	var where []string
	var args []any

	if f.Year != nil {
		where = append(where, "year = ?")
		args = append(args, *f.Year)
	}
	if f.Volume != nil {
		where = append(where, "volume = ?")
		args = append(args, *f.Volume)
	}
	if f.Issue != nil {
		where = append(where, "issue = ?")
		args = append(args, *f.Issue)
	}
	if f.DOI != nil {
		where = append(where, "doi = ?")
		args = append(args, *f.DOI)
	}
	if f.SpecialIssue != nil {
		where = append(where, "is_special_issue = ?")
		args = append(args, boolToInt(*f.SpecialIssue))
	}

	sqlStr := selectColumns
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}
	return sqlStr, args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
