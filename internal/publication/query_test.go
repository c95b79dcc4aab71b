package publication

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildListSQLEmptyFilter(t *testing.T) {
	sqlStr, args := buildListSQL(Filter{})
	assert.NotContains(t, sqlStr, "WHERE")
	assert.Empty(t, args)
}

func TestBuildListSQLConjunction(t *testing.T) {
	f := Filter{
		Year:         intPtr(2022),
		Volume:       strPtr("14"),
		SpecialIssue: boolPtr(true),
	}
	sqlStr, args := buildListSQL(f)

	assert.Contains(t, sqlStr, "year = ?")
	assert.Contains(t, sqlStr, "volume = ?")
	assert.Contains(t, sqlStr, "is_special_issue = ?")
	assert.Contains(t, sqlStr, " AND ")
	assert.Equal(t, []any{2022, "14", 1}, args)
}

func TestForceSpecialIssueOverridesCaller(t *testing.T) {
	f := Filter{SpecialIssue: boolPtr(false)}.ForceSpecialIssue()
	assert.NotNil(t, f.SpecialIssue)
	assert.True(t, *f.SpecialIssue)

	f = Filter{}.ForceSpecialIssue()
	assert.NotNil(t, f.SpecialIssue)
	assert.True(t, *f.SpecialIssue)
}
