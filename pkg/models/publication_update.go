package models

// PublicationUpdate is a partial update: nil means "leave unchanged".
// A non-nil pointer to an empty string is an explicit clear, which the
// service accepts for DOI and rejects for required text fields.
type PublicationUpdate struct {
	Year           *int
	Volume         *string
	Issue          *int
	IsSpecialIssue *bool
	Title          *string
	Content        *string
	Author         *string
	DOI            *string
}

// Empty reports whether no field was supplied at all.
func (u PublicationUpdate) Empty() bool {
	return u.Year == nil && u.Volume == nil && u.Issue == nil &&
		u.IsSpecialIssue == nil && u.Title == nil && u.Content == nil &&
		u.Author == nil && u.DOI == nil
}
