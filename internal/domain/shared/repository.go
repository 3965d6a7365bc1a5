package shared

import (
	"strings"
	"time"
)

// ListFilter narrows list queries
type ListFilter struct {
	// Search is a case-insensitive substring; empty matches everything
	Search string
	// Limit caps the number of returned rows; zero or negative means no cap
	Limit int
}

// NormalizedSearch returns the lower-cased, trimmed NFC search term
func (f ListFilter) NormalizedSearch() string {
	return strings.ToLower(CleanText(f.Search))
}

// DateRange is an optional inclusive time range. A nil bound is open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t falls inside the range, both bounds inclusive
func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// IsInverted reports whether both bounds are set and Start is after End
func (r DateRange) IsInverted() bool {
	return r.Start != nil && r.End != nil && r.Start.After(*r.End)
}
