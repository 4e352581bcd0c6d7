package model

// ListQuery describes a filtered, ordered and paginated listing.
// A Limit <= 0 returns all matching rows.
type ListQuery struct {
	Search string
	// ComplexID restricts readings to one complex
	ComplexID uint
	// ParticipantID restricts schedules to those owned by or inviting a user
	ParticipantID uint
	Offset        int
	Limit         int
	OrderBy       string
	OrderDesc     bool
}

// ListResult is one page of a listing together with the counts a grid needs.
type ListResult[T any] struct {
	Items []T
	// Total is the number of rows without the search filter
	Total int64
	// Filtered is the number of rows matching the search filter
	Filtered int64
}
