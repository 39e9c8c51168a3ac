package services

const (
	// DefaultPageLimit applies when a list request omits limit
	DefaultPageLimit = 50
	// MaxPageLimit caps any requested limit
	MaxPageLimit = 200
)

// Page is a clamped limit/offset pair
type Page struct {
	Limit  int
	Offset int
}

// NewPage normalizes raw pagination values
func NewPage(limit, offset int) Page {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}
