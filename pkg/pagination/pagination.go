package pagination

import "strings"

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any page query can request.
	MaxLimit = 100
)

// Params holds page pagination inputs from controllers or services.
type Params struct {
	Page      int
	Limit     int
	SearchKey string
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizePage clamps the page number to one-based values.
func NormalizePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

// Normalize returns a copy of the params with page, limit, and search key cleaned up.
func (p Params) Normalize() Params {
	return Params{
		Page:      NormalizePage(p.Page),
		Limit:     NormalizeLimit(p.Limit),
		SearchKey: strings.TrimSpace(p.SearchKey),
	}
}

// Offset converts the normalized page and limit into a SQL offset.
func (p Params) Offset() int {
	normalized := p.Normalize()
	return (normalized.Page - 1) * normalized.Limit
}
