package dto

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// NormalizePage returns the limit and offset a list query actually uses.
func NormalizePage(limit, offset int) (int, int) {
	switch {
	case limit <= 0:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
