package model

import "strings"

// Includes is the resolved form of the comma-separated `include` query
// parameter.  Unknown names are ignored.
type Includes struct {
	Director bool
	Cast     bool
	Genres   bool
	Reviews  bool
	Movie    bool
}

// ParseIncludes resolves a raw include value such as "director,cast".
func ParseIncludes(raw string) Includes {
	var inc Includes
	for _, part := range strings.Split(raw, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "director":
			inc.Director = true
		case "cast":
			inc.Cast = true
		case "genres":
			inc.Genres = true
		case "reviews":
			inc.Reviews = true
		case "movie":
			inc.Movie = true
		}
	}
	return inc
}

// Any reports whether at least one movie relation was requested.
func (i Includes) Any() bool {
	return i.Director || i.Cast || i.Genres || i.Reviews
}
