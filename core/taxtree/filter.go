package taxtree

// CladeFilter matches rank paths that carry a specific name at a specific
// path position. Level is a zero-based index into the rank path, so with
// the standard 7-level backbone level 2 is the class position.
type CladeFilter struct {
	Level int
	Name  string
}

// Matches reports whether the path carries the filter's name at its level.
// Positions outside the path never match.
func (f CladeFilter) Matches(ranks []string) bool {
	return f.Level >= 0 && f.Level < len(ranks) && ranks[f.Level] == f.Name
}

func matchesAny(filters []CladeFilter, ranks []string) bool {
	for _, f := range filters {
		if f.Matches(ranks) {
			return true
		}
	}
	return false
}
