// Package taxonomy reconciles noisy taxonomic classification records into a
// consistent hierarchy. It owns the sequence-to-rank-path map and its
// reverse lineage index, and provides the reconciliation passes
// (normalization, gap closing, duplicate and disbalance repair, merging)
// that prepare a taxonomy for tree construction.
package taxonomy

import (
	"strings"
)

const (
	// EmptyRank marks an unassigned position in a rank path.
	EmptyRank = "-"

	// UIDDelim joins rank names into a lineage key. It is a multi-character
	// token so it cannot collide with rank-name punctuation; callers must
	// reject or escape names containing it.
	UIDDelim = "@@"

	// LineageDelim joins rank names in display lineage strings.
	LineageDelim = ";"

	// MergePrefix prefixes the synthesized name of a merged rank group.
	MergePrefix = "__TAXCLUSTER__"

	// MaxLevels is the maximum supported rank-path depth.
	MaxLevels = 22
)

// LineageStr formats a rank path for display: non-empty entries are trimmed
// and joined with the display delimiter. Pure formatting, no mutation.
func LineageStr(ranks []string) string {
	parts := make([]string, 0, len(ranks))
	for _, r := range ranks {
		r = strings.TrimSpace(r)
		if r == "" || r == EmptyRank {
			continue
		}
		parts = append(parts, r)
	}
	return strings.Join(parts, LineageDelim)
}

// LowestAssignedRankLevel returns the index of the last entry that is not
// the empty-rank marker, scanning from the end, or -1 when the whole path
// is unassigned.
func LowestAssignedRankLevel(ranks []string) int {
	level := len(ranks) - 1
	for level >= 0 && ranks[level] == EmptyRank {
		level--
	}
	return level
}

// LowestAssignedRank returns the name of the last assigned entry of a rank
// path. The second result is false when the whole path is unassigned.
func LowestAssignedRank(ranks []string) (string, bool) {
	level := LowestAssignedRankLevel(ranks)
	if level < 0 {
		return "", false
	}
	return ranks[level], true
}

// RankUID returns the lineage key of a rank path: the delimiter-joined
// prefix up to its lowest assigned level. A fully unassigned path yields
// the empty key.
func RankUID(ranks []string) string {
	return RankUIDAt(ranks, LowestAssignedRankLevel(ranks))
}

// RankUIDAt returns the lineage key of the prefix ending at the given level
// (inclusive). Levels past the end of the path are clamped; negative levels
// yield the empty key.
func RankUIDAt(ranks []string, level int) string {
	if level < 0 {
		return ""
	}
	if level >= len(ranks) {
		level = len(ranks) - 1
	}
	return strings.Join(ranks[:level+1], UIDDelim)
}

// SplitRankUID parses a lineage key back into a rank path, padding with
// empty-rank markers up to minLevels entries.
func SplitRankUID(uid string, minLevels int) []string {
	ranks := strings.Split(uid, UIDDelim)
	for len(ranks) < minLevels {
		ranks = append(ranks, EmptyRank)
	}
	return ranks
}

// RankUIDToLineageStr formats a lineage key for display.
func RankUIDToLineageStr(uid string, minLevels int) string {
	return LineageStr(SplitRankUID(uid, minLevels))
}
