package taxonomy

import "strings"

// Characters that break downstream tree formats when they appear in rank
// names; sequence identifiers additionally may not contain spaces.
const (
	invalidRankChars  = "[](),;:'"
	invalidSeqIDChars = invalidRankChars + " "
)

// replaceInvalid substitutes an underscore for every occurrence of the
// given characters.
func replaceInvalid(s, chars string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(chars, r) {
			return '_'
		}
		return r
	}, s)
}

// NormalizeRankNames rewrites rank names below the root level, replacing
// characters that collide with tree-format syntax by underscores. The same
// original name is always rewritten to the same replacement, keeping
// lineages consistent across sequences. Returns the applied replacements
// keyed by original name.
func (t *Taxonomy) NormalizeRankNames() map[string]string {
	corr := make(map[string]string)
	for _, ranks := range t.seqRanks {
		for i := 1; i < len(ranks); i++ {
			if fixed, ok := corr[ranks[i]]; ok {
				ranks[i] = fixed
				continue
			}
			fixed := replaceInvalid(ranks[i], invalidRankChars)
			if fixed != ranks[i] {
				corr[ranks[i]] = fixed
				ranks[i] = fixed
			}
		}
	}
	if len(corr) > 0 {
		t.rebuildIndex()
	}
	return corr
}

// NormalizeSeqIDs rewrites sequence identifiers the same way, with the
// space character also treated as invalid. Identifiers are processed in
// sorted order; when two originals normalize to the same identifier the
// later one wins. Returns the applied replacements keyed by original
// identifier.
func (t *Taxonomy) NormalizeSeqIDs() map[string]string {
	corr := make(map[string]string)
	for _, sid := range t.SeqIDs() {
		fixed := replaceInvalid(sid, invalidSeqIDChars)
		if fixed != sid {
			corr[sid] = fixed
			t.renameRaw(sid, fixed)
		}
	}
	return corr
}
