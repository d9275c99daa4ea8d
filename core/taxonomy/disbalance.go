package taxonomy

import "strings"

// StandardDepth is the backbone depth that disbalance repair reduces
// overlong rank paths to.
const StandardDepth = 7

// DisbalanceRecord describes one sequence whose rank path exceeds the
// standard backbone depth. FixedLineage is set only when the path was
// repaired.
type DisbalanceRecord struct {
	SeqID        string `json:"seq_id"`
	Lineage      string `json:"lineage"`
	FixedLineage string `json:"fixed_lineage,omitempty"`
}

// CheckForDisbalance finds rank paths deeper than the standard backbone,
// visiting sequences in sorted identifier order. With autofix, positions
// below the root are classified by rank-name suffix and removed in
// priority order until exactly StandardDepth levels remain; the suffix
// heuristic drops subclass- and suborder-like names first and sacrifices
// order- and family-like names last. Without autofix, offenders are
// reported unchanged.
func (t *Taxonomy) CheckForDisbalance(autofix bool) []DisbalanceRecord {
	var errs []DisbalanceRecord
	for _, sid := range t.SeqIDs() {
		ranks := t.seqRanks[sid]
		if len(ranks) <= StandardDepth {
			continue
		}
		if !autofix {
			errs = append(errs, DisbalanceRecord{SeqID: sid, Lineage: LineageStr(ranks)})
			continue
		}
		orig := LineageStr(ranks)

		// Drop subclass and suborder, preserve order and family, based on
		// common suffixes.
		var dropq, keepq, restq []int
		for i := 1; i < len(ranks); i++ {
			switch {
			case strings.HasSuffix(ranks[i], "dae") || strings.HasSuffix(ranks[i], "neae"):
				dropq = append(dropq, i)
			case strings.HasSuffix(ranks[i], "ceae") || strings.HasSuffix(ranks[i], "ales"):
				keepq = append(keepq, i)
			default:
				restq = append(restq, i)
			}
		}

		toRemove := make([]int, 0, len(dropq)+len(restq)+len(keepq))
		toRemove = append(toRemove, dropq...)
		toRemove = append(toRemove, restq...)
		toRemove = append(toRemove, keepq...)
		toRemove = toRemove[:len(ranks)-StandardDepth]

		removed := make(map[int]bool, len(toRemove))
		for _, i := range toRemove {
			removed[i] = true
		}
		fixed := make([]string, 0, StandardDepth)
		for i, r := range ranks {
			if !removed[i] {
				fixed = append(fixed, r)
			}
		}
		t.seqRanks[sid] = fixed
		errs = append(errs, DisbalanceRecord{SeqID: sid, Lineage: orig, FixedLineage: LineageStr(fixed)})
	}
	if autofix && len(errs) > 0 {
		t.rebuildIndex()
	}
	return errs
}
