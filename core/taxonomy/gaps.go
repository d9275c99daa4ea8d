package taxonomy

import "strconv"

// CloseGaps fills unassigned positions that sit above an assigned rank, so
// that every path is contiguous from its root down to its lowest assigned
// level. Each gap is filled with a synthesized name derived from the
// nearest assigned rank below it: the empty position directly above rank X
// becomes parent1_X, the one above that parent2_X, and so on. The root
// position is never synthesized. Returns the number of positions filled.
func (t *Taxonomy) CloseGaps() int {
	filled := 0
	for _, ranks := range t.seqRanks {
		last := ""
		gap := 0
		for i := len(ranks) - 1; i >= 1; i-- {
			if ranks[i] != EmptyRank {
				last = ranks[i]
			} else if last != "" {
				gap++
				ranks[i] = "parent" + strconv.Itoa(gap) + "_" + last
				filled++
			}
		}
	}
	if filled > 0 {
		t.rebuildIndex()
	}
	return filled
}
