package taxonomy

import "sort"

// DuplicateRecord describes one rank-name collision: the same name used
// under two different parents by two sequences. OldSeqID is the sequence
// that carried the name first, SeqID the one that triggered the conflict.
// Lineages are captured at detection time; FixedLineage is set only when
// the collision was repaired.
type DuplicateRecord struct {
	OldSeqID     string `json:"old_seq_id"`
	OldLineage   string `json:"old_lineage"`
	SeqID        string `json:"seq_id"`
	Lineage      string `json:"lineage"`
	FixedLineage string `json:"fixed_lineage,omitempty"`
}

// firstSeen remembers where a rank name was first encountered.
type firstSeen struct {
	sid    string
	pos    int
	parent string
}

// CheckForDuplicates finds rank names that occur under two different
// parent names across sequences. Sequences are visited in sorted
// identifier order so reports are reproducible. Positions are walked from
// below the root down to the first unassigned one, recording the
// first-seen parent per name; a later sighting under a different parent
// is a conflict.
//
// With autofix, both occurrences of a colliding name are disambiguated by
// appending their respective parent name; the first occurrence is altered
// at most once per position even when it collides repeatedly. Besides the
// per-conflict records, one audit record is emitted for every sequence
// whose first occurrence was altered, so every changed row stays
// traceable. Without autofix, detection reports conflicts and mutates
// nothing.
func (t *Taxonomy) CheckForDuplicates(autofix bool) []DuplicateRecord {
	seen := make(map[string]firstSeen)
	fixedAt := make(map[string]map[int]bool)
	origLineage := make(map[string]string)
	var dups []DuplicateRecord

	for _, sid := range t.SeqIDs() {
		ranks := t.seqRanks[sid]
		for i := 1; i < len(ranks); i++ {
			if ranks[i] == EmptyRank {
				break
			}
			name := ranks[i]
			parent := ranks[i-1]
			first, ok := seen[name]
			if !ok {
				seen[name] = firstSeen{sid: sid, pos: i, parent: parent}
				continue
			}
			if first.parent == parent {
				continue
			}
			holderRanks := t.seqRanks[first.sid]
			if !autofix {
				dups = append(dups, DuplicateRecord{
					OldSeqID:   first.sid,
					OldLineage: LineageStr(holderRanks),
					SeqID:      sid,
					Lineage:    LineageStr(ranks),
				})
				continue
			}
			lineage := LineageStr(ranks)
			oldLineage := LineageStr(holderRanks)
			if _, altered := origLineage[first.sid]; !altered {
				origLineage[first.sid] = oldLineage
				fixedAt[first.sid] = make(map[int]bool)
			}
			if !fixedAt[first.sid][first.pos] {
				holderRanks[first.pos] += "_" + holderRanks[first.pos-1]
				fixedAt[first.sid][first.pos] = true
			}
			ranks[i] = name + "_" + parent
			dups = append(dups, DuplicateRecord{
				OldSeqID:     first.sid,
				OldLineage:   oldLineage,
				SeqID:        sid,
				Lineage:      lineage,
				FixedLineage: LineageStr(ranks),
			})
		}
	}

	if autofix {
		altered := make([]string, 0, len(origLineage))
		for sid := range origLineage {
			altered = append(altered, sid)
		}
		sort.Strings(altered)
		for _, sid := range altered {
			dups = append(dups, DuplicateRecord{
				OldSeqID:     sid,
				OldLineage:   origLineage[sid],
				SeqID:        sid,
				Lineage:      origLineage[sid],
				FixedLineage: LineageStr(t.seqRanks[sid]),
			})
		}
		if len(dups) > 0 {
			t.rebuildIndex()
		}
	}
	return dups
}
