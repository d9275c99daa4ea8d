package taxonomy

import (
	"sort"
	"strings"

	"github.com/FocuswithJustin/RefTax/core/errors"
)

// Taxonomy maps sequence identifiers to rank paths and maintains the
// reverse index from lineage keys to the sequences sharing that lineage.
// The reverse index always partitions the sequence-identifier set: every
// mutating operation restores the partition before returning.
// It is not safe for concurrent mutation; callers serialize writes.
type Taxonomy struct {
	prefix   string
	seqRanks map[string][]string
	rankSeqs map[string][]string
}

// New returns an empty taxonomy. The prefix is prepended to every
// identifier added through AddSeq and is tolerated on lookup arguments.
func New(prefix string) *Taxonomy {
	return &Taxonomy{
		prefix:   prefix,
		seqRanks: make(map[string][]string),
		rankSeqs: make(map[string][]string),
	}
}

// FromMap builds a taxonomy over an existing identifier-to-rank-path map.
// The map and its rank paths are adopted, not copied; identifiers are used
// as given, without prefixing.
func FromMap(prefix string, m map[string][]string) *Taxonomy {
	t := &Taxonomy{
		prefix:   prefix,
		seqRanks: m,
		rankSeqs: make(map[string][]string),
	}
	if t.seqRanks == nil {
		t.seqRanks = make(map[string][]string)
	}
	t.rebuildIndex()
	return t
}

// Prefix returns the configured sequence-identifier prefix.
func (t *Taxonomy) Prefix() string {
	return t.prefix
}

// SeqCount returns the number of sequences in the taxonomy.
func (t *Taxonomy) SeqCount() int {
	return len(t.seqRanks)
}

// Map returns the live identifier-to-rank-path index. Callers must treat
// it as read-only; use the mutating methods to keep the reverse index
// consistent.
func (t *Taxonomy) Map() map[string][]string {
	return t.seqRanks
}

// SeqIDs returns the sequence identifiers in sorted order.
func (t *Taxonomy) SeqIDs() []string {
	ids := make([]string, 0, len(t.seqRanks))
	for sid := range t.seqRanks {
		ids = append(ids, sid)
	}
	sort.Strings(ids)
	return ids
}

// AddSeq records a sequence with its rank path, prepending the configured
// prefix to the identifier. Re-adding an identifier replaces its previous
// classification.
func (t *Taxonomy) AddSeq(id string, ranks []string) {
	sid := t.prefix + id
	if old, ok := t.seqRanks[sid]; ok {
		t.removeFromGroup(RankUID(old), sid)
	}
	t.seqRanks[sid] = ranks
	uid := RankUID(ranks)
	t.rankSeqs[uid] = append(t.rankSeqs[uid], sid)
}

// resolve prepends the prefix to identifiers that do not already carry it.
func (t *Taxonomy) resolve(id string) string {
	if t.prefix == "" || strings.HasPrefix(id, t.prefix) {
		return id
	}
	return t.prefix + id
}

// SeqRanks returns the rank path of a sequence. The identifier may be
// given with or without the configured prefix.
func (t *Taxonomy) SeqRanks(id string) ([]string, error) {
	sid := t.resolve(id)
	ranks, ok := t.seqRanks[sid]
	if !ok {
		return nil, errors.NewNotFound("sequence", sid)
	}
	return ranks, nil
}

// SeqLineageStr returns the display lineage of a sequence.
func (t *Taxonomy) SeqLineageStr(id string) (string, error) {
	ranks, err := t.SeqRanks(id)
	if err != nil {
		return "", err
	}
	return LineageStr(ranks), nil
}

// SeqRankUID returns the lineage key of a sequence.
func (t *Taxonomy) SeqRankUID(id string) (string, error) {
	ranks, err := t.SeqRanks(id)
	if err != nil {
		return "", err
	}
	return RankUID(ranks), nil
}

// RankSeqs returns the sequences grouped under a lineage key, or nil when
// no group carries it.
func (t *Taxonomy) RankSeqs(uid string) []string {
	return t.rankSeqs[uid]
}

// RankSeqCount returns the size of the group under a lineage key.
func (t *Taxonomy) RankSeqCount(uid string) int {
	return len(t.rankSeqs[uid])
}

// RankUIDs returns all lineage keys in sorted order.
func (t *Taxonomy) RankUIDs() []string {
	uids := make([]string, 0, len(t.rankSeqs))
	for uid := range t.rankSeqs {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}

// CommonRanks returns the rank names shared by every sequence in the
// taxonomy, in sorted order.
func (t *Taxonomy) CommonRanks() []string {
	var common map[string]bool
	for _, ranks := range t.seqRanks {
		cur := make(map[string]bool, len(ranks))
		for _, r := range ranks {
			cur[r] = true
		}
		if common == nil {
			common = cur
			continue
		}
		for name := range common {
			if !cur[name] {
				delete(common, name)
			}
		}
	}
	names := make([]string, 0, len(common))
	for name := range common {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RemoveSeq deletes a sequence from both the forward map and its rank
// group, dropping the group when it empties.
func (t *Taxonomy) RemoveSeq(id string) error {
	sid := t.resolve(id)
	ranks, ok := t.seqRanks[sid]
	if !ok {
		return errors.NewNotFound("sequence", sid)
	}
	t.removeFromGroup(RankUID(ranks), sid)
	delete(t.seqRanks, sid)
	return nil
}

// RenameSeq changes a sequence identifier in place, preserving its rank
// group membership. When the new identifier already names another
// sequence, that sequence is removed first.
func (t *Taxonomy) RenameSeq(oldID, newID string) error {
	sid := t.resolve(oldID)
	if _, ok := t.seqRanks[sid]; !ok {
		return errors.NewNotFound("sequence", sid)
	}
	t.renameRaw(sid, newID)
	return nil
}

// renameRaw moves a known identifier without prefix resolution.
func (t *Taxonomy) renameRaw(oldID, newID string) {
	if newID == oldID {
		return
	}
	if other, ok := t.seqRanks[newID]; ok {
		t.removeFromGroup(RankUID(other), newID)
		delete(t.seqRanks, newID)
	}
	ranks := t.seqRanks[oldID]
	uid := RankUID(ranks)
	group := t.rankSeqs[uid]
	for i, member := range group {
		if member == oldID {
			group[i] = newID
			break
		}
	}
	t.seqRanks[newID] = ranks
	delete(t.seqRanks, oldID)
}

// MergeRanks collapses two or more rank groups into one. The merged path
// is the first group's path truncated at its lowest assigned level, with
// that name rewritten under the merge prefix; every member sequence is
// reassigned to it. Fewer than two keys is a no-op. All keys must name
// existing groups.
func (t *Taxonomy) MergeRanks(uids []string, namePrefix string) (string, error) {
	if len(uids) < 2 {
		return "", nil
	}
	if namePrefix == "" {
		namePrefix = MergePrefix
	}
	for _, uid := range uids {
		if _, ok := t.rankSeqs[uid]; !ok {
			return "", errors.NewNotFound("rank group", uid)
		}
	}

	var members []string
	for _, uid := range uids {
		members = append(members, t.rankSeqs[uid]...)
		delete(t.rankSeqs, uid)
	}

	merged := SplitRankUID(uids[0], 0)
	level := LowestAssignedRankLevel(merged)
	mergedPath := make([]string, level+1)
	copy(mergedPath, merged[:level+1])
	mergedPath[level] = namePrefix + merged[level]

	mergedUID := RankUID(mergedPath)
	t.rankSeqs[mergedUID] = members
	for _, sid := range members {
		t.seqRanks[sid] = mergedPath
	}
	return mergedUID, nil
}

// removeFromGroup drops one identifier from a rank group and deletes the
// group when it empties.
func (t *Taxonomy) removeFromGroup(uid, sid string) {
	group := t.rankSeqs[uid]
	for i, member := range group {
		if member == sid {
			group = append(group[:i], group[i+1:]...)
			break
		}
	}
	if len(group) == 0 {
		delete(t.rankSeqs, uid)
	} else {
		t.rankSeqs[uid] = group
	}
}

// rebuildIndex recomputes the reverse index from the forward map. The bulk
// reconciliation passes call it after rewriting rank paths in place.
func (t *Taxonomy) rebuildIndex() {
	t.rankSeqs = make(map[string][]string, len(t.rankSeqs))
	for sid, ranks := range t.seqRanks {
		uid := RankUID(ranks)
		t.rankSeqs[uid] = append(t.rankSeqs[uid], sid)
	}
}
