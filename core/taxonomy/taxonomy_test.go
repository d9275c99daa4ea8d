package taxonomy

import (
	"reflect"
	"sort"
	"testing"

	"github.com/FocuswithJustin/RefTax/core/errors"
)

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

// checkPartition verifies that the rank groups partition the sequence set.
func checkPartition(t *testing.T, tax *Taxonomy) {
	t.Helper()
	var grouped []string
	for _, uid := range tax.RankUIDs() {
		grouped = append(grouped, tax.RankSeqs(uid)...)
	}
	if got, want := sortedCopy(grouped), tax.SeqIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("rank groups cover %v, want %v", got, want)
	}
}

func testTaxonomy() *Taxonomy {
	return FromMap("", map[string][]string{
		"s1": {"Bacteria", "Firmicutes"},
		"s2": {"Bacteria", "Firmicutes"},
		"s3": {"Bacteria", "Proteobacteria"},
	})
}

func TestFromMapBuildsIndex(t *testing.T) {
	tax := testTaxonomy()

	if got := tax.SeqCount(); got != 3 {
		t.Fatalf("SeqCount() = %d, want 3", got)
	}
	if got := tax.RankSeqCount("Bacteria@@Firmicutes"); got != 2 {
		t.Errorf("RankSeqCount(Firmicutes) = %d, want 2", got)
	}
	if got := tax.RankSeqCount("Bacteria@@Proteobacteria"); got != 1 {
		t.Errorf("RankSeqCount(Proteobacteria) = %d, want 1", got)
	}
	got := sortedCopy(tax.RankSeqs("Bacteria@@Firmicutes"))
	want := []string{"s1", "s2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RankSeqs(Firmicutes) = %v, want %v", got, want)
	}
	checkPartition(t, tax)
}

func TestLineageKeySharing(t *testing.T) {
	// Two sequences share a lineage key exactly when their non-empty
	// prefixes are identical element-wise.
	tax := FromMap("", map[string][]string{
		"a": {"Bacteria", "Firmicutes", "-"},
		"b": {"Bacteria", "Firmicutes"},
		"c": {"Bacteria", "Firmicutes", "Clostridia"},
	})

	uidA, _ := tax.SeqRankUID("a")
	uidB, _ := tax.SeqRankUID("b")
	uidC, _ := tax.SeqRankUID("c")
	if uidA != uidB {
		t.Errorf("equal prefixes got distinct keys %q and %q", uidA, uidB)
	}
	if uidA == uidC {
		t.Errorf("distinct prefixes share key %q", uidA)
	}
	if got := tax.RankSeqCount(uidA); got != 2 {
		t.Errorf("RankSeqCount(%q) = %d, want 2", uidA, got)
	}
}

func TestAddSeqAppliesPrefix(t *testing.T) {
	tax := New("FIX_")
	tax.AddSeq("x", []string{"Bacteria", "Firmicutes"})

	if _, ok := tax.Map()["FIX_x"]; !ok {
		t.Fatalf("Map() keys = %v, want FIX_x present", tax.SeqIDs())
	}
	for _, id := range []string{"x", "FIX_x"} {
		if _, err := tax.SeqRanks(id); err != nil {
			t.Errorf("SeqRanks(%q) error: %v", id, err)
		}
	}
}

func TestAddSeqReplacesExisting(t *testing.T) {
	tax := New("")
	tax.AddSeq("x", []string{"Bacteria", "Firmicutes"})
	tax.AddSeq("x", []string{"Archaea", "Euryarchaeota"})

	if got := tax.SeqCount(); got != 1 {
		t.Fatalf("SeqCount() = %d, want 1", got)
	}
	if got := tax.RankSeqCount("Bacteria@@Firmicutes"); got != 0 {
		t.Errorf("stale group still has %d members", got)
	}
	if got := tax.RankSeqs("Archaea@@Euryarchaeota"); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("RankSeqs(Archaea group) = %v, want [x]", got)
	}
	checkPartition(t, tax)
}

func TestSeqLookups(t *testing.T) {
	tax := testTaxonomy()

	if got, err := tax.SeqLineageStr("s1"); err != nil || got != "Bacteria;Firmicutes" {
		t.Errorf("SeqLineageStr(s1) = (%q, %v), want (Bacteria;Firmicutes, nil)", got, err)
	}
	if got, err := tax.SeqRankUID("s3"); err != nil || got != "Bacteria@@Proteobacteria" {
		t.Errorf("SeqRankUID(s3) = (%q, %v), want (Bacteria@@Proteobacteria, nil)", got, err)
	}

	if _, err := tax.SeqRanks("missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("SeqRanks(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := tax.SeqLineageStr("missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("SeqLineageStr(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRemoveSeq(t *testing.T) {
	tax := testTaxonomy()

	if err := tax.RemoveSeq("s2"); err != nil {
		t.Fatalf("RemoveSeq(s2) error: %v", err)
	}
	if got := tax.RankSeqs("Bacteria@@Firmicutes"); !reflect.DeepEqual(got, []string{"s1"}) {
		t.Errorf("RankSeqs(Firmicutes) = %v, want [s1]", got)
	}

	// Removing the last member drops the group entirely.
	if err := tax.RemoveSeq("s3"); err != nil {
		t.Fatalf("RemoveSeq(s3) error: %v", err)
	}
	for _, uid := range tax.RankUIDs() {
		if uid == "Bacteria@@Proteobacteria" {
			t.Errorf("emptied group %q still indexed", uid)
		}
	}

	if got := tax.SeqCount(); got != 1 {
		t.Errorf("SeqCount() = %d, want 1", got)
	}
	if err := tax.RemoveSeq("s3"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("RemoveSeq(s3) again error = %v, want ErrNotFound", err)
	}
	checkPartition(t, tax)
}

func TestRenameSeq(t *testing.T) {
	tax := testTaxonomy()

	if err := tax.RenameSeq("s1", "s1b"); err != nil {
		t.Fatalf("RenameSeq(s1, s1b) error: %v", err)
	}
	got := sortedCopy(tax.RankSeqs("Bacteria@@Firmicutes"))
	if want := []string{"s1b", "s2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("RankSeqs(Firmicutes) = %v, want %v", got, want)
	}
	if _, err := tax.SeqRanks("s1"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("SeqRanks(s1) after rename error = %v, want ErrNotFound", err)
	}
	if _, err := tax.SeqRanks("s1b"); err != nil {
		t.Errorf("SeqRanks(s1b) error: %v", err)
	}

	if err := tax.RenameSeq("ghost", "g2"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("RenameSeq(ghost) error = %v, want ErrNotFound", err)
	}
	checkPartition(t, tax)
}

func TestRenameSeqOntoExisting(t *testing.T) {
	tax := testTaxonomy()

	if err := tax.RenameSeq("s3", "s2"); err != nil {
		t.Fatalf("RenameSeq(s3, s2) error: %v", err)
	}
	if got := tax.SeqCount(); got != 2 {
		t.Errorf("SeqCount() = %d, want 2", got)
	}
	if got := tax.RankSeqs("Bacteria@@Firmicutes"); !reflect.DeepEqual(got, []string{"s1"}) {
		t.Errorf("RankSeqs(Firmicutes) = %v, want [s1]", got)
	}
	if got := tax.RankSeqs("Bacteria@@Proteobacteria"); !reflect.DeepEqual(got, []string{"s2"}) {
		t.Errorf("RankSeqs(Proteobacteria) = %v, want [s2]", got)
	}
	ranks, err := tax.SeqRanks("s2")
	if err != nil || !reflect.DeepEqual(ranks, []string{"Bacteria", "Proteobacteria"}) {
		t.Errorf("SeqRanks(s2) = (%v, %v), want the renamed path", ranks, err)
	}
	checkPartition(t, tax)
}

func TestMergeRanks(t *testing.T) {
	tax := testTaxonomy()

	uid, err := tax.MergeRanks([]string{"Bacteria@@Firmicutes", "Bacteria@@Proteobacteria"}, "")
	if err != nil {
		t.Fatalf("MergeRanks error: %v", err)
	}
	if want := "Bacteria@@__TAXCLUSTER__Firmicutes"; uid != want {
		t.Fatalf("MergeRanks key = %q, want %q", uid, want)
	}
	if got := tax.RankSeqCount(uid); got != 3 {
		t.Errorf("merged group size = %d, want 3", got)
	}
	for _, old := range []string{"Bacteria@@Firmicutes", "Bacteria@@Proteobacteria"} {
		if tax.RankSeqCount(old) != 0 {
			t.Errorf("old group %q still indexed", old)
		}
	}
	wantPath := []string{"Bacteria", "__TAXCLUSTER__Firmicutes"}
	for _, sid := range []string{"s1", "s2", "s3"} {
		ranks, err := tax.SeqRanks(sid)
		if err != nil || !reflect.DeepEqual(ranks, wantPath) {
			t.Errorf("SeqRanks(%s) = (%v, %v), want %v", sid, ranks, err, wantPath)
		}
	}
	checkPartition(t, tax)
}

func TestMergeRanksCustomPrefix(t *testing.T) {
	tax := testTaxonomy()

	uid, err := tax.MergeRanks([]string{"Bacteria@@Proteobacteria", "Bacteria@@Firmicutes"}, "MERGED_")
	if err != nil {
		t.Fatalf("MergeRanks error: %v", err)
	}
	if want := "Bacteria@@MERGED_Proteobacteria"; uid != want {
		t.Errorf("MergeRanks key = %q, want %q", uid, want)
	}
}

func TestMergeRanksTruncatesAtLowestLevel(t *testing.T) {
	tax := FromMap("", map[string][]string{
		"a": {"Bacteria", "Firmicutes", "Clostridia"},
		"b": {"Bacteria", "Proteobacteria"},
	})

	uid, err := tax.MergeRanks([]string{"Bacteria@@Firmicutes@@Clostridia", "Bacteria@@Proteobacteria"}, "")
	if err != nil {
		t.Fatalf("MergeRanks error: %v", err)
	}
	if want := "Bacteria@@Firmicutes@@__TAXCLUSTER__Clostridia"; uid != want {
		t.Fatalf("MergeRanks key = %q, want %q", uid, want)
	}
	ranks, _ := tax.SeqRanks("b")
	want := []string{"Bacteria", "Firmicutes", "__TAXCLUSTER__Clostridia"}
	if !reflect.DeepEqual(ranks, want) {
		t.Errorf("SeqRanks(b) = %v, want %v", ranks, want)
	}
}

func TestMergeRanksTooFewKeys(t *testing.T) {
	tax := testTaxonomy()

	for _, uids := range [][]string{nil, {"Bacteria@@Firmicutes"}} {
		uid, err := tax.MergeRanks(uids, "")
		if uid != "" || err != nil {
			t.Errorf("MergeRanks(%v) = (%q, %v), want no-op", uids, uid, err)
		}
	}
	if got := tax.RankSeqCount("Bacteria@@Firmicutes"); got != 2 {
		t.Errorf("group mutated by no-op merge, size = %d, want 2", got)
	}
}

func TestMergeRanksMissingGroup(t *testing.T) {
	tax := testTaxonomy()

	_, err := tax.MergeRanks([]string{"Bacteria@@Firmicutes", "Bacteria@@Ghost"}, "")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("MergeRanks with missing group error = %v, want ErrNotFound", err)
	}
	// Nothing may change when any key is missing.
	if got := tax.RankSeqCount("Bacteria@@Firmicutes"); got != 2 {
		t.Errorf("RankSeqCount(Firmicutes) = %d, want 2", got)
	}
	checkPartition(t, tax)
}

func TestCommonRanks(t *testing.T) {
	tax := FromMap("", map[string][]string{
		"s1": {"Bacteria", "Firmicutes", "Clostridia"},
		"s2": {"Bacteria", "Firmicutes", "Bacilli"},
		"s3": {"Bacteria", "Proteobacteria", "-"},
	})

	if got, want := tax.CommonRanks(), []string{"Bacteria"}; !reflect.DeepEqual(got, want) {
		t.Errorf("CommonRanks() = %v, want %v", got, want)
	}
}

func TestSeqIDsSorted(t *testing.T) {
	tax := testTaxonomy()
	if got, want := tax.SeqIDs(), []string{"s1", "s2", "s3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("SeqIDs() = %v, want %v", got, want)
	}
}
