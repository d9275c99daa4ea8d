package taxonomy

import (
	"reflect"
	"testing"
)

// lachnospiraceaeTaxonomy reproduces the classic family-name collision:
// Lachnospiraceae appears under both Clostridiales and Lactobacillales.
func lachnospiraceaeTaxonomy() *Taxonomy {
	return FromMap("", map[string][]string{
		"seq1": {"Bacteria", "Firmicutes", "Clostridia", "Clostridiales", "Lachnospiraceae", "Blautia", "Blautia producta"},
		"seq2": {"Bacteria", "Firmicutes", "Bacilli", "Lactobacillales", "Lachnospiraceae", "Roseburia", "Roseburia intestinalis"},
	})
}

func TestCheckForDuplicatesDetect(t *testing.T) {
	tax := lachnospiraceaeTaxonomy()
	before1, _ := tax.SeqLineageStr("seq1")
	before2, _ := tax.SeqLineageStr("seq2")

	dups := tax.CheckForDuplicates(false)

	if len(dups) != 1 {
		t.Fatalf("CheckForDuplicates(false) returned %d records, want 1", len(dups))
	}
	rec := dups[0]
	if rec.FixedLineage != "" {
		t.Errorf("detection-only record has FixedLineage %q", rec.FixedLineage)
	}
	pair := sortedCopy([]string{rec.OldSeqID, rec.SeqID})
	if want := []string{"seq1", "seq2"}; !reflect.DeepEqual(pair, want) {
		t.Errorf("conflict pair = %v, want %v", pair, want)
	}
	if got, _ := tax.SeqLineageStr(rec.OldSeqID); got != rec.OldLineage {
		t.Errorf("OldLineage = %q, want %q", rec.OldLineage, got)
	}
	if got, _ := tax.SeqLineageStr(rec.SeqID); got != rec.Lineage {
		t.Errorf("Lineage = %q, want %q", rec.Lineage, got)
	}

	// Detection must not mutate.
	if after1, _ := tax.SeqLineageStr("seq1"); after1 != before1 {
		t.Errorf("seq1 lineage changed to %q", after1)
	}
	if after2, _ := tax.SeqLineageStr("seq2"); after2 != before2 {
		t.Errorf("seq2 lineage changed to %q", after2)
	}
}

func TestCheckForDuplicatesAutofix(t *testing.T) {
	tax := lachnospiraceaeTaxonomy()

	dups := tax.CheckForDuplicates(true)

	// One conflict record plus one audit record for the altered original.
	if len(dups) != 2 {
		t.Fatalf("CheckForDuplicates(true) returned %d records, want 2", len(dups))
	}

	ranks1, _ := tax.SeqRanks("seq1")
	ranks2, _ := tax.SeqRanks("seq2")
	if got, want := ranks1[4], "Lachnospiraceae_Clostridiales"; got != want {
		t.Errorf("seq1 family = %q, want %q", got, want)
	}
	if got, want := ranks2[4], "Lachnospiraceae_Lactobacillales"; got != want {
		t.Errorf("seq2 family = %q, want %q", got, want)
	}

	var conflict, audit *DuplicateRecord
	for i := range dups {
		if dups[i].OldSeqID == dups[i].SeqID {
			audit = &dups[i]
		} else {
			conflict = &dups[i]
		}
	}
	if conflict == nil || audit == nil {
		t.Fatalf("records = %+v, want one conflict and one audit record", dups)
	}
	if conflict.FixedLineage == "" {
		t.Errorf("conflict record missing FixedLineage")
	}
	if got, _ := tax.SeqLineageStr(conflict.SeqID); got != conflict.FixedLineage {
		t.Errorf("conflict FixedLineage = %q, want %q", conflict.FixedLineage, got)
	}
	if audit.OldLineage != audit.Lineage {
		t.Errorf("audit record lineages differ: %q vs %q", audit.OldLineage, audit.Lineage)
	}
	if got, _ := tax.SeqLineageStr(audit.SeqID); got != audit.FixedLineage {
		t.Errorf("audit FixedLineage = %q, want %q", audit.FixedLineage, got)
	}

	// The repaired names must not be flagged again.
	if again := tax.CheckForDuplicates(false); len(again) != 0 {
		t.Errorf("re-running detection found %d conflicts, want 0", len(again))
	}
	checkPartition(t, tax)
}

func TestCheckForDuplicatesSameParent(t *testing.T) {
	tax := FromMap("", map[string][]string{
		"a": {"Bacteria", "Clostridiales", "Lachnospiraceae"},
		"b": {"Bacteria", "Clostridiales", "Lachnospiraceae"},
	})

	if dups := tax.CheckForDuplicates(false); len(dups) != 0 {
		t.Errorf("same parent flagged as conflict: %+v", dups)
	}
}

func TestCheckForDuplicatesStopsAtEmpty(t *testing.T) {
	// The walk stops at the first unassigned position, so names below a
	// gap are never considered.
	tax := FromMap("", map[string][]string{
		"a": {"Bacteria", "Clostridiales", "Lachnospiraceae"},
		"b": {"Bacteria", "-", "Lachnospiraceae"},
	})

	if dups := tax.CheckForDuplicates(false); len(dups) != 0 {
		t.Errorf("name below a gap flagged as conflict: %+v", dups)
	}
}

func TestCheckForDuplicatesThreeWay(t *testing.T) {
	tax := FromMap("", map[string][]string{
		"x1": {"Bacteria", "Clostridiales", "Lachnospiraceae"},
		"x2": {"Bacteria", "Lactobacillales", "Lachnospiraceae"},
		"x3": {"Bacteria", "Erysipelotrichales", "Lachnospiraceae"},
	})

	dups := tax.CheckForDuplicates(true)

	// Two conflicts against the first sighting plus one audit record.
	if len(dups) != 3 {
		t.Fatalf("CheckForDuplicates(true) returned %d records, want 3", len(dups))
	}
	for _, sid := range []string{"x1", "x2", "x3"} {
		ranks, _ := tax.SeqRanks(sid)
		if want := "Lachnospiraceae_" + ranks[1]; ranks[2] != want {
			t.Errorf("%s family = %q, want %q", sid, ranks[2], want)
		}
	}
	if again := tax.CheckForDuplicates(false); len(again) != 0 {
		t.Errorf("re-running detection found %d conflicts, want 0", len(again))
	}
	checkPartition(t, tax)
}

func TestCheckForDuplicatesRootExempt(t *testing.T) {
	tax := FromMap("", map[string][]string{
		"a": {"Bacteria"},
		"b": {"Archaea"},
	})

	if dups := tax.CheckForDuplicates(false); len(dups) != 0 {
		t.Errorf("root-only paths flagged: %+v", dups)
	}
}
