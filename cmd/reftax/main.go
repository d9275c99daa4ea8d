// Command reftax is the CLI for the RefTax reference-taxonomy toolkit.
// It loads classification tables, runs reconciliation passes, builds
// taxonomy trees, and manages snapshot runs.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/RefTax/core/cas"
	"github.com/FocuswithJustin/RefTax/core/errors"
	"github.com/FocuswithJustin/RefTax/core/rank"
	"github.com/FocuswithJustin/RefTax/core/sqlite"
	"github.com/FocuswithJustin/RefTax/core/taxonomy"
	"github.com/FocuswithJustin/RefTax/core/taxtree"
	"github.com/FocuswithJustin/RefTax/internal/api"
	"github.com/FocuswithJustin/RefTax/internal/archive"
	"github.com/FocuswithJustin/RefTax/internal/diag"
	"github.com/FocuswithJustin/RefTax/internal/formats/base"
	"github.com/FocuswithJustin/RefTax/internal/formats/fasta"
	"github.com/FocuswithJustin/RefTax/internal/formats/newick"
	"github.com/FocuswithJustin/RefTax/internal/formats/phyloxml"
	"github.com/FocuswithJustin/RefTax/internal/formats/tsv"
	"github.com/FocuswithJustin/RefTax/internal/logging"
	"github.com/FocuswithJustin/RefTax/internal/snapshot"
	"github.com/FocuswithJustin/RefTax/internal/validation"
)

const version = "0.1.0"

// CLI defines the command-line interface for reftax.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log output format"`
	TaxCode   string `name:"tax-code" short:"c" default:"bac" help:"Nomenclature code for rank inference (bac, bot, vir, zoo)"`

	// Command groups (noun-first organization)
	Taxonomy TaxonomyGroup `cmd:"" help:"Classification table operations (stats, reconciliation passes, merge)"`
	Tree     TreeGroup     `cmd:"" help:"Taxonomy tree construction and inspection"`
	Rank     RankGroup     `cmd:"" help:"Rank-level inference"`
	Snapshot SnapshotGroup `cmd:"" help:"Snapshot database operations"`
	Format   FormatGroup   `cmd:"" help:"File format detection"`
	Serve    ServeCmd      `cmd:"" help:"Start the diagnostics API server"`
	Version  VersionCmd    `cmd:"" help:"Print version information"`
}

// TaxonomyGroup contains classification table operations.
type TaxonomyGroup struct {
	Stats      TaxStatsCmd   `cmd:"" help:"Summarize a classification table"`
	Normalize  NormalizeCmd  `cmd:"" help:"Normalize rank names and sequence identifiers"`
	Gaps       GapsCmd       `cmd:"" help:"Fill unassigned interior ranks from below"`
	Duplicates DuplicatesCmd `cmd:"" help:"Detect (and optionally repair) rank-name collisions"`
	Disbalance DisbalanceCmd `cmd:"" help:"Detect (and optionally repair) overlong rank paths"`
	Merge      MergeCmd      `cmd:"" help:"Merge rank groups into one clade"`
}

// TreeGroup contains tree construction and inspection operations.
type TreeGroup struct {
	Build TreeBuildCmd `cmd:"" help:"Build a taxonomy tree from a classification table"`
	Stats TreeStatsCmd `cmd:"" help:"Summarize a phyloXML tree"`
}

// RankGroup contains rank-level inference operations.
type RankGroup struct {
	Guess RankGuessCmd `cmd:"" help:"Infer the canonical level of every rank in a lineage"`
}

// SnapshotGroup contains snapshot database operations.
type SnapshotGroup struct {
	Save   SnapshotSaveCmd   `cmd:"" help:"Record a classification table as a run"`
	List   SnapshotListCmd   `cmd:"" help:"List recorded runs"`
	Show   SnapshotShowCmd   `cmd:"" help:"Show one run with its audit trail"`
	Source SnapshotSourceCmd `cmd:"" help:"Recover the archived source table of a run"`
}

// FormatGroup contains format detection operations.
type FormatGroup struct {
	Detect FormatDetectCmd `cmd:"" help:"Detect the format of a file"`
	List   FormatListCmd   `cmd:"" help:"List registered formats"`
}

// loadTable reads a classification table with the shared load options.
func loadTable(path, prefix string, stripPlaceholders bool) (*taxonomy.Taxonomy, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("invalid table path: %w", err)
	}
	if err := validation.CheckFileSize(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	_, typeErr := validation.ValidateFileType(f, path)
	f.Close()
	if typeErr != nil {
		return nil, fmt.Errorf("invalid table file: %w", typeErr)
	}
	tax, err := tsv.Load(path, tsv.LoadOptions{
		Prefix:            prefix,
		StripPlaceholders: stripPlaceholders,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load table: %w", err)
	}
	return tax, nil
}

// writeTable writes the store back out and reports the destination.
func writeTable(path string, tax *taxonomy.Taxonomy) error {
	if err := tsv.Write(path, tax); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	fmt.Printf("Wrote: %s\n", path)
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// passAudits runs the reconciliation passes in their canonical order
// (normalize, duplicates, disbalance, gaps), emits one summary event per
// pass, and returns the audit trail of every repair.
func passAudits(tax *taxonomy.Taxonomy, notifier diag.Notifier) []snapshot.AuditRecord {
	var audits []snapshot.AuditRecord

	rankRenames := tax.NormalizeRankNames()
	for _, old := range sortedKeys(rankRenames) {
		audits = append(audits, snapshot.AuditRecord{
			Pass:   "normalize_ranks",
			Detail: old + " -> " + rankRenames[old],
		})
	}
	diag.PassSummary(notifier, "normalize_ranks", len(rankRenames))

	idRenames := tax.NormalizeSeqIDs()
	for _, old := range sortedKeys(idRenames) {
		audits = append(audits, snapshot.AuditRecord{
			Pass:   "normalize_ids",
			Detail: old + " -> " + idRenames[old],
		})
	}
	diag.PassSummary(notifier, "normalize_ids", len(idRenames))

	dups := tax.CheckForDuplicates(true)
	for _, d := range dups {
		audits = append(audits, snapshot.AuditRecord{
			Pass:   "duplicates",
			Detail: fmt.Sprintf("%s: %s -> %s", d.SeqID, d.Lineage, d.FixedLineage),
		})
	}
	diag.PassSummary(notifier, "duplicates", len(dups))

	disb := tax.CheckForDisbalance(true)
	for _, d := range disb {
		audits = append(audits, snapshot.AuditRecord{
			Pass:   "disbalance",
			Detail: fmt.Sprintf("%s: %s -> %s", d.SeqID, d.Lineage, d.FixedLineage),
		})
	}
	diag.PassSummary(notifier, "disbalance", len(disb))

	filled := tax.CloseGaps()
	if filled > 0 {
		audits = append(audits, snapshot.AuditRecord{
			Pass:   "gaps",
			Detail: fmt.Sprintf("%d positions filled", filled),
		})
	}
	diag.PassSummary(notifier, "gaps", filled)

	return audits
}

// TaxStatsCmd summarizes a classification table.
type TaxStatsCmd struct {
	Table             string `arg:"" help:"Classification table (identifier<TAB>lineage)" type:"existingfile"`
	Prefix            string `help:"Prefix prepended to sequence identifiers at load"`
	StripPlaceholders bool   `name:"strip-placeholders" help:"Treat bare backbone placeholders (k__...s__) as unassigned"`
}

func (c *TaxStatsCmd) Run() error {
	tax, err := loadTable(c.Table, c.Prefix, c.StripPlaceholders)
	if err != nil {
		return err
	}

	maxDepth := 0
	for _, ranks := range tax.Map() {
		if d := taxonomy.LowestAssignedRankLevel(ranks) + 1; d > maxDepth {
			maxDepth = d
		}
	}
	common := tax.CommonRanks()
	commonStr := "(none)"
	if len(common) > 0 {
		commonStr = strings.Join(common, "; ")
	}

	fmt.Printf("Table: %s\n", c.Table)
	fmt.Printf("  Sequences: %d\n", tax.SeqCount())
	fmt.Printf("  Rank groups: %d\n", len(tax.RankUIDs()))
	fmt.Printf("  Max depth: %d\n", maxDepth)
	fmt.Printf("  Common ranks: %s\n", commonStr)
	return nil
}

// NormalizeCmd normalizes rank names and sequence identifiers.
type NormalizeCmd struct {
	Table             string `arg:"" help:"Classification table" type:"existingfile"`
	Out               string `required:"" help:"Output table path" type:"path"`
	Prefix            string `help:"Prefix prepended to sequence identifiers at load"`
	StripPlaceholders bool   `name:"strip-placeholders" help:"Treat bare backbone placeholders as unassigned"`
}

func (c *NormalizeCmd) Run() error {
	tax, err := loadTable(c.Table, c.Prefix, c.StripPlaceholders)
	if err != nil {
		return err
	}

	rankRenames := tax.NormalizeRankNames()
	idRenames := tax.NormalizeSeqIDs()

	fmt.Printf("Normalized: %s\n", c.Table)
	fmt.Printf("  Rank names changed: %d\n", len(rankRenames))
	fmt.Printf("  Sequence ids changed: %d\n", len(idRenames))
	return writeTable(c.Out, tax)
}

// GapsCmd fills unassigned interior ranks.
type GapsCmd struct {
	Table             string `arg:"" help:"Classification table" type:"existingfile"`
	Out               string `required:"" help:"Output table path" type:"path"`
	Prefix            string `help:"Prefix prepended to sequence identifiers at load"`
	StripPlaceholders bool   `name:"strip-placeholders" help:"Treat bare backbone placeholders as unassigned"`
}

func (c *GapsCmd) Run() error {
	tax, err := loadTable(c.Table, c.Prefix, c.StripPlaceholders)
	if err != nil {
		return err
	}

	filled := tax.CloseGaps()
	fmt.Printf("Closed gaps: %s\n", c.Table)
	fmt.Printf("  Positions filled: %d\n", filled)
	return writeTable(c.Out, tax)
}

// DuplicatesCmd detects and optionally repairs rank-name collisions.
type DuplicatesCmd struct {
	Table             string `arg:"" help:"Classification table" type:"existingfile"`
	Fix               bool   `help:"Repair collisions by appending the parent name"`
	Out               string `help:"Output table path (required with --fix)" type:"path"`
	Prefix            string `help:"Prefix prepended to sequence identifiers at load"`
	StripPlaceholders bool   `name:"strip-placeholders" help:"Treat bare backbone placeholders as unassigned"`
}

func (c *DuplicatesCmd) Run() error {
	if c.Fix && c.Out == "" {
		return errors.NewValidation("out", "required when --fix is set")
	}
	tax, err := loadTable(c.Table, c.Prefix, c.StripPlaceholders)
	if err != nil {
		return err
	}

	records := tax.CheckForDuplicates(c.Fix)
	fmt.Printf("Collisions: %d\n", len(records))
	printDuplicateRecords(records)
	if c.Fix {
		return writeTable(c.Out, tax)
	}
	return nil
}

func printDuplicateRecords(records []taxonomy.DuplicateRecord) {
	for _, rec := range records {
		if rec.OldSeqID == rec.SeqID {
			// First-occurrence repair produced by autofix.
			fmt.Printf("  %s: %s\n", rec.SeqID, rec.OldLineage)
			fmt.Printf("    fixed: %s\n", rec.FixedLineage)
			continue
		}
		fmt.Printf("  %s: %s\n", rec.SeqID, rec.Lineage)
		fmt.Printf("    conflicts with %s: %s\n", rec.OldSeqID, rec.OldLineage)
		if rec.FixedLineage != "" {
			fmt.Printf("    fixed: %s\n", rec.FixedLineage)
		}
	}
}

// DisbalanceCmd detects and optionally repairs overlong rank paths.
type DisbalanceCmd struct {
	Table             string `arg:"" help:"Classification table" type:"existingfile"`
	Fix               bool   `help:"Reduce overlong paths to the standard backbone depth"`
	Out               string `help:"Output table path (required with --fix)" type:"path"`
	Prefix            string `help:"Prefix prepended to sequence identifiers at load"`
	StripPlaceholders bool   `name:"strip-placeholders" help:"Treat bare backbone placeholders as unassigned"`
}

func (c *DisbalanceCmd) Run() error {
	if c.Fix && c.Out == "" {
		return errors.NewValidation("out", "required when --fix is set")
	}
	tax, err := loadTable(c.Table, c.Prefix, c.StripPlaceholders)
	if err != nil {
		return err
	}

	records := tax.CheckForDisbalance(c.Fix)
	fmt.Printf("Overlong paths: %d\n", len(records))
	for _, rec := range records {
		fmt.Printf("  %s: %s\n", rec.SeqID, rec.Lineage)
		if rec.FixedLineage != "" {
			fmt.Printf("    fixed: %s\n", rec.FixedLineage)
		}
	}
	if c.Fix {
		return writeTable(c.Out, tax)
	}
	return nil
}

// MergeCmd merges rank groups into one clade.
type MergeCmd struct {
	Table             string   `arg:"" help:"Classification table" type:"existingfile"`
	Group             []string `required:"" help:"Rank group key to merge (repeat; at least two)"`
	Out               string   `required:"" help:"Output table path" type:"path"`
	NamePrefix        string   `name:"name-prefix" help:"Prefix marking the merged clade name"`
	Prefix            string   `help:"Prefix prepended to sequence identifiers at load"`
	StripPlaceholders bool     `name:"strip-placeholders" help:"Treat bare backbone placeholders as unassigned"`
}

func (c *MergeCmd) Run() error {
	if len(c.Group) < 2 {
		return errors.NewValidation("group", "at least two rank group keys are required")
	}
	tax, err := loadTable(c.Table, c.Prefix, c.StripPlaceholders)
	if err != nil {
		return err
	}

	merged, err := tax.MergeRanks(c.Group, c.NamePrefix)
	if err != nil {
		return fmt.Errorf("failed to merge rank groups: %w", err)
	}

	fmt.Printf("Merged %d groups\n", len(c.Group))
	fmt.Printf("  Merged group: %s\n", merged)
	fmt.Printf("  Members: %d\n", tax.RankSeqCount(merged))
	return writeTable(c.Out, tax)
}

// TreeBuildCmd builds a taxonomy tree from a classification table.
type TreeBuildCmd struct {
	Table             string   `arg:"" help:"Classification table (identifier<TAB>lineage)" type:"existingfile"`
	Out               string   `required:"" help:"Output tree path" type:"path"`
	Format            string   `default:"auto" enum:"auto,newick,phyloxml" help:"Output tree format (auto resolves by extension)"`
	Prefix            string   `help:"Prefix prepended to sequence identifiers at load"`
	StripPlaceholders bool     `name:"strip-placeholders" help:"Treat bare backbone placeholders as unassigned"`
	Reconcile         bool     `help:"Run the reconciliation passes before building"`
	MinRank           int      `name:"min-rank" default:"0" help:"Zero-based path position that must be assigned for inclusion"`
	MaxSeqsPerLeaf    int      `name:"max-seqs-per-leaf" help:"Per-parent leaf quota (0 = unlimited)"`
	Include           []string `help:"Clade filter to include (level:name; repeat for any-of)"`
	Ignore            []string `help:"Clade filter to ignore (level:name; repeat for any-of)"`
	RestrictFasta     string   `name:"restrict-fasta" help:"Keep only sequences whose ids appear in this alignment" type:"existingfile"`
	DebugUnpruned     string   `name:"debug-unpruned" help:"Also write the tree before unary collapse to this path" type:"path"`
	SaveRun           string   `name:"save-run" help:"Record the reconciled table as a run in this snapshot database" type:"path"`
}

func (c *TreeBuildCmd) Run() error {
	tax, err := loadTable(c.Table, c.Prefix, c.StripPlaceholders)
	if err != nil {
		return err
	}
	notifier := diag.Log

	if c.RestrictFasta != "" {
		kept, removed, err := restrictToFasta(tax, c.RestrictFasta, c.Prefix)
		if err != nil {
			return err
		}
		fmt.Printf("Restricted to alignment: kept %d, removed %d\n", kept, removed)
	}

	var audits []snapshot.AuditRecord
	if c.Reconcile {
		audits = passAudits(tax, notifier)
		fmt.Printf("Reconciled: %d repairs recorded\n", len(audits))
	}

	include, err := taxtree.ParseCladeFilters(c.Include)
	if err != nil {
		return fmt.Errorf("invalid include filter: %w", err)
	}
	ignore, err := taxtree.ParseCladeFilters(c.Ignore)
	if err != nil {
		return fmt.Errorf("invalid ignore filter: %w", err)
	}

	cfg := taxtree.Config{
		MinRank:        c.MinRank,
		MaxSeqsPerLeaf: c.MaxSeqsPerLeaf,
		Include:        include,
		Ignore:         ignore,
		Progress:       diag.BuilderProgress(notifier, "tree_build"),
	}
	if c.DebugUnpruned != "" {
		cfg.OnUnpruned = func(root *taxtree.Node) {
			if err := writeTree(c.DebugUnpruned, c.Format, root); err != nil {
				logging.Warn("Failed to write unpruned tree", "path", c.DebugUnpruned, "error", err)
			}
		}
	}

	root, accepted, err := taxtree.NewBuilder(tax, cfg).Build()
	if err != nil {
		return fmt.Errorf("failed to build tree: %w", err)
	}
	notifier.Notify(diag.Event{
		Type:      diag.TypeComplete,
		Stage:     "tree_build",
		Processed: tax.SeqCount(),
		Added:     len(accepted),
		Skipped:   tax.SeqCount() - len(accepted),
	})

	if err := writeTree(c.Out, c.Format, root); err != nil {
		return err
	}
	fmt.Printf("Built: %s\n", c.Out)
	fmt.Printf("  Leaves: %d of %d sequences\n", len(accepted), tax.SeqCount())

	if c.SaveRun != "" {
		id, err := saveRun(c.SaveRun, c.Table, tax, audits, false)
		if err != nil {
			return err
		}
		fmt.Printf("  Run: %s\n", id)
	}
	return nil
}

// restrictToFasta drops every sequence whose identifier is absent from
// the alignment. Alignment ids never carry the load prefix, so both the
// raw and the prefix-stripped identifier are tried.
func restrictToFasta(tax *taxonomy.Taxonomy, path, prefix string) (kept, removed int, err error) {
	ids, err := fasta.IDs(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read alignment: %w", err)
	}
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	for _, sid := range tax.SeqIDs() {
		if keep[sid] || (prefix != "" && keep[strings.TrimPrefix(sid, prefix)]) {
			kept++
			continue
		}
		if err := tax.RemoveSeq(sid); err != nil {
			return kept, removed, fmt.Errorf("failed to remove sequence: %w", err)
		}
		removed++
	}
	return kept, removed, nil
}

// resolveTreeFormat maps "auto" to a concrete format by output extension.
func resolveTreeFormat(path, format string) string {
	if format != "" && format != "auto" {
		return format
	}
	switch strings.ToLower(filepath.Ext(archive.BaseName(path))) {
	case ".xml", ".phyloxml":
		return "phyloxml"
	default:
		return "newick"
	}
}

func writeTree(path, format string, root *taxtree.Node) error {
	switch resolveTreeFormat(path, format) {
	case "phyloxml":
		if err := phyloxml.Write(path, root); err != nil {
			return fmt.Errorf("failed to write phyloXML tree: %w", err)
		}
	default:
		if err := newick.Write(path, root); err != nil {
			return fmt.Errorf("failed to write Newick tree: %w", err)
		}
	}
	return nil
}

// archiveRoot returns the content store directory paired with a
// snapshot database.
func archiveRoot(dbPath string) string {
	return dbPath + ".cas"
}

// openArchive opens the content store next to a snapshot database, or
// returns nil when no archive has been created for it.
func openArchive(dbPath string) *cas.Store {
	root := archiveRoot(dbPath)
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil
	}
	blobs, err := cas.NewStore(root)
	if err != nil {
		return nil
	}
	return blobs
}

// saveRun records the reconciled store in the snapshot database,
// archiving the raw source bytes alongside it when asked.
func saveRun(dbPath, source string, tax *taxonomy.Taxonomy, audits []snapshot.AuditRecord, archiveSource bool) (string, error) {
	var digest cas.Digest
	if archiveSource {
		blobs, err := cas.NewStore(archiveRoot(dbPath))
		if err != nil {
			return "", fmt.Errorf("failed to open archive store: %w", err)
		}
		digest, _, err = blobs.PutFile(source)
		if err != nil {
			return "", fmt.Errorf("failed to archive input: %w", err)
		}
	} else {
		var err error
		digest, _, err = cas.HashFile(source)
		if err != nil {
			return "", fmt.Errorf("failed to hash input: %w", err)
		}
	}
	store, err := snapshot.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to open snapshot database: %w", err)
	}
	defer store.Close()

	run, err := store.SaveRun(context.Background(), snapshot.Run{
		Source:  source,
		SHA256:  digest.SHA256,
		BLAKE3:  digest.BLAKE3,
		TaxCode: CLI.TaxCode,
	}, tax, audits)
	if err != nil {
		return "", fmt.Errorf("failed to save run: %w", err)
	}
	return run.ID, nil
}

// TreeStatsCmd summarizes a phyloXML tree.
type TreeStatsCmd struct {
	Tree string `arg:"" help:"Tree file (phyloXML)" type:"existingfile"`
}

func (c *TreeStatsCmd) Run() error {
	if resolveTreeFormat(c.Tree, "auto") != "phyloxml" {
		return errors.NewUnsupported("tree stats", "only phyloXML trees can be read back")
	}
	root, err := phyloxml.Read(c.Tree)
	if err != nil {
		return fmt.Errorf("failed to read tree: %w", err)
	}

	nodes, leaves, depth := countNodes(root, 0)
	fmt.Printf("Tree: %s\n", c.Tree)
	fmt.Printf("  Nodes: %d\n", nodes)
	fmt.Printf("  Leaves: %d\n", leaves)
	fmt.Printf("  Depth: %d\n", depth)
	fmt.Printf("  Root children: %d\n", len(root.Children))
	return nil
}

func countNodes(n *taxtree.Node, depth int) (nodes, leaves, maxDepth int) {
	nodes, maxDepth = 1, depth
	if len(n.Children) == 0 {
		leaves = 1
	}
	for _, child := range n.Children {
		cn, cl, cd := countNodes(child, depth+1)
		nodes += cn
		leaves += cl
		if cd > maxDepth {
			maxDepth = cd
		}
	}
	return nodes, leaves, maxDepth
}

// RankGuessCmd infers canonical levels for a lineage.
type RankGuessCmd struct {
	Lineage string `arg:"" help:"Semicolon-separated lineage (e.g. \"Bacteria;Firmicutes;Clostridia\")"`
}

func (c *RankGuessCmd) Run() error {
	table, err := rank.NewTable(CLI.TaxCode)
	if err != nil {
		return fmt.Errorf("failed to resolve nomenclature code (supported: %s): %w",
			strings.Join(rank.Codes(), ", "), err)
	}

	parts := strings.Split(c.Lineage, taxonomy.LineageDelim)
	ranks := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			p = taxonomy.EmptyRank
		}
		ranks = append(ranks, p)
	}
	if len(ranks) > taxonomy.MaxLevels {
		return errors.NewValidation("lineage", fmt.Sprintf("more than %d levels", taxonomy.MaxLevels))
	}

	fmt.Printf("Lineage: %s (code %s)\n", taxonomy.LineageStr(ranks), CLI.TaxCode)
	for i, name := range ranks {
		if name == taxonomy.EmptyRank {
			fmt.Printf("  %2d  %-14s %s\n", i, "(unassigned)", name)
			continue
		}
		levelName, prefix := table.GuessLevelName(ranks, i)
		fmt.Printf("  %2d  %-14s %-4s %s\n", i, levelName, prefix, name)
	}
	return nil
}

// SnapshotSaveCmd records a classification table as a run.
type SnapshotSaveCmd struct {
	Table             string `arg:"" help:"Classification table" type:"existingfile"`
	DB                string `required:"" name:"db" help:"Snapshot database path" type:"path"`
	Prefix            string `help:"Prefix prepended to sequence identifiers at load"`
	StripPlaceholders bool   `name:"strip-placeholders" help:"Treat bare backbone placeholders as unassigned"`
	Reconcile         bool   `help:"Run the reconciliation passes before saving"`
	Archive           bool   `help:"Also archive the raw table bytes next to the database"`
}

func (c *SnapshotSaveCmd) Run() error {
	tax, err := loadTable(c.Table, c.Prefix, c.StripPlaceholders)
	if err != nil {
		return err
	}

	var audits []snapshot.AuditRecord
	if c.Reconcile {
		audits = passAudits(tax, diag.Log)
	}

	id, err := saveRun(c.DB, c.Table, tax, audits, c.Archive)
	if err != nil {
		return err
	}

	fmt.Printf("Saved run: %s\n", id)
	fmt.Printf("  Source: %s\n", c.Table)
	fmt.Printf("  Sequences: %d\n", tax.SeqCount())
	fmt.Printf("  Rank groups: %d\n", len(tax.RankUIDs()))
	fmt.Printf("  Repairs: %d\n", len(audits))
	if c.Archive {
		fmt.Printf("  Archived: %s\n", archiveRoot(c.DB))
	}
	return nil
}

// SnapshotListCmd lists recorded runs.
type SnapshotListCmd struct {
	DB string `required:"" name:"db" help:"Snapshot database path" type:"existingfile"`
}

func (c *SnapshotListCmd) Run() error {
	store, err := snapshot.Open(c.DB)
	if err != nil {
		return fmt.Errorf("failed to open snapshot database: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	fmt.Printf("Runs: %d\n", len(runs))
	for _, r := range runs {
		fmt.Printf("  %s  %s  seqs=%d  source=%s\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), r.SeqCount, r.Source)
	}
	return nil
}

// SnapshotShowCmd shows one run with its audit trail.
type SnapshotShowCmd struct {
	RunID  string `arg:"" help:"Run identifier"`
	DB     string `required:"" name:"db" help:"Snapshot database path" type:"existingfile"`
	Audits bool   `help:"Also list the audit records"`
}

func (c *SnapshotShowCmd) Run() error {
	store, err := snapshot.Open(c.DB)
	if err != nil {
		return fmt.Errorf("failed to open snapshot database: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	run, err := store.GetRun(ctx, c.RunID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	fmt.Printf("Run: %s\n", run.ID)
	fmt.Printf("  Created: %s\n", run.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  Source: %s\n", run.Source)
	fmt.Printf("  SHA-256: %s\n", run.SHA256)
	fmt.Printf("  BLAKE3: %s\n", run.BLAKE3)
	fmt.Printf("  Code: %s\n", run.TaxCode)
	fmt.Printf("  Sequences: %d\n", run.SeqCount)
	fmt.Printf("  Rank groups: %d\n", run.RankCount)
	if blobs := openArchive(c.DB); blobs != nil {
		fmt.Printf("  Archived: %t\n", blobs.Exists(run.SHA256))
	}

	if c.Audits {
		audits, err := store.Audits(ctx, run.ID)
		if err != nil {
			return fmt.Errorf("failed to load audit records: %w", err)
		}
		fmt.Printf("  Audit records: %d\n", len(audits))
		for _, a := range audits {
			fmt.Printf("    [%s] %s\n", a.Pass, a.Detail)
		}
	}
	return nil
}

// SnapshotSourceCmd recovers the archived source table of a run.
type SnapshotSourceCmd struct {
	RunID string `arg:"" help:"Run identifier"`
	DB    string `required:"" name:"db" help:"Snapshot database path" type:"existingfile"`
	Out   string `required:"" help:"Where to write the recovered table" type:"path"`
}

func (c *SnapshotSourceCmd) Run() error {
	store, err := snapshot.Open(c.DB)
	if err != nil {
		return fmt.Errorf("failed to open snapshot database: %w", err)
	}
	defer store.Close()

	run, err := store.GetRun(context.Background(), c.RunID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	blobs := openArchive(c.DB)
	if blobs == nil {
		return errors.NewNotFound("archive", archiveRoot(c.DB))
	}
	data, err := blobs.Get(run.SHA256)
	if err != nil {
		return fmt.Errorf("failed to read archived source: %w", err)
	}
	if d := cas.HashBytes(data); d.SHA256 != run.SHA256 || d.BLAKE3 != run.BLAKE3 {
		return fmt.Errorf("archived source for run %s failed digest verification", run.ID)
	}
	if err := os.WriteFile(c.Out, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	fmt.Printf("Recovered: %s\n", c.Out)
	fmt.Printf("  Run: %s\n", run.ID)
	fmt.Printf("  Bytes: %d\n", len(data))
	fmt.Printf("  SHA-256: %s\n", run.SHA256)
	return nil
}

// FormatDetectCmd detects the format of a file.
type FormatDetectCmd struct {
	Path string `arg:"" help:"File to inspect" type:"existingfile"`
}

func (c *FormatDetectCmd) Run() error {
	if err := validation.ValidatePath(c.Path); err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	result, err := base.DetectAny(c.Path)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	if !result.Detected {
		fmt.Printf("Not recognized: %s\n", c.Path)
		fmt.Printf("  Reason: %s\n", result.Reason)
		return nil
	}
	fmt.Printf("Detected: %s\n", c.Path)
	fmt.Printf("  Format: %s\n", result.Format)
	if archive.IsCompressed(c.Path) {
		fmt.Printf("  Compressed: true\n")
	}
	fmt.Printf("  Reason: %s\n", result.Reason)
	return nil
}

// FormatListCmd lists registered formats.
type FormatListCmd struct{}

func (c *FormatListCmd) Run() error {
	names := base.Names()
	fmt.Printf("Formats: %d\n", len(names))
	for _, name := range names {
		h, _ := base.Lookup(name)
		fmt.Printf("  %-10s %s\n", name, strings.Join(h.Extensions(), " "))
	}
	return nil
}

// ServeCmd starts the diagnostics API server.
type ServeCmd struct {
	Port           int      `default:"8080" help:"Port to listen on"`
	DB             string   `required:"" name:"db" help:"Snapshot database to serve" type:"existingfile"`
	APIKey         string   `name:"api-key" help:"Require X-API-Key on non-public endpoints"`
	RateLimit      int      `name:"rate-limit" help:"Requests per minute per client (0 = disabled)"`
	RateLimitBurst int      `name:"rate-limit-burst" default:"10" help:"Rate limit burst size"`
	AllowedOrigins []string `name:"allowed-origins" help:"CORS allowed origins (empty = allow all)"`
	TLSCert        string   `name:"tls-cert" help:"TLS certificate file" type:"existingfile"`
	TLSKey         string   `name:"tls-key" help:"TLS private key file" type:"existingfile"`
}

func (c *ServeCmd) Run() error {
	return api.Start(api.Config{
		Port:              c.Port,
		DBPath:            c.DB,
		RateLimitRequests: c.RateLimit,
		RateLimitBurst:    c.RateLimitBurst,
		AllowedOrigins:    c.AllowedOrigins,
		Auth: api.AuthConfig{
			Enabled: c.APIKey != "",
			APIKey:  c.APIKey,
		},
		TLS: api.TLSConfig{
			Enabled:  c.TLSCert != "" || c.TLSKey != "",
			CertFile: c.TLSCert,
			KeyFile:  c.TLSKey,
		},
	})
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	fmt.Printf("reftax %s\n", version)
	fmt.Printf("  sqlite driver: %s (%s, %s)\n", info.DriverName, info.DriverType, info.Package)
	return nil
}

func logLevel(name string) logging.Level {
	switch name {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func logFormat(name string) logging.Format {
	if name == "json" {
		return logging.FormatJSON
	}
	return logging.FormatText
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("reftax"),
		kong.Description("RefTax - reference taxonomy reconciliation and tree construction"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(logLevel(CLI.LogLevel), logFormat(CLI.LogFormat))
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
