package tsv

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/FocuswithJustin/RefTax/core/errors"
	"github.com/FocuswithJustin/RefTax/core/rank"
	"github.com/FocuswithJustin/RefTax/core/taxonomy"
	"github.com/FocuswithJustin/RefTax/internal/archive"
)

// LoadOptions control how a taxonomy table is interpreted.
type LoadOptions struct {
	// Prefix is prepended to every sequence identifier at load.
	Prefix string
	// StripPlaceholders treats bare backbone placeholder tokens
	// (k__ ... s__) as unassigned ranks.
	StripPlaceholders bool
}

// maxLineBytes bounds a single input line. Reference lineages stay far
// below this.
const maxLineBytes = 1 << 20

// placeholderSet holds the backbone placeholder tokens recognized by the
// loader when StripPlaceholders is set.
var placeholderSet = func() map[string]bool {
	set := make(map[string]bool, len(rank.StandardPlaceholders))
	for _, p := range rank.StandardPlaceholders {
		set[p] = true
	}
	return set
}()

// Load reads a taxonomy table from path. Input may be plain, gzip or xz
// compressed. Every line must be identifier<TAB>lineage; the lineage is
// split on ";" with entries trimmed. Entries that are blank or
// (optionally) a bare backbone placeholder are normalized to the
// empty-rank marker. Rank names must not contain the lineage-key
// delimiter. Lines that repeat an identifier replace the earlier record.
func Load(path string, opts LoadOptions) (*taxonomy.Taxonomy, error) {
	r, err := archive.OpenReader(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer r.Close()

	tax := taxonomy.New(opts.Prefix)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			return nil, errors.NewParseLine(FormatName, path, lineNo,
				fmt.Sprintf("expected identifier<TAB>lineage, got %d fields", len(fields)))
		}

		sid := strings.TrimSpace(fields[0])
		ranks := strings.Split(fields[1], ";")
		if len(ranks) > taxonomy.MaxLevels {
			return nil, errors.NewParseLine(FormatName, path, lineNo,
				fmt.Sprintf("lineage has %d levels, limit is %d", len(ranks), taxonomy.MaxLevels))
		}
		for i, name := range ranks {
			name = strings.TrimSpace(name)
			if strings.Contains(name, taxonomy.UIDDelim) {
				return nil, errors.NewParseLine(FormatName, path, lineNo,
					fmt.Sprintf("rank name %q contains the reserved delimiter %q", name, taxonomy.UIDDelim))
			}
			if name == "" || (opts.StripPlaceholders && placeholderSet[name]) {
				name = taxonomy.EmptyRank
			}
			ranks[i] = name
		}

		tax.AddSeq(sid, ranks)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewIO("read", path, err)
	}

	return tax, nil
}

// Write persists a taxonomy as a table at path, one sequence per line in
// identifier order. Rank paths are written verbatim, empty markers
// included, so a reload reproduces the store exactly.
func Write(path string, tax *taxonomy.Taxonomy) error {
	w, err := archive.Create(path)
	if err != nil {
		return errors.NewIO("create", path, err)
	}

	bw := bufio.NewWriter(w)
	for _, sid := range tax.SeqIDs() {
		ranks, err := tax.SeqRanks(sid)
		if err != nil {
			w.Close()
			return err
		}
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", sid, strings.Join(ranks, taxonomy.LineageDelim)); err != nil {
			w.Close()
			return errors.NewIO("write", path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		w.Close()
		return errors.NewIO("write", path, err)
	}
	if err := w.Close(); err != nil {
		return errors.NewIO("close", path, err)
	}
	return nil
}
