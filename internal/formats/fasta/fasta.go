package fasta

import (
	"bufio"
	"strings"

	"github.com/FocuswithJustin/RefTax/core/errors"
	"github.com/FocuswithJustin/RefTax/internal/archive"
)

// Record is one FASTA entry.
type Record struct {
	// ID is the first whitespace-delimited token of the header line.
	ID string
	// Description is the remainder of the header line, if any.
	Description string
	// Sequence is the concatenated sequence text, gap characters included.
	Sequence string
}

// maxLineBytes bounds one input line. Alignment rows can be wide.
const maxLineBytes = 16 << 20

// Read parses all records from a FASTA file. Input may be plain, gzip or
// xz compressed. Records keep their file order.
func Read(path string) ([]Record, error) {
	return parse(path, true)
}

// IDs returns the sequence identifiers of a FASTA file in file order.
// Sequence text is discarded while scanning, so this stays cheap on
// large alignments.
func IDs(path string) ([]string, error) {
	records, err := parse(path, false)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	return ids, nil
}

func parse(path string, keepSequences bool) ([]Record, error) {
	r, err := archive.OpenReader(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer r.Close()

	var (
		records []Record
		current *Record
		seq     strings.Builder
	)
	flush := func() {
		if current == nil {
			return
		}
		current.Sequence = seq.String()
		records = append(records, *current)
		current = nil
		seq.Reset()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ">") {
			flush()
			header := strings.TrimSpace(line[1:])
			if header == "" {
				return nil, errors.NewParseLine(FormatName, path, lineNo, "empty header")
			}
			id := strings.Fields(header)[0]
			current = &Record{
				ID:          id,
				Description: strings.TrimSpace(header[len(id):]),
			}
			continue
		}

		if current == nil {
			return nil, errors.NewParseLine(FormatName, path, lineNo, "sequence data before first header")
		}
		if keepSequences {
			seq.WriteString(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	flush()

	return records, nil
}
