// Package fasta reads sequence and alignment files in FASTA format. The
// pipeline uses it to restrict a taxonomy to the sequences present in an
// alignment; identifiers and raw sequence text are extracted, nothing is
// interpreted beyond that.
package fasta

import (
	"strings"

	"github.com/FocuswithJustin/RefTax/internal/formats/base"
)

// FormatName identifies this handler in the registry.
const FormatName = "fasta"

func init() {
	base.Register(handler{})
}

type handler struct{}

func (handler) Name() string { return FormatName }

func (handler) Extensions() []string {
	return []string{".fasta", ".fa", ".fna", ".afa", ".aln"}
}

func (handler) Detect(path string) (*base.DetectResult, error) {
	return base.DetectFile(path, base.DetectConfig{
		Extensions:   []string{".fasta", ".fa", ".fna", ".afa", ".aln"},
		FormatName:   FormatName,
		CheckContent: true,
		CustomValidator: func(_ string, data []byte) (bool, string, error) {
			if strings.HasPrefix(base.FirstLine(data), ">") {
				return true, "FASTA header detected", nil
			}
			return false, "", nil
		},
	})
}
