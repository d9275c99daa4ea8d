// Package tsv reads and writes the tab-separated taxonomy table format:
// one sequence per line, an identifier and a semicolon-joined lineage.
package tsv

import (
	"strings"

	"github.com/FocuswithJustin/RefTax/internal/formats/base"
)

// FormatName identifies this handler in the registry.
const FormatName = "tsv"

func init() {
	base.Register(handler{})
}

type handler struct{}

func (handler) Name() string { return FormatName }

func (handler) Extensions() []string { return []string{".tsv", ".tax"} }

func (handler) Detect(path string) (*base.DetectResult, error) {
	return base.DetectFile(path, base.DetectConfig{
		Extensions:   []string{".tsv", ".tax"},
		FormatName:   FormatName,
		CheckContent: true,
		CustomValidator: func(_ string, data []byte) (bool, string, error) {
			if strings.Count(base.FirstLine(data), "\t") >= 1 {
				return true, "identifier<TAB>lineage line detected", nil
			}
			return false, "", nil
		},
	})
}
