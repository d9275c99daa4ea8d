// Package newick serializes taxonomy trees in the Newick format consumed
// by phylogenetic placement tools. Trees are written with labels only;
// reconciled taxonomies carry no branch lengths.
package newick

import (
	"strings"

	"github.com/FocuswithJustin/RefTax/internal/formats/base"
)

// FormatName identifies this handler in the registry.
const FormatName = "newick"

func init() {
	base.Register(handler{})
}

type handler struct{}

func (handler) Name() string { return FormatName }

func (handler) Extensions() []string {
	return []string{".nwk", ".newick", ".tree", ".tre"}
}

func (handler) Detect(path string) (*base.DetectResult, error) {
	return base.DetectFile(path, base.DetectConfig{
		Extensions:   []string{".nwk", ".newick", ".tree", ".tre"},
		FormatName:   FormatName,
		CheckContent: true,
		CustomValidator: func(_ string, data []byte) (bool, string, error) {
			if strings.HasPrefix(base.FirstLine(data), "(") {
				return true, "Newick tree structure detected", nil
			}
			return false, "", nil
		},
	})
}
