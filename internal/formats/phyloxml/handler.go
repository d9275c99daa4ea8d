// Package phyloxml reads and writes taxonomy trees as phyloXML
// documents. Only the clade structure and clade names are carried;
// branch lengths, support values and annotations are out of scope for
// reconciled taxonomies.
package phyloxml

import (
	"strings"

	"github.com/FocuswithJustin/RefTax/core/xml"
	"github.com/FocuswithJustin/RefTax/internal/formats/base"
)

// FormatName identifies this handler in the registry.
const FormatName = "phyloxml"

// Namespace is the phyloXML document namespace.
const Namespace = "http://www.phyloxml.org"

func init() {
	base.Register(handler{})
}

type handler struct{}

func (handler) Name() string { return FormatName }

func (handler) Extensions() []string { return []string{".xml", ".phyloxml"} }

func (handler) Detect(path string) (*base.DetectResult, error) {
	return base.DetectFile(path, base.DetectConfig{
		Extensions:   []string{".xml", ".phyloxml"},
		FormatName:   FormatName,
		CheckContent: true,
		CustomValidator: func(_ string, data []byte) (bool, string, error) {
			if strings.Contains(string(data), "<phyloxml") && xml.Validate(data).Valid {
				return true, "phyloXML document detected", nil
			}
			return false, "", nil
		},
	})
}
