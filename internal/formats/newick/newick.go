package newick

import (
	"strings"

	"github.com/FocuswithJustin/RefTax/core/encoding"
	"github.com/FocuswithJustin/RefTax/core/errors"
	"github.com/FocuswithJustin/RefTax/core/taxtree"
	"github.com/FocuswithJustin/RefTax/internal/archive"
)

// Marshal renders a tree as a single Newick statement terminated by a
// newline. Labels that contain structural characters are quoted; the
// synthetic root stays unlabeled.
func Marshal(root *taxtree.Node) []byte {
	var sb strings.Builder
	writeNode(&sb, root)
	sb.WriteString(";\n")
	return []byte(sb.String())
}

func writeNode(sb *strings.Builder, n *taxtree.Node) {
	if !n.IsLeaf() {
		sb.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeNode(sb, c)
		}
		sb.WriteByte(')')
	}
	if !n.Root {
		sb.WriteString(encoding.EscapeNewick(n.Label))
	}
}

// Write persists a tree at path, compressing transparently when the path
// asks for it.
func Write(path string, root *taxtree.Node) error {
	w, err := archive.Create(path)
	if err != nil {
		return errors.NewIO("create", path, err)
	}
	if _, err := w.Write(Marshal(root)); err != nil {
		w.Close()
		return errors.NewIO("write", path, err)
	}
	if err := w.Close(); err != nil {
		return errors.NewIO("close", path, err)
	}
	return nil
}
