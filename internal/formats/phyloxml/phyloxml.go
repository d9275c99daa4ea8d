package phyloxml

import (
	"strings"

	"github.com/FocuswithJustin/RefTax/core/encoding"
	"github.com/FocuswithJustin/RefTax/core/errors"
	"github.com/FocuswithJustin/RefTax/core/taxtree"
	"github.com/FocuswithJustin/RefTax/core/xml"
	"github.com/FocuswithJustin/RefTax/internal/archive"
)

// Marshal renders a tree as an indented phyloXML document holding a
// single rooted phylogeny. The synthetic root becomes the outermost
// clade; it carries a name only when labeled.
func Marshal(root *taxtree.Node) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sb.WriteString(`<phyloxml xmlns="` + Namespace + `"><phylogeny rooted="true">`)
	writeClade(&sb, root)
	sb.WriteString(`</phylogeny></phyloxml>`)

	return xml.Format([]byte(sb.String()), xml.FormatOptions{})
}

func writeClade(sb *strings.Builder, n *taxtree.Node) {
	sb.WriteString("<clade>")
	if n.Label != "" {
		sb.WriteString("<name>")
		sb.WriteString(encoding.EscapeXMLText(n.Label))
		sb.WriteString("</name>")
	}
	for _, c := range n.Children {
		writeClade(sb, c)
	}
	sb.WriteString("</clade>")
}

// Write persists a tree as phyloXML at path, compressing transparently
// when the path asks for it.
func Write(path string, root *taxtree.Node) error {
	data, err := Marshal(root)
	if err != nil {
		return err
	}
	if err := archive.WriteFile(path, data); err != nil {
		return errors.NewIO("write", path, err)
	}
	return nil
}

// Read parses the first phylogeny of a phyloXML document back into a
// tree. The outermost clade becomes the synthetic root; deeper clades
// keep their names as labels. Input may be plain, gzip or xz compressed.
func Read(path string) (*taxtree.Node, error) {
	data, err := archive.ReadAll(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}

	doc, err := xml.Parse(data)
	if err != nil {
		return nil, errors.NewParse(FormatName, path, err.Error())
	}

	phylogeny, err := doc.XPathFirst("//phylogeny")
	if err != nil {
		return nil, errors.NewParse(FormatName, path, err.Error())
	}
	if phylogeny == nil {
		return nil, errors.NewParse(FormatName, path, "no phylogeny element")
	}

	var outer *xml.Node
	for _, c := range phylogeny.Children() {
		if c.Name() != "clade" {
			continue
		}
		if outer != nil {
			return nil, errors.NewParse(FormatName, path, "phylogeny has more than one root clade")
		}
		outer = c
	}
	if outer == nil {
		return nil, errors.NewParse(FormatName, path, "phylogeny has no clade")
	}

	root := taxtree.NewRoot()
	root.Label = cladeName(outer)
	buildChildren(root, outer)
	return root, nil
}

// cladeName returns the text of a clade's own name element, if any.
func cladeName(clade *xml.Node) string {
	for _, c := range clade.Children() {
		if c.Name() == "name" {
			return strings.TrimSpace(c.Text())
		}
	}
	return ""
}

func buildChildren(parent *taxtree.Node, clade *xml.Node) {
	for _, c := range clade.Children() {
		if c.Name() != "clade" {
			continue
		}
		buildChildren(parent.AddChild(cladeName(c)), c)
	}
}
