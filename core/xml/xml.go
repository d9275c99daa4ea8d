// Package xml wraps antchfx/xmlquery with the small document surface the
// tree formats need: parsing, well-formedness checks, XPath lookups and
// an indenting printer. Everything stays pure Go.
package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/RefTax/core/encoding"
)

// Document is a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// Node is an element within a Document.
type Node struct {
	node *xmlquery.Node
}

// ValidationResult reports whether a document is well formed.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// ValidationError is one well-formedness finding.
type ValidationError struct {
	Message string
}

// FormatOptions controls the indenting printer.
type FormatOptions struct {
	// Indent is the per-level indentation string. Two spaces when empty.
	Indent string
}

// Parse reads a document into queryable form.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// Validate checks data for well-formedness by walking its token stream.
// Entity expansion is disabled, so entity-based input cannot blow up or
// reach out of the document.
func Validate(data []byte) ValidationResult {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}

	for {
		if _, err := dec.Token(); err != nil {
			if err == io.EOF {
				return ValidationResult{Valid: true}
			}
			return ValidationResult{
				Errors: []ValidationError{{Message: err.Error()}},
			}
		}
	}
}

// Format re-renders a document with one element per line and nested
// elements indented.
func Format(data []byte, opts FormatOptions) ([]byte, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}

	p := printer{indent: opts.Indent}
	if p.indent == "" {
		p.indent = "  "
	}
	p.node(doc.root, 0)
	return p.buf.Bytes(), nil
}

// printer renders an xmlquery tree back to text.
type printer struct {
	buf    bytes.Buffer
	indent string
}

func (p *printer) pad(depth int) {
	for i := 0; i < depth; i++ {
		p.buf.WriteString(p.indent)
	}
}

func (p *printer) node(n *xmlquery.Node, depth int) {
	switch n.Type {
	case xmlquery.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			p.node(c, depth)
		}
	case xmlquery.DeclarationNode:
		p.declaration(n)
	case xmlquery.ElementNode:
		p.element(n, depth)
	case xmlquery.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			p.buf.WriteString(encoding.EscapeXMLText(text))
		}
	case xmlquery.CommentNode:
		p.pad(depth)
		p.buf.WriteString("<!--")
		p.buf.WriteString(n.Data)
		p.buf.WriteString("-->\n")
	}
}

func (p *printer) declaration(n *xmlquery.Node) {
	p.buf.WriteString("<?xml")
	for _, attr := range n.Attr {
		p.buf.WriteString(" " + attr.Name.Local + `="` + encoding.EscapeXMLAttr(attr.Value) + `"`)
	}
	p.buf.WriteString("?>\n")
}

func (p *printer) element(n *xmlquery.Node, depth int) {
	p.pad(depth)
	p.buf.WriteString("<")
	p.buf.WriteString(qualifiedName(n))
	for _, attr := range n.Attr {
		p.buf.WriteString(" ")
		switch {
		case attr.Name.Space != "":
			p.buf.WriteString("xmlns:" + attr.Name.Local)
		case attr.Name.Local != "":
			p.buf.WriteString(attr.Name.Local)
		}
		p.buf.WriteString(`="` + encoding.EscapeXMLAttr(attr.Value) + `"`)
	}

	if n.FirstChild == nil {
		p.buf.WriteString("/>\n")
		return
	}

	nested := false
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			nested = true
			break
		}
	}

	p.buf.WriteString(">")
	if nested {
		p.buf.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.ElementNode:
			p.element(c, depth+1)
		case xmlquery.TextNode:
			if strings.TrimSpace(c.Data) == "" {
				continue
			}
			if nested {
				p.pad(depth + 1)
			}
			p.buf.WriteString(encoding.EscapeXMLText(c.Data))
			if nested {
				p.buf.WriteString("\n")
			}
		case xmlquery.CharDataNode:
			p.buf.WriteString("<![CDATA[")
			p.buf.WriteString(c.Data)
			p.buf.WriteString("]]>")
		}
	}
	if nested {
		p.pad(depth)
	}
	p.buf.WriteString("</" + qualifiedName(n) + ">\n")
}

func qualifiedName(n *xmlquery.Node) string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Data
	}
	return n.Data
}

// Root returns the document's outermost element, or nil for an empty
// document.
func (d *Document) Root() *Node {
	if d.root == nil {
		return nil
	}
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return &Node{node: c}
		}
	}
	return nil
}

// compile rejects malformed XPath expressions up front so query errors
// stay distinguishable from empty results.
func compile(expr string) error {
	if _, err := xpath.Compile(expr); err != nil {
		return fmt.Errorf("invalid xpath: %w", err)
	}
	return nil
}

// XPath returns every node matching the expression.
func (d *Document) XPath(expr string) ([]*Node, error) {
	if err := compile(expr); err != nil {
		return nil, err
	}
	nodes, err := xmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = &Node{node: n}
	}
	return out, nil
}

// XPathFirst returns the first node matching the expression, or nil when
// nothing matches.
func (d *Document) XPathFirst(expr string) (*Node, error) {
	if err := compile(expr); err != nil {
		return nil, err
	}
	n, err := xmlquery.Query(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	if n == nil {
		return nil, nil
	}
	return &Node{node: n}, nil
}

// Name returns the element name.
func (n *Node) Name() string {
	if n.node == nil {
		return ""
	}
	return n.node.Data
}

// Text returns the concatenated text of the node and its descendants.
func (n *Node) Text() string {
	if n.node == nil {
		return ""
	}
	return n.node.InnerText()
}

// Children returns the node's element children, other node types skipped.
func (n *Node) Children() []*Node {
	if n.node == nil {
		return nil
	}
	var out []*Node
	for c := n.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, &Node{node: c})
		}
	}
	return out
}

// Attr returns the value of the named attribute, or "".
func (n *Node) Attr(name string) string {
	if n.node == nil {
		return ""
	}
	return n.node.SelectAttr(name)
}
