// Package encoding provides shared text encoding and escaping utilities.
package encoding

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// EscapeXML escapes special characters for XML content.
// Uses the standard library's xml.EscapeText for proper escaping.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// EscapeXMLText escapes only the basic XML entities for text content.
// This is a lighter-weight alternative to EscapeXML.
func EscapeXMLText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// EscapeXMLAttr escapes text for use in XML attributes.
// Includes quote escaping in addition to basic XML entities.
func EscapeXMLAttr(s string) string {
	s = EscapeXMLText(s)
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// newickSpecial lists the characters that force a Newick label into
// single quotes: tree syntax, comment brackets, and the quote itself.
const newickSpecial = " \t\n\r()[]{}:;,'"

// NeedsNewickQuoting reports whether a label must be quoted to survive
// a round trip through a Newick parser.
func NeedsNewickQuoting(label string) bool {
	return strings.ContainsAny(label, newickSpecial)
}

// EscapeNewick escapes a node label for Newick output.
// Labels containing structural characters are wrapped in single quotes,
// with embedded quotes doubled per the Newick convention.
func EscapeNewick(label string) string {
	if !NeedsNewickQuoting(label) {
		return label
	}
	return "'" + strings.ReplaceAll(label, "'", "''") + "'"
}
