package taxtree

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/RefTax/core/errors"
	"github.com/FocuswithJustin/RefTax/core/rank"
	"github.com/FocuswithJustin/RefTax/core/taxonomy"
)

// filterGrammar is the participle grammar for clade filter expressions.
// Examples: "2:Clostridia", "class:Clostridia", `species:"Blautia producta"`
type filterGrammar struct {
	LevelNum  *int    `parser:"( @Int"`
	LevelName *string `parser:"| @Ident | @Name ) \":\""`
	Quoted    *string `parser:"( @String"`
	Bare      *string `parser:"| @Name | @Ident )"`
}

// filterLexer tokenizes clade filter expressions. Bare names may carry the
// underscores and dots that reconciliation introduces; anything else must
// be quoted.
var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Int", Pattern: `[0-9]+\b`},
	{Name: "Ident", Pattern: `[a-z]+\b`},
	{Name: "Name", Pattern: `[A-Za-z0-9][A-Za-z0-9_.\-]*`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var filterParser = participle.MustBuild[filterGrammar](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
)

// ParseCladeFilter parses one filter expression of the form "level:name".
// The level is either a zero-based path position or the name of a standard
// backbone rank (kingdom, phylum, class, order, family, genus, species);
// the clade name may be double-quoted when it contains spaces or
// punctuation.
func ParseCladeFilter(s string) (CladeFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CladeFilter{}, errors.NewValidation("clade filter", "must not be empty")
	}
	parsed, err := filterParser.ParseString("", s)
	if err != nil {
		return CladeFilter{}, errors.NewParse("clade filter", "", err.Error())
	}

	var level int
	switch {
	case parsed.LevelNum != nil:
		level = *parsed.LevelNum
		if level >= taxonomy.MaxLevels {
			return CladeFilter{}, errors.NewValidation("clade filter",
				"level "+strconv.Itoa(level)+" is beyond the deepest supported rank")
		}
	case parsed.LevelName != nil:
		idx, ok := backboneIndex(*parsed.LevelName)
		if !ok {
			return CladeFilter{}, errors.NewValidation("clade filter",
				"unknown rank name "+strconv.Quote(*parsed.LevelName))
		}
		level = idx
	}

	var name string
	switch {
	case parsed.Quoted != nil:
		name, err = strconv.Unquote(*parsed.Quoted)
		if err != nil {
			return CladeFilter{}, errors.NewParse("clade filter", "", "bad quoting: "+err.Error())
		}
	case parsed.Bare != nil:
		name = *parsed.Bare
	}
	if name == "" {
		return CladeFilter{}, errors.NewValidation("clade filter", "clade name must not be empty")
	}
	return CladeFilter{Level: level, Name: name}, nil
}

// ParseCladeFilters parses a list of filter expressions.
func ParseCladeFilters(exprs []string) ([]CladeFilter, error) {
	filters := make([]CladeFilter, 0, len(exprs))
	for _, e := range exprs {
		f, err := ParseCladeFilter(e)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// backboneIndex maps a standard backbone rank name to its position in a
// 7-level path.
func backboneIndex(name string) (int, bool) {
	level, ok := rank.LevelByName(name)
	if !ok {
		return 0, false
	}
	for i, l := range rank.StandardBackbone {
		if l == level {
			return i, true
		}
	}
	return 0, false
}
