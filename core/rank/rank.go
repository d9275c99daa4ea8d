// Package rank defines the canonical taxonomic rank ladder and per-code
// rank recognition tables used to infer which canonical level a free-text
// rank name represents.
package rank

import (
	"regexp"
	"sort"
	"strings"

	"github.com/FocuswithJustin/RefTax/core/errors"
)

// Level is a position in the canonical 22-level taxonomy ladder (1-based).
// The zero value means the level could not be determined.
type Level int

// Canonical rank levels.
const (
	Unknown     Level = 0
	Kingdom     Level = 1
	Phylum      Level = 2
	Subphylum   Level = 3
	Class       Level = 4
	Subclass    Level = 5
	Superorder  Level = 6
	Order       Level = 7
	Suborder    Level = 8
	Infraorder  Level = 9
	Superfamily Level = 10
	Epifamily   Level = 11
	Family      Level = 12
	Subfamily   Level = 13
	Infrafamily Level = 14
	Tribe       Level = 15
	Subtribe    Level = 16
	Infratribe  Level = 17
	Genus       Level = 18
	Species     Level = 19
	Subspecies  Level = 20
	Strain      Level = 21
	Isolate     Level = 22
)

// NumLevels is the depth of the canonical ladder.
const NumLevels = 22

// levelInfo carries the display name and placeholder prefix of a level.
type levelInfo struct {
	name   string
	prefix string
}

var canonicalLevels = map[Level]levelInfo{
	Kingdom:     {"Kingdom", "k__"},
	Phylum:      {"Phylum", "p__"},
	Subphylum:   {"Subphylum", "a__"},
	Class:       {"Class", "c__"},
	Subclass:    {"Subclass", "d__"},
	Superorder:  {"Superorder", "e__"},
	Order:       {"Order", "o__"},
	Suborder:    {"Suborder", "h__"},
	Infraorder:  {"Infraorder", "i__"},
	Superfamily: {"Superfamily", "j__"},
	Epifamily:   {"Epifamily", "l__"},
	Family:      {"Family", "f__"},
	Subfamily:   {"Subfamily", "m__"},
	Infrafamily: {"Infrafamily", "n__"},
	Tribe:       {"Tribe", "t__"},
	Subtribe:    {"Subtribe", "u__"},
	Infratribe:  {"Infratribe", "v__"},
	Genus:       {"Genus", "g__"},
	Species:     {"Species", "s__"},
	Subspecies:  {"Subspecies", "b__"},
	Strain:      {"Strain", "r__"},
	Isolate:     {"Isolate", "q__"},
}

// StandardBackbone lists the seven levels of the standard backbone
// (the normalized target depth for reconciled classifications), ascending.
var StandardBackbone = []Level{Kingdom, Phylum, Class, Order, Family, Genus, Species}

// standardSet provides O(1) backbone membership checks.
var standardSet = map[Level]bool{
	Kingdom: true,
	Phylum:  true,
	Class:   true,
	Order:   true,
	Family:  true,
	Genus:   true,
	Species: true,
}

// StandardPlaceholders are the placeholder prefixes of the standard
// backbone, in backbone order. Loaders treat a bare placeholder token in a
// lineage as an unassigned rank.
var StandardPlaceholders = []string{"k__", "p__", "c__", "o__", "f__", "g__", "s__"}

// IsStandard reports whether l belongs to the standard backbone.
func IsStandard(l Level) bool {
	return standardSet[l]
}

// LevelName returns the display name and placeholder prefix of a canonical
// level. Unknown levels yield ("Unknown", "?__").
func LevelName(l Level) (name, prefix string) {
	info, ok := canonicalLevels[l]
	if !ok {
		return "Unknown", "?__"
	}
	return info.name, info.prefix
}

// LevelByName resolves a display name (case-insensitive) to its canonical
// level. The second result is false when the name is not canonical.
func LevelByName(name string) (Level, bool) {
	for l, info := range canonicalLevels {
		if strings.EqualFold(info.name, name) {
			return l, true
		}
	}
	return Unknown, false
}

// Code identifies a nomenclature code (a naming-convention ruleset).
type Code string

// Registered nomenclature codes.
const (
	CodeBacterial  Code = "bac"
	CodeBotanical  Code = "bot"
	CodeZoological Code = "zoo"
	CodeViral      Code = "vir"
)

// rule holds the recognized name suffixes and exact-match names of one
// canonical level under one nomenclature code.
type rule struct {
	suffixes []string
	exact    []string
}

var bacterialRules = map[Level]rule{
	Kingdom:    {exact: []string{"bacteria", "archaea"}},
	Phylum:     {},
	Class:      {},
	Subclass:   {suffixes: []string{"idae"}},
	Order:      {suffixes: []string{"ales"}},
	Suborder:   {suffixes: []string{"ineae"}},
	Family:     {suffixes: []string{"aceae"}},
	Subfamily:  {suffixes: []string{"oideae"}},
	Genus:      {},
	Species:    {},
	Subspecies: {},
	Strain:     {},
	Isolate:    {},
}

var botanicalRules = map[Level]rule{
	Kingdom:     {exact: []string{"plantae", "algae", "fungi"}},
	Phylum:      {suffixes: []string{"phyta", "phycota", "mycota"}},
	Subphylum:   {suffixes: []string{"phytina", "phycotina", "mycotina"}},
	Class:       {suffixes: []string{"opsida", "phyceae", "mycetes"}},
	Subclass:    {suffixes: []string{"idae", "phycidae", "mycetidae"}},
	Superorder:  {suffixes: []string{"anae"}},
	Order:       {suffixes: []string{"ales"}},
	Suborder:    {suffixes: []string{"ineae"}},
	Infraorder:  {suffixes: []string{"aria"}},
	Superfamily: {suffixes: []string{"acea"}},
	Family:      {suffixes: []string{"aceae"}},
	Subfamily:   {suffixes: []string{"oideae"}},
	Tribe:       {suffixes: []string{"eae"}},
	Subtribe:    {suffixes: []string{"inae"}},
	Genus:       {},
	Species:     {},
	Subspecies:  {},
	Strain:      {},
	Isolate:     {},
}

var zoologicalRules = map[Level]rule{
	Kingdom:     {exact: []string{"animalia"}},
	Phylum:      {exact: []string{"chordata", "arthropoda", "mollusca", "nematoda"}},
	Subphylum:   {exact: []string{"vertebrata", "myriapoda", "crustacea", "hexapoda"}},
	Class:       {exact: []string{"mammalia", "aves", "reptilia", "amphibia", "insecta"}},
	Subclass:    {},
	Superorder:  {},
	Order:       {},
	Suborder:    {},
	Infraorder:  {},
	Superfamily: {suffixes: []string{"oidea"}},
	Epifamily:   {suffixes: []string{"oidae"}},
	Family:      {suffixes: []string{"idae"}},
	Subfamily:   {suffixes: []string{"odd"}},
	Tribe:       {suffixes: []string{"ini"}},
	Subtribe:    {suffixes: []string{"ina"}},
	Infratribe:  {suffixes: []string{"ad", "iti"}},
	Genus:       {},
	Species:     {},
	Subspecies:  {},
	Strain:      {},
	Isolate:     {},
}

var viralRules = map[Level]rule{
	Kingdom:   {exact: []string{"viruses"}},
	Class:     {},
	Subclass:  {suffixes: []string{"idae"}},
	Order:     {suffixes: []string{"virales"}},
	Family:    {suffixes: []string{"viridae"}},
	Subfamily: {suffixes: []string{"virinae"}},
	Genus:     {suffixes: []string{"virus"}},
	Species:   {suffixes: []string{" virus"}},
	Strain:    {},
	Isolate:   {},
}

// codeRules maps each nomenclature code to its recognition table.
var codeRules = map[Code]map[Level]rule{
	CodeBacterial:  bacterialRules,
	CodeBotanical:  botanicalRules,
	CodeZoological: zoologicalRules,
	CodeViral:      viralRules,
}

// Codes returns the registered nomenclature code names, sorted.
func Codes() []string {
	names := make([]string, 0, len(codeRules))
	for c := range codeRules {
		names = append(names, string(c))
	}
	sort.Strings(names)
	return names
}

// nonAlnum matches everything normalization strips from a rank name before
// suffix/exact comparison.
var nonAlnum = regexp.MustCompile(`[\W_]+`)

// normalizeName lowercases a rank name and strips every non-alphanumeric
// character.
func normalizeName(name string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(name), "")
}

// Table provides rank-level inference under one nomenclature code.
type Table struct {
	code   Code
	rules  map[Level]rule
	levels []Level // levels present in the table, ascending
}

// NewTable builds the inference table for the named nomenclature code.
// The name is matched case-insensitively. An unrecognized name yields an
// UnknownCodeError and no table.
func NewTable(code string) (*Table, error) {
	rules, ok := codeRules[Code(strings.ToLower(code))]
	if !ok {
		return nil, errors.NewUnknownCode(code)
	}

	levels := make([]Level, 0, len(rules))
	for l := range rules {
		levels = append(levels, l)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	return &Table{
		code:   Code(strings.ToLower(code)),
		rules:  rules,
		levels: levels,
	}, nil
}

// Code returns the nomenclature code this table was built for.
func (t *Table) Code() Code {
	return t.code
}

// GuessLevel infers the canonical level of the rank name at position idx of
// a rank path. Matching is attempted against each level's suffix and exact
// sets in ascending level order. When the name itself is unrecognized, the
// root position defaults to Kingdom; any other position is resolved from its
// parent: the parent's level is inferred recursively and the smallest
// standard-backbone level after it in the table is used as a positional
// fallback. Returns Unknown when no level can be determined either way.
func (t *Table) GuessLevel(ranks []string, idx int) Level {
	if idx < 0 || idx >= len(ranks) {
		return Unknown
	}
	name := normalizeName(ranks[idx])

	for _, lvl := range t.levels {
		r := t.rules[lvl]
		if matchesSuffix(name, r.suffixes) || matchesExact(name, r.exact) {
			return lvl
		}
	}

	// Name-based identification failed: derive the level from the parent.
	if idx == 0 {
		return Kingdom
	}
	parent := t.GuessLevel(ranks, idx-1)
	if parent == Unknown {
		return Unknown
	}
	pos := -1
	for i, lvl := range t.levels {
		if lvl == parent {
			pos = i
			break
		}
	}
	if pos < 0 {
		return Unknown
	}
	for _, lvl := range t.levels[pos+1:] {
		if standardSet[lvl] {
			return lvl
		}
	}
	return Unknown
}

// GuessLevelName composes GuessLevel with LevelName.
func (t *Table) GuessLevelName(ranks []string, idx int) (name, prefix string) {
	return LevelName(t.GuessLevel(ranks, idx))
}

func matchesSuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

func matchesExact(name string, exact []string) bool {
	for _, e := range exact {
		if name == e {
			return true
		}
	}
	return false
}
