package taxtree

import (
	"strconv"

	"github.com/FocuswithJustin/RefTax/core/errors"
	"github.com/FocuswithJustin/RefTax/core/taxonomy"
)

// progressInterval is how many candidate sequences are processed between
// progress callbacks.
const progressInterval = 1000

// Config controls which sequences a build accepts and how the tree is
// assembled.
type Config struct {
	// MinRank is the zero-based path position that must be assigned for a
	// sequence to be included at all.
	MinRank int

	// MaxSeqsPerLeaf caps how many sequences may attach to one immediate
	// parent clade; zero or negative means unlimited. The cap applies only
	// when the parent is the position directly above the leaf, so clades
	// reduced by gap-closing or merging are never starved.
	MaxSeqsPerLeaf int

	// Include accepts a sequence when any filter matches its path; an
	// empty list accepts all.
	Include []CladeFilter

	// Ignore rejects an already-accepted sequence when any filter matches.
	Ignore []CladeFilter

	// Progress, when set, receives running counts every progressInterval
	// processed sequences.
	Progress func(processed, added, skipped int)

	// OnUnpruned, when set, receives the finished tree before unary nodes
	// are collapsed.
	OnUnpruned func(*Node)
}

func (c Config) validate() error {
	if c.MinRank < 0 || c.MinRank >= taxonomy.MaxLevels {
		return errors.NewValidation("min-rank", "must be between 0 and "+strconv.Itoa(taxonomy.MaxLevels-1))
	}
	return nil
}

// Builder assembles a taxonomy tree from a reconciled store. The store is
// read, never mutated; run the reconciliation passes first.
type Builder struct {
	tax       *taxonomy.Taxonomy
	cfg       Config
	root      *Node
	nodes     map[string]*Node
	leafTally map[string]int
}

// NewBuilder returns a builder over the given store.
func NewBuilder(tax *taxonomy.Taxonomy, cfg Config) *Builder {
	return &Builder{tax: tax, cfg: cfg}
}

// Build walks every sequence in identifier order, applies the rank and
// clade filters, enforces the per-parent quota, and inserts survivors as
// leaves under their lineage chain. Missing ancestors are created on
// demand and memoized by lineage key, so an ancestor shared by any number
// of paths is created exactly once. After the walk, unary chains left by
// gap-closing are collapsed. Returns the root and the accepted sequence
// identifiers in insertion order.
func (b *Builder) Build() (*Node, []string, error) {
	if err := b.cfg.validate(); err != nil {
		return nil, nil, err
	}
	b.root = NewRoot()
	b.nodes = make(map[string]*Node)
	b.leafTally = make(map[string]int)

	var accepted []string
	processed := 0
	for _, sid := range b.tax.SeqIDs() {
		ranks, err := b.tax.SeqRanks(sid)
		if err != nil {
			return nil, nil, err
		}
		processed++
		if b.cfg.Progress != nil && processed%progressInterval == 0 {
			b.cfg.Progress(processed, len(accepted), processed-len(accepted))
		}

		if b.cfg.MinRank >= len(ranks) || ranks[b.cfg.MinRank] == taxonomy.EmptyRank {
			continue
		}
		if len(b.cfg.Include) > 0 && !matchesAny(b.cfg.Include, ranks) {
			continue
		}
		if matchesAny(b.cfg.Ignore, ranks) {
			continue
		}

		parentLevel := taxonomy.LowestAssignedRankLevel(ranks)
		parentKey := taxonomy.RankUIDAt(ranks, parentLevel)

		// The quota counts siblings under an existing immediate parent;
		// the first sequence of a clade is always admitted.
		if _, exists := b.nodes[parentKey]; exists &&
			b.cfg.MaxSeqsPerLeaf > 0 && parentLevel == len(ranks)-1 &&
			b.leafTally[parentKey] >= b.cfg.MaxSeqsPerLeaf {
			continue
		}
		b.leafTally[parentKey]++

		parent := b.lookupNode(ranks, parentLevel)
		parent.AddChild(sid)
		accepted = append(accepted, sid)
	}

	if b.cfg.OnUnpruned != nil {
		b.cfg.OnUnpruned(b.root)
	}
	CollapseUnary(b.root)
	return b.root, accepted, nil
}

// lookupNode returns the clade node for the path prefix ending at level,
// creating and memoizing it and any missing ancestors. Levels holding the
// empty marker are skipped downward; below the root-most position the
// synthetic root is returned.
func (b *Builder) lookupNode(ranks []string, level int) *Node {
	for level >= 0 && ranks[level] == taxonomy.EmptyRank {
		level--
	}
	if level < 0 {
		return b.root
	}
	key := taxonomy.RankUIDAt(ranks, level)
	if n, ok := b.nodes[key]; ok {
		return n
	}
	parent := b.lookupNode(ranks, level-1)
	n := parent.AddChild(key)
	b.nodes[key] = n
	return n
}
