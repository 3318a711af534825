package grammar

import (
	"io"
	"log"
	"sort"
)

// Grammar is the online Sequitur state machine: a rule table rooted at a
// start rule, plus the digram index that keeps the table's invariants
// (I1: no digram appears twice anywhere in the grammar; I2: no rule other
// than start has fewer than two references) intact after every append.
type Grammar[T comparable] struct {
	table  *table[T]
	idx    *index[T]
	start  *Rule[T]
	logger *log.Logger
}

// New creates an empty grammar. keyFn must produce a distinct, stable
// string for every distinct T value; it is the only thing the core ever
// assumes about the terminal alphabet beyond equality and hashability.
func New[T comparable](keyFn func(T) string) *Grammar[T] {
	g := &Grammar[T]{
		table:  newTable[T](),
		logger: log.New(io.Discard, "", 0),
	}
	g.idx = newIndex[T](keyFn)
	g.start = g.table.allocate(g)
	return g
}

// SetLogger directs the grammar's debug tracing (rule creation, dissolution,
// and make_unique case selection) to l. A nil logger is ignored.
func (g *Grammar[T]) SetLogger(l *log.Logger) {
	if l != nil {
		g.logger = l
	}
}

// Append pushes one terminal onto the end of the start rule and restores
// the grammar's invariants before returning, per spec.md §4.4.
func (g *Grammar[T]) Append(t T) error {
	return g.start.appendTerminal(t)
}

// StartID returns the id of the grammar's start rule, which is exempt from
// invariant I2 and is never itself destroyed.
func (g *Grammar[T]) StartID() int {
	return g.start.id
}

// Walk returns the grammar's fully expanded terminal sequence: the original
// input, reconstructed by recursively inlining every rule reference
// starting from the start rule. Walk(g) after every prefix of an input
// reproduces that prefix exactly — the round-trip law.
func (g *Grammar[T]) Walk() []T {
	var out []T
	g.start.walkInto(&out)
	return out
}

// WalkFunc is the push-style form of Walk: it streams terminals to yield
// without building an intermediate slice, stopping early if yield returns
// false.
func (g *Grammar[T]) WalkFunc(yield func(T) bool) {
	g.start.walkFunc(yield)
}

// BodyItem is one element of a rule's body as reported by Rules(): either a
// terminal value or a reference to another rule by id.
type BodyItem[T comparable] struct {
	IsRuleRef bool
	Terminal  T
	RuleID    int
}

// RuleEntry is one rule as reported by Rules(): its id, body, and current
// refcount. The start rule always reports a refcount of zero, since nothing
// ever references it — it is exempt from invariant I2, not compliant with
// a non-zero version of it.
type RuleEntry[T comparable] struct {
	ID       int
	Body     []BodyItem[T]
	RefCount int
}

// Rules returns every live rule in ascending id order, start rule first.
func (g *Grammar[T]) Rules() []RuleEntry[T] {
	ids := g.table.sortedIDs()
	out := make([]RuleEntry[T], 0, len(ids))
	for _, id := range ids {
		r, _ := g.table.get(id)
		out = append(out, RuleEntry[T]{
			ID:       r.id,
			Body:     bodyItems(r),
			RefCount: r.refcount(),
		})
	}
	return out
}

// RuleDebugEntry is one rule as reported by DebugDump: its id, body, current
// refcount, and the id of the rule body each of its references currently
// lives inside. RefOwners is this package's Go-shaped analogue of the
// original's printed ref-symbol set (SPEC_FULL.md §4, "Rule pretty-printing
// with refcounts") — a raw Symbol pointer means nothing outside this package, but
// the rule that holds it does.
type RuleDebugEntry[T comparable] struct {
	ID        int
	Body      []BodyItem[T]
	RefCount  int
	RefOwners []int
}

// DebugDump returns every live rule's id, body, refcount, and the ids of the
// rule bodies holding each of its references, in ascending rule-id order.
// Used by cmd/sqt --verbose; Rules() remains the minimal public iterator.
func (g *Grammar[T]) DebugDump() []RuleDebugEntry[T] {
	ids := g.table.sortedIDs()
	out := make([]RuleDebugEntry[T], 0, len(ids))
	for _, id := range ids {
		r, _ := g.table.get(id)
		owners := make([]int, 0, len(r.refs))
		for s := range r.refs {
			owners = append(owners, owningRuleID(s))
		}
		sort.Ints(owners)
		out = append(out, RuleDebugEntry[T]{
			ID:        r.id,
			Body:      bodyItems(r),
			RefCount:  r.refcount(),
			RefOwners: owners,
		})
	}
	return out
}

// owningRuleID walks forward from a symbol to the guard that anchors its
// containing rule's body. Every non-guard symbol is reachable from its own
// rule's guard this way, since a rule's body is a circular list.
func owningRuleID[T comparable](s *Symbol[T]) int {
	for !s.isGuard() {
		s = s.right
	}
	return s.rule.id
}

func bodyItems[T comparable](r *Rule[T]) []BodyItem[T] {
	var items []BodyItem[T]
	for s := r.head(); !s.isGuard(); s = s.right {
		if s.kind == kindRuleRef {
			items = append(items, BodyItem[T]{IsRuleRef: true, RuleID: s.rule.id})
		} else {
			items = append(items, BodyItem[T]{Terminal: s.value})
		}
	}
	return items
}

// makeUnique is the driver's central rewrite, invoked whenever the index
// finds that the digram at newPos duplicates the one already recorded at
// oldPos (spec.md §4.4, §9).
func (g *Grammar[T]) makeUnique(oldPos, newPos *Symbol[T]) error {
	// Case A: oldPos's rule body is exactly this digram (nothing but guards
	// on either side), so the digram already has a dedicated production —
	// reuse it instead of minting a new one.
	if oldPos.left.isGuard() && oldPos.right.right.isGuard() {
		oldRule := oldPos.left.rule
		g.logger.Printf("make_unique: reusing rule %d for repeated digram", oldRule.id)
		_, err := oldRule.apply(newPos)
		return err
	}

	// Case B: mint a new rule from the repeated digram.
	a, b, err := oldPos.digram()
	if err != nil {
		return err
	}
	newRule := g.table.allocate(g)
	g.logger.Printf("make_unique: minting rule %d for repeated digram", newRule.id)

	if err := newRule.appendSymbolNoLearn(cloneReferent(a)); err != nil {
		return err
	}
	if err := newRule.appendSymbolNoLearn(cloneReferent(b)); err != nil {
		return err
	}

	// Apply the new rule at both call sites before learning its own
	// internal digram — learning it any earlier would let the index see a
	// digram whose position lies inside a rule that isn't finished being
	// built yet (spec.md §9's resolution of the ordering question).
	if _, err := newRule.apply(oldPos); err != nil {
		return err
	}
	if _, err := newRule.apply(newPos); err != nil {
		return err
	}

	return g.idx.learn(g, newRule.guard.right)
}
