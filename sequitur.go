// Package sequitur implements the online Sequitur grammar-induction
// algorithm: it consumes a stream of terminals one at a time and
// incrementally maintains a context-free grammar that represents every
// repeated substring of the stream seen so far as its own production.
//
// This package is a thin facade over internal/grammar, which does the
// actual work. The four documented error Kinds (see Kind below) are all
// returned as ordinary errors by internal/grammar and simply propagate up
// through Append; Append additionally recovers from the handful of
// unrelated defensive panics internal/grammar raises on
// states that should be structurally unreachable (a guard symbol reaching
// a code path built only for its body), turning those into an ordinary
// returned error too, mirroring how the teacher's game engine wraps its
// own internal machinery.
package sequitur

import (
	"fmt"
	"log"

	"github.com/dekarrin/sequitur/internal/grammar"
)

// Error is returned by Sequitur's mutating methods when an internal
// invariant of the grammar has been violated. Its Kind distinguishes the
// specific programming-error category involved.
type Error = grammar.Error

// Kind re-exports the grammar package's error taxonomy.
type Kind = grammar.Kind

const (
	KindDisconnection    = grammar.KindDisconnection
	KindUnknownReference = grammar.KindUnknownReference
	KindNonEmptyDestroy  = grammar.KindNonEmptyDestroy
	KindIndexDesync      = grammar.KindIndexDesync
)

// Sequitur is an incrementally-built grammar over a stream of terminals of
// type T. A *Sequitur is not safe for concurrent use: at most one goroutine
// may call its methods at a time, and Append must never be called
// concurrently with any other method on the same instance (spec.md §5).
type Sequitur[T comparable] struct {
	g *grammar.Grammar[T]
}

// New creates an empty Sequitur over terminals of type T. keyFn must return
// a distinct, stable string for every distinct T value that will ever be
// appended; it is the only assumption the algorithm makes about T beyond
// comparability.
func New[T comparable](keyFn func(T) string) *Sequitur[T] {
	return &Sequitur[T]{g: grammar.New[T](keyFn)}
}

// SetLogger directs debug tracing of rule creation, dissolution, and
// make_unique case selection to l.
func (s *Sequitur[T]) SetLogger(l *log.Logger) {
	s.g.SetLogger(l)
}

// Append appends one terminal to the stream and restores the grammar's
// invariants before returning. It only returns a non-nil error if an
// internal invariant has been violated, which indicates a bug in this
// package rather than anything the caller did. The error unwraps to a
// *grammar.Error (see Kind) when the violation was one of the documented
// categories, or carries a generic message when it was one of the
// defensive panics described on the package doc.
func (s *Sequitur[T]) Append(t T) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = panicToError(rec)
		}
	}()
	return s.g.Append(t)
}

// Walk returns the fully expanded terminal sequence represented by the
// grammar: the original input, reconstructed by recursively inlining every
// rule reference. Walk after every prefix of the input reproduces that
// prefix exactly.
func (s *Sequitur[T]) Walk() []T {
	return s.g.Walk()
}

// WalkFunc streams the expanded terminal sequence to yield without building
// an intermediate slice, stopping early if yield returns false.
func (s *Sequitur[T]) WalkFunc(yield func(T) bool) {
	s.g.WalkFunc(yield)
}

// BodyItem is one element of a rule's body: either a terminal value or a
// reference to another rule by id.
type BodyItem[T comparable] = grammar.BodyItem[T]

// RuleEntry describes one rule in the grammar: its id, body, and current
// refcount.
type RuleEntry[T comparable] = grammar.RuleEntry[T]

// Rules returns every live rule in the grammar, start rule first, in
// ascending id order.
func (s *Sequitur[T]) Rules() []RuleEntry[T] {
	return s.g.Rules()
}

// StartID returns the id of the grammar's start rule.
func (s *Sequitur[T]) StartID() int {
	return s.g.StartID()
}

// RuleDebugEntry re-exports grammar.RuleDebugEntry.
type RuleDebugEntry[T comparable] = grammar.RuleDebugEntry[T]

// DebugDump returns the verbose rule-table dump described in SPEC_FULL.md
// section 4 ("Rule pretty-printing with refcounts"): every live rule's id,
// body, refcount, and the ids of the rule bodies holding each of its
// references. Used by cmd/sqt --verbose.
func (s *Sequitur[T]) DebugDump() []RuleDebugEntry[T] {
	return s.g.DebugDump()
}

func panicToError(rec interface{}) error {
	if ge, ok := rec.(*grammar.Error); ok {
		return ge
	}
	if err, ok := rec.(error); ok {
		return fmt.Errorf("sequitur: internal error: %w", err)
	}
	return fmt.Errorf("sequitur: internal error: %v", rec)
}
