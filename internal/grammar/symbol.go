package grammar

// kind distinguishes the three roles a Symbol can play in a rule body.
type kind int

const (
	kindTerminal kind = iota
	kindRuleRef
	kindGuard
)

// Symbol is one node of a rule's circular, guard-anchored doubly-linked
// list. A disconnected Symbol has left and right both pointing at itself;
// this is the zero-degree case used both for brand new nodes and for nodes
// that have just been spliced out and not yet reused.
type Symbol[T comparable] struct {
	left, right *Symbol[T]

	kind  kind
	value T             // valid when kind == kindTerminal
	rule  *Rule[T]       // valid when kind == kindRuleRef (target) or kindGuard (owner)
}

func newDisconnected[T comparable](k kind) *Symbol[T] {
	s := &Symbol[T]{kind: k}
	s.left, s.right = s, s
	return s
}

func newTerminal[T comparable](v T) *Symbol[T] {
	s := newDisconnected[T](kindTerminal)
	s.value = v
	return s
}

// newRuleRef creates a new occurrence referencing target and registers it
// in target's refs set. It does not splice the symbol into any list.
func newRuleRef[T comparable](target *Rule[T]) *Symbol[T] {
	s := newDisconnected[T](kindRuleRef)
	s.rule = target
	target.addref(s)
	return s
}

// newGuard creates the sentinel node anchoring owner's body list.
func newGuard[T comparable](owner *Rule[T]) *Symbol[T] {
	s := newDisconnected[T](kindGuard)
	s.rule = owner
	return s
}

func (s *Symbol[T]) isGuard() bool {
	return s.kind == kindGuard
}

func (s *Symbol[T]) isDisconnected() bool {
	return s.left == s && s.right == s
}

// cloneReferent creates a brand new, disconnected Symbol carrying the same
// referent as s: the same terminal value, or a fresh occurrence of the same
// rule reference. s itself is left untouched.
func cloneReferent[T comparable](s *Symbol[T]) *Symbol[T] {
	switch s.kind {
	case kindTerminal:
		return newTerminal(s.value)
	case kindRuleRef:
		return newRuleRef(s.rule)
	default:
		panic("sequitur: cannot clone a guard symbol")
	}
}

// digram returns the pair (s, s.right), failing if either side is a guard
// or if s is not actually connected to anything.
func (s *Symbol[T]) digram() (*Symbol[T], *Symbol[T], error) {
	if s.isGuard() {
		return nil, nil, errDisconnection("digram: left side of window is a rule guard")
	}
	if s.isDisconnected() {
		return nil, nil, errDisconnection("digram: symbol is not connected to a rule body")
	}
	if s.right.isGuard() {
		return nil, nil, errDisconnection("digram: right side of window is a rule guard")
	}
	return s, s.right, nil
}

// insertRight splices t, which must be disconnected, immediately after s.
func insertRight[T comparable](s, t *Symbol[T]) error {
	if !t.isDisconnected() {
		return errDisconnection("insert_right: new symbol is already connected")
	}
	old := s.right
	s.right = t
	t.left = s
	t.right = old
	old.left = t
	return nil
}

// detachPair removes the two-node window (a, b) — which must be adjacent,
// a.right == b — from its list, leaving a and b individually disconnected,
// and returns the neighbours the window used to sit between.
func detachPair[T comparable](a, b *Symbol[T]) (prev, next *Symbol[T]) {
	prev = a.left
	next = b.right
	prev.right = next
	next.left = prev
	a.left, a.right = a, a
	b.left, b.right = b, b
	return prev, next
}

// spliceBetween connects prev -> mid -> next. mid must be disconnected.
func spliceBetween[T comparable](prev, next, mid *Symbol[T]) error {
	if !mid.isDisconnected() {
		return errDisconnection("splice_between: symbol is already connected")
	}
	prev.right = mid
	mid.left = prev
	mid.right = next
	next.left = mid
	return nil
}

// detachChain removes the chain [first..last] (first == last is the
// single-node case) from its list, returning its former neighbours. The
// outward-facing pointers of the endpoints are self-looped; the internal
// links of the chain are left untouched.
func detachChain[T comparable](first, last *Symbol[T]) (prev, next *Symbol[T]) {
	prev = first.left
	next = last.right
	prev.right = next
	next.left = prev
	first.left = first
	last.right = last
	return prev, next
}

// spliceChainBetween connects prev -> first ... last -> next.
func spliceChainBetween[T comparable](prev, next, first, last *Symbol[T]) {
	prev.right = first
	first.left = prev
	last.right = next
	next.left = last
}
