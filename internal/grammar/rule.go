package grammar

import "strconv"

// Rule is one production: a circular, guard-anchored list of Symbols (its
// body) plus the set of occurrences elsewhere in the grammar that reference
// it. A Rule with fewer than two refs is not allowed to persist — this is
// invariant I2 — except for the grammar's own start rule, which is exempt
// and never referenced, dissolved, or destroyed.
type Rule[T comparable] struct {
	id    int
	guard *Symbol[T]
	refs  map[*Symbol[T]]struct{}
	g     *Grammar[T]
}

func (r *Rule[T]) head() *Symbol[T] { return r.guard.right }
func (r *Rule[T]) tail() *Symbol[T] { return r.guard.left }

func (r *Rule[T]) isEmpty() bool {
	return r.guard.right == r.guard
}

func (r *Rule[T]) refcount() int {
	return len(r.refs)
}

func (r *Rule[T]) addref(s *Symbol[T]) {
	r.refs[s] = struct{}{}
}

// referentKey is this rule's own identity as it would appear on the right
// or left of a digram key: any Symbol referencing it produces this string.
func (r *Rule[T]) referentKey() string {
	return markerRule + strconv.Itoa(r.id)
}

// appendSymbolLearning splices sym onto the tail of r's body and learns the
// digram newly formed with the previous tail, possibly cascading into
// make_unique. Used for ordinary terminal/ruleref appends.
func (r *Rule[T]) appendSymbolLearning(sym *Symbol[T]) error {
	prevTail := r.guard.left
	if err := insertRight(prevTail, sym); err != nil {
		return err
	}
	return r.g.idx.learn(r.g, prevTail)
}

// appendSymbolNoLearn splices sym onto the tail of r's body without
// learning the new digram. Used only while constructing a brand new rule's
// initial two-symbol body in make_unique's Case B, where the single
// internal digram must be learned exactly once, after both replacements
// have gone in at the call sites (spec.md §9).
func (r *Rule[T]) appendSymbolNoLearn(sym *Symbol[T]) error {
	prevTail := r.guard.left
	return insertRight(prevTail, sym)
}

func (r *Rule[T]) appendTerminal(t T) error {
	return r.appendSymbolLearning(newTerminal(t))
}

// apply replaces the two-symbol window at pos with a new occurrence
// referencing r, per spec.md §4.3. It returns the new occurrence.
func (r *Rule[T]) apply(pos *Symbol[T]) (*Symbol[T], error) {
	a, b, err := pos.digram()
	if err != nil {
		return nil, err
	}
	idx := r.g.idx

	prev := a.left
	next := b.right

	// 1. Forget the three digrams the rewrite is about to break: the one
	// ending at the window (prev, a), the window's own digram (a, b), and
	// the one starting after it (b, next). All three must happen before
	// anything is spliced, since forget reads a digram's key from its
	// still-current neighbours. The window's own digram uses the lenient
	// forgetWindow, not forget: see its doc comment for why its absence here
	// is routine rather than a sign of corruption. It goes last because in a
	// run of equal referents a flanking digram shares the window's key, and
	// deleting that key first would leave the flanking forget without an entry.
	if err := idx.forget(prev); err != nil {
		return nil, err
	}
	if err := idx.forget(b); err != nil {
		return nil, err
	}
	idx.forgetWindow(a)

	// 2. Left-preference correction. Only the right side can ever need one:
	// the new occurrence is about to be spliced in where the window used to
	// be, i.e. immediately to the left of `next`. If `next` and its own
	// right neighbour already share r's identity, that pair is about to
	// become the rightmost of a three-in-a-row and must be forgotten so the
	// leftmost pair (the new occurrence and `next`) can claim the slot. The
	// mirror check on the left (does `prev`'s left neighbour also share r's
	// identity?) never needs action: the new occurrence is attaching to the
	// right of whatever pair `prev` is part of, which leaves that pair the
	// leftmost of its run either way.
	targetKey := r.referentKey()
	if err := idx.makeRoomForLeftmost(targetKey, next); err != nil {
		return nil, err
	}

	// 3. Detach the window and splice in the new occurrence.
	detachPair(a, b)
	newSym := newRuleRef(r)
	if err := spliceBetween(prev, next, newSym); err != nil {
		return nil, err
	}

	// 4. Learn the two digrams the splice just formed. Either may cascade
	// into another make_unique call.
	if err := idx.learn(r.g, prev); err != nil {
		return nil, err
	}
	if err := idx.learn(r.g, newSym); err != nil {
		return nil, err
	}

	// 5. Release whatever the window used to reference.
	if a.kind == kindRuleRef {
		if err := a.rule.killref(a); err != nil {
			return nil, err
		}
	}
	if b.kind == kindRuleRef {
		if err := b.rule.killref(b); err != nil {
			return nil, err
		}
	}

	return newSym, nil
}

// killref removes sym from r.refs and, per invariant I2, dissolves r if
// that drops its refcount to exactly one or destroys it if it drops to
// zero. Calling it with a sym not on file is the unknown-reference error.
func (r *Rule[T]) killref(sym *Symbol[T]) error {
	if _, ok := r.refs[sym]; !ok {
		return errUnknownReference("killref: symbol is not a reference to rule %d", r.id)
	}
	delete(r.refs, sym)
	switch len(r.refs) {
	case 1:
		return r.dissolve()
	case 0:
		return r.destroy()
	default:
		return nil
	}
}

// dissolve inlines r's body in place of its sole remaining occurrence, then
// destroys r. Called automatically by killref once refcount drops to one; a
// rule that has outlived its usefulness as a shared production is not
// allowed to linger per invariant I2.
func (r *Rule[T]) dissolve() error {
	var ref *Symbol[T]
	for s := range r.refs {
		ref = s
		break
	}

	r.g.logger.Printf("dissolve: inlining rule %d into rule %d", r.id, owningRuleID(ref))

	idx := r.g.idx
	prev := ref.left
	next := ref.right

	if err := idx.forget(prev); err != nil {
		return err
	}
	// ref's own digram may be the internal digram of a rule make_unique's
	// Case B is still building, which is only learned after both applies,
	// so it is forgotten leniently.
	idx.forgetWindow(ref)

	first := r.head()
	last := r.tail()
	// detach r's whole body from its own guard; both of detachChain's
	// "neighbours" are r.guard here, so this also resets the now-empty
	// body's guard loop in the same call.
	detachChain(first, last)

	// Left-preference correction at the new right-hand seam, symmetric with
	// apply's step 2 and for the same reason: the chain's last symbol is
	// about to attach immediately left of `next`.
	if err := idx.makeRoomForLeftmost(referentKey(last, idx.keyFn), next); err != nil {
		return err
	}

	spliceChainBetween(prev, next, first, last)

	if err := idx.learn(r.g, prev); err != nil {
		return err
	}
	if err := idx.learn(r.g, last); err != nil {
		return err
	}

	return r.killref(ref)
}

// destroy removes r from the grammar's table. Called automatically by
// killref once refcount drops to zero. Calling it while the body or refs
// are non-empty is the non-empty-destroy error: a rule must have already
// given up its body (via dissolve) and its last ref (via killref) before it
// can vanish.
func (r *Rule[T]) destroy() error {
	if !r.isEmpty() {
		return errNonEmptyDestroy("destroy: rule %d still has a body", r.id)
	}
	if len(r.refs) != 0 {
		return errNonEmptyDestroy("destroy: rule %d still has references", r.id)
	}
	r.g.table.unregister(r.id)
	return nil
}

// walkInto appends r's flattened terminal sequence to out, recursing into
// any rule references.
func (r *Rule[T]) walkInto(out *[]T) {
	for s := r.head(); !s.isGuard(); s = s.right {
		if s.kind == kindRuleRef {
			s.rule.walkInto(out)
		} else {
			*out = append(*out, s.value)
		}
	}
}

// walkFunc is the push-style equivalent of walkInto; it stops early if
// yield returns false, propagating that stop back up through any recursion.
func (r *Rule[T]) walkFunc(yield func(T) bool) bool {
	for s := r.head(); !s.isGuard(); s = s.right {
		if s.kind == kindRuleRef {
			if !s.rule.walkFunc(yield) {
				return false
			}
		} else if !yield(s.value) {
			return false
		}
	}
	return true
}
