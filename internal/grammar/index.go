package grammar

import "strconv"

// Marker prefixes keep a terminal's key and a rule id's decimal string from
// ever colliding in either half of a digram key: without a distinguishing
// prefix, a terminal whose key is "1" and a reference to rule 1 would
// produce the same string.
const (
	markerTerminal = "t:"
	markerRule     = "r:"
)

// referentKey returns the string identity of the thing s stands for: a
// terminal value run through the caller's key function, or a rule id.
// Guards have no referent and referentKey must never be called on one.
func referentKey[T comparable](s *Symbol[T], keyFn func(T) string) string {
	switch s.kind {
	case kindTerminal:
		return markerTerminal + keyFn(s.value)
	case kindRuleRef:
		return markerRule + strconv.Itoa(s.rule.id)
	default:
		panic("sequitur: referentKey of a guard symbol")
	}
}

// digramKey is the index's map key: the referent identities of a digram's
// two symbols, in order.
type digramKey struct {
	left, right string
}

func keyOf[T comparable](s *Symbol[T], keyFn func(T) string) digramKey {
	return digramKey{left: referentKey(s, keyFn), right: referentKey(s.right, keyFn)}
}

// index is the digram -> position map described in spec.md §4.2. It holds
// at most one position per distinct digram key, which is exactly invariant
// I1 (digram uniqueness) restated as a data-structure contract.
type index[T comparable] struct {
	keyFn func(T) string
	m     map[digramKey]*Symbol[T]
}

func newIndex[T comparable](keyFn func(T) string) *index[T] {
	return &index[T]{keyFn: keyFn, m: make(map[digramKey]*Symbol[T])}
}

// learn records the digram rooted at pos, or — if that digram's key is
// already claimed by some other position — triggers the driver's
// make_unique rewrite. Digrams touching a guard are silently ignored, since
// a rule boundary is never part of a repeatable digram.
func (ix *index[T]) learn(g *Grammar[T], pos *Symbol[T]) error {
	if pos == nil || pos.isGuard() || pos.right.isGuard() {
		return nil
	}
	k := keyOf(pos, ix.keyFn)
	cur, ok := ix.m[k]
	if !ok {
		ix.m[k] = pos
		return nil
	}
	if cur == pos || cur == pos.left || cur == pos.right {
		// already recorded here, or adjacent to an equal-referent run
		// (the overlap case of spec.md §4.2) — left alone.
		return nil
	}
	return g.makeUnique(cur, pos)
}

// forget removes the digram rooted at pos from the index, if pos is the
// position currently on file for its key. A key that simply points
// elsewhere (an earlier rewrite already moved it) is a benign no-op; a key
// that is entirely absent is the fatal index-desync condition of spec.md
// §7, since every live non-guard-adjacent digram must have an entry.
func (ix *index[T]) forget(pos *Symbol[T]) error {
	if pos == nil || pos.isGuard() || pos.right.isGuard() {
		return nil
	}
	k := keyOf(pos, ix.keyFn)
	cur, ok := ix.m[k]
	if !ok {
		return errIndexDesync("forget: no entry for digram (%s, %s)", k.left, k.right)
	}
	if cur == pos {
		delete(ix.m, k)
	}
	return nil
}

// forgetWindow forgets the digram a rewrite's own two-symbol window once
// represented, tolerating absence instead of treating it as a desync.
// Every other forget site touches a digram that is known to still exist
// going into the call (its flanking neighbours haven't been rewritten by
// anything else yet), so a missing entry there really is corruption. The
// window's own digram is different: make_unique's Case B applies the same
// new rule at two call sites that share this exact digram key, and the
// first apply() already deletes the one map slot a key can ever occupy —
// the second call finds it legitimately already gone, not desynced.
// dissolve() uses it for the same reason on its reference's own digram,
// which can be the not-yet-learned internal digram of a Case B rule.
func (ix *index[T]) forgetWindow(pos *Symbol[T]) {
	if pos == nil || pos.isGuard() || pos.right.isGuard() {
		return
	}
	k := keyOf(pos, ix.keyFn)
	if cur, ok := ix.m[k]; ok && cur == pos {
		delete(ix.m, k)
	}
}

// makeRoomForLeftmost enforces the left-preference rule for runs of three
// or more equal referents. It is called just before a new occurrence of
// leftKey is spliced in immediately to the left of mid: if mid and
// mid.right already share leftKey, their digram is the soon-to-be-rightmost
// pair of a three-in-a-row and must be forgotten now, so that the caller's
// subsequent learn of the newly-leftmost pair can freshly claim the index
// slot instead of finding it occupied and mistaking it for an overlap.
//
// There is no symmetric case for a new occurrence attaching to the right of
// an existing equal-referent pair: that pair stays the leftmost pair of the
// resulting run, so its entry is already correct and must not be touched.
func (ix *index[T]) makeRoomForLeftmost(leftKey string, mid *Symbol[T]) error {
	if mid == nil || mid.isGuard() || mid.right.isGuard() {
		return nil
	}
	if referentKey(mid, ix.keyFn) != leftKey || referentKey(mid.right, ix.keyFn) != leftKey {
		return nil
	}
	return ix.forget(mid)
}
