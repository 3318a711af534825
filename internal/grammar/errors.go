// Package grammar implements the incrementally-maintained Sequitur grammar:
// the doubly-linked symbol lists that make up rule bodies, the digram index
// used to find repeats in constant time, and the rewriting procedure that
// restores the grammar's two invariants after every appended terminal.
package grammar

import "fmt"

// Kind identifies which of the core's closed set of programming-error
// categories an Error represents. All of them indicate a bug in the
// grammar-maintenance machinery, not a recoverable runtime condition; the
// invariants of the grammar no longer hold once one is raised.
type Kind int

const (
	// KindDisconnection is raised when an operation expected a symbol to be
	// in a particular link state (disconnected, or connected with
	// non-guard neighbours) and it was not.
	KindDisconnection Kind = iota

	// KindUnknownReference is raised when killref is called with a symbol
	// that is not present in the target rule's refs set.
	KindUnknownReference

	// KindNonEmptyDestroy is raised when a rule is destroyed while its
	// body or its refs set is still non-empty.
	KindNonEmptyDestroy

	// KindIndexDesync is raised when forget is called with a digram whose
	// key has no entry in the index at all. This is distinct from the
	// benign no-op of forgetting a digram whose key now points elsewhere
	// (a previous rewrite already moved it).
	KindIndexDesync
)

func (k Kind) String() string {
	switch k {
	case KindDisconnection:
		return "disconnection"
	case KindUnknownReference:
		return "unknown-reference"
	case KindNonEmptyDestroy:
		return "non-empty-destroy"
	case KindIndexDesync:
		return "index-desync"
	default:
		return "unknown"
	}
}

// Error is the concrete type of every error the core raises. All of them
// represent violated invariants rather than recoverable conditions; callers
// are expected to abort rather than retry.
type Error struct {
	kind Kind
	msg  string
	wrap error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sequitur: %s: %s", e.kind, e.msg)
}

// Kind returns the category of invariant this error reports.
func (e *Error) Kind() Kind {
	return e.kind
}

func (e *Error) Unwrap() error {
	return e.wrap
}

func newError(k Kind, format string, args ...interface{}) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(format, args...)}
}

func errDisconnection(format string, args ...interface{}) *Error {
	return newError(KindDisconnection, format, args...)
}

func errUnknownReference(format string, args ...interface{}) *Error {
	return newError(KindUnknownReference, format, args...)
}

func errNonEmptyDestroy(format string, args ...interface{}) *Error {
	return newError(KindNonEmptyDestroy, format, args...)
}

func errIndexDesync(format string, args ...interface{}) *Error {
	return newError(KindIndexDesync, format, args...)
}

// IsKind reports whether err is a *grammar.Error of the given Kind.
func IsKind(err error, k Kind) bool {
	ge, ok := err.(*Error)
	return ok && ge.kind == k
}
