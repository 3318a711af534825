// Package api implements the sequitur debug server's HTTP surface: a small
// read/append API over a single in-memory grammar instance.
package api

import (
	"io"
	"net/http"
	"sync"

	"github.com/dekarrin/rezi"

	"github.com/dekarrin/sequitur"
	"github.com/dekarrin/sequitur/server/result"
)

// PathPrefix is prepended to every route this package registers.
const PathPrefix = "/api/v1"

// API holds the single grammar instance the debug server exposes. Appends
// are serialized with a mutex, since a *sequitur.Sequitur is not itself
// safe for concurrent mutation (spec.md §5) — the server does not
// parallelize them, it only accepts them over a network interface.
type API struct {
	mu  sync.Mutex
	seq *sequitur.Sequitur[byte]
}

// New creates an API wrapping a fresh byte-alphabet Sequitur instance.
func New() *API {
	return &API{seq: sequitur.New(func(b byte) string { return string(b) })}
}

// HandleAppend reads the request body and appends every byte of it to the
// grammar.
func (a *API) HandleAppend(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeResult(w, r, result.BadRequest("could not read request body", "%s", err.Error()))
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, b := range body {
		if err := a.seq.Append(b); err != nil {
			writeResult(w, r, result.InternalServerError("append failed: %s", err.Error()))
			return
		}
	}

	writeResult(w, r, result.OK(map[string]int{"appended": len(body)}))
}

type ruleDump struct {
	ID       int        `json:"id"`
	Body     []bodyItem `json:"body"`
	RefCount int        `json:"refcount"`
}

type bodyItem struct {
	Terminal *int `json:"terminal,omitempty"`
	RuleID   *int `json:"rule_id,omitempty"`
}

// HandleGrammar returns a JSON dump of every rule's id, body, and refcount.
func (a *API) HandleGrammar(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	rules := a.seq.Rules()
	a.mu.Unlock()

	out := make([]ruleDump, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRuleDump(rule))
	}
	writeResult(w, r, result.OK(out))
}

func toRuleDump(rule sequitur.RuleEntry[byte]) ruleDump {
	body := make([]bodyItem, 0, len(rule.Body))
	for _, item := range rule.Body {
		if item.IsRuleRef {
			id := item.RuleID
			body = append(body, bodyItem{RuleID: &id})
		} else {
			t := int(item.Terminal)
			body = append(body, bodyItem{Terminal: &t})
		}
	}
	return ruleDump{ID: rule.ID, Body: body, RefCount: rule.RefCount}
}

// HandleGrammarBinary returns the same rule table encoded with rezi, for
// tooling that wants a compact binary snapshot rather than JSON. This is a
// point-in-time transient export: it is built in memory per request and
// never touches disk, so it does not add a persisted on-disk format.
func (a *API) HandleGrammarBinary(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	rules := a.seq.Rules()
	a.mu.Unlock()

	dumps := make([]ruleDump, 0, len(rules))
	for _, rule := range rules {
		dumps = append(dumps, toRuleDump(rule))
	}

	enc := rezi.EncBinary(dumps)

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(enc)
}

// HandleWalk returns the flattened terminal sequence as plain text.
func (a *API) HandleWalk(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	bytes := a.seq.Walk()
	a.mu.Unlock()

	writeResult(w, r, result.PlainText(string(bytes)))
}

func writeResult(w http.ResponseWriter, r *http.Request, res result.Result) {
	res.Log(r)
	res.WriteResponse(w, r)
}
