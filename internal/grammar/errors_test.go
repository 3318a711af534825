package grammar

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Error_KindAndUnwrap(t *testing.T) {
	assert := assert.New(t)

	wrapped := errors.New("underlying")
	e := &Error{kind: KindDisconnection, msg: "boom", wrap: wrapped}

	assert.Equal(KindDisconnection, e.Kind())
	assert.ErrorIs(e, wrapped)
	assert.Contains(e.Error(), "disconnection")
	assert.Contains(e.Error(), "boom")
}

func Test_IsKind(t *testing.T) {
	assert := assert.New(t)

	err := errIndexDesync("no entry for %s", "r:0")
	assert.True(IsKind(err, KindIndexDesync))
	assert.False(IsKind(err, KindDisconnection))
	assert.False(IsKind(errors.New("plain"), KindIndexDesync))
}

func Test_Kind_String(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("disconnection", KindDisconnection.String())
	assert.Equal("unknown-reference", KindUnknownReference.String())
	assert.Equal("non-empty-destroy", KindNonEmptyDestroy.String())
	assert.Equal("index-desync", KindIndexDesync.String())
	assert.Equal("unknown", Kind(99).String())
}

func Test_Symbol_Digram_RejectsGuardsAndDisconnected(t *testing.T) {
	assert := assert.New(t)

	r := &Rule[byte]{refs: make(map[*Symbol[byte]]struct{})}
	r.guard = newGuard(r)

	_, _, err := r.guard.digram()
	assert.True(IsKind(err, KindDisconnection), "digram on a guard must fail")

	free := newTerminal[byte]('x')
	_, _, err = free.digram()
	assert.True(IsKind(err, KindDisconnection), "digram on a disconnected symbol must fail")
}

func Test_Rule_KillrefUnknownReference(t *testing.T) {
	r := &Rule[byte]{refs: make(map[*Symbol[byte]]struct{})}
	r.guard = newGuard(r)

	stray := newTerminal[byte]('z')
	err := r.killref(stray)
	assert.True(t, IsKind(err, KindUnknownReference))
}

func Test_Rule_DestroyNonEmptyBody(t *testing.T) {
	r := &Rule[byte]{refs: make(map[*Symbol[byte]]struct{})}
	r.guard = newGuard(r)
	insertRight(r.guard, newTerminal[byte]('q'))

	err := r.destroy()
	assert.True(t, IsKind(err, KindNonEmptyDestroy))
}
