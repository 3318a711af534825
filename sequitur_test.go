package sequitur

import (
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Sequitur_RuneAlphabet_RoundTrip(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	seq := New(func(r rune) string { return string(r) })

	input := []rune("mississippi river")
	for i, r := range input {
		require.NoError(seq.Append(r))
		assert.Equal(string(input[:i+1]), string(seq.Walk()))
	}
}

func Test_Sequitur_ByteAlphabet_RulesAndWalkFunc(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	seq := New(func(b byte) string { return string(b) })
	for _, b := range []byte("abcabcabc") {
		require.NoError(seq.Append(b))
	}

	rules := seq.Rules()
	assert.NotEmpty(rules)
	assert.Equal(seq.StartID(), rules[0].ID)

	var collected []byte
	seq.WalkFunc(func(b byte) bool {
		collected = append(collected, b)
		return true
	})
	assert.Equal("abcabcabc", string(collected))

	// stopping early must truncate the streamed output.
	collected = nil
	seq.WalkFunc(func(b byte) bool {
		collected = append(collected, b)
		return len(collected) < 3
	})
	assert.Equal("abc", string(collected))
}

func Test_Sequitur_SetLogger_AcceptsNilWithoutPanicking(t *testing.T) {
	seq := New(func(b byte) string { return string(b) })
	seq.SetLogger(nil)
	seq.SetLogger(log.Default())
	require.NoError(t, seq.Append(byte('x')))
}

func Test_Sequitur_DebugDump_MatchesRules(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	seq := New(func(b byte) string { return string(b) })
	for _, b := range []byte("abcabcabc") {
		require.NoError(seq.Append(b))
	}

	rules := seq.Rules()
	dump := seq.DebugDump()
	require.Len(dump, len(rules))
	for i := range rules {
		assert.Equal(rules[i].ID, dump[i].ID)
		assert.Equal(rules[i].RefCount, dump[i].RefCount)
		assert.Len(dump[i].RefOwners, rules[i].RefCount)
	}
}

func Test_Sequitur_KindConstants_AreDistinct(t *testing.T) {
	assert := assert.New(t)
	kinds := []Kind{KindDisconnection, KindUnknownReference, KindNonEmptyDestroy, KindIndexDesync}
	seen := make(map[Kind]bool)
	for _, k := range kinds {
		assert.False(seen[k], "duplicate Kind value %v", k)
		seen[k] = true
	}
}
