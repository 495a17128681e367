package codehash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigest_DeterministicPerKey(t *testing.T) {
	h := New([]byte("secret"))
	assert.Equal(t, h.Digest("123456"), h.Digest("123456"))
	assert.NotEqual(t, h.Digest("123456"), h.Digest("123457"))
	assert.Len(t, h.Digest("123456"), 64)
}

func TestDigest_KeyChangesOutput(t *testing.T) {
	a := New([]byte("one")).Digest("123456")
	b := New([]byte("two")).Digest("123456")
	assert.NotEqual(t, a, b)
}

func TestNew_LongKeyTruncated(t *testing.T) {
	long := []byte(strings.Repeat("k", 100))
	assert.NotPanics(t, func() { New(long).Digest("000000") })
	assert.Equal(t, New(long).Digest("1"), New(long[:64]).Digest("1"))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("abc", "abc"))
	assert.False(t, Equal("abc", "abd"))
	assert.False(t, Equal("abc", "ab"))
}
