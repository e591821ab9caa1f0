package hash

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
)

func TestSumDeterministic(t *testing.T) {
	input := []byte{1, 2, 3}
	assert.Equal(t, Sum(input, 42), Sum(input, 42))
	assert.Equal(t, Sum(input, 42), Sum([]byte{1, 2, 3}, 42))
}

func TestSumSeeded(t *testing.T) {
	input := []byte{1, 2, 3}
	assert.NotEqual(t, Sum(input, 42), Sum(input, 43))
	assert.NotEqual(t, Sum(input, 42), Sum([]byte{3, 2, 1}, 42))
}

func TestSumMatchesXXH64(t *testing.T) {
	d := xxhash.NewWithSeed(42)
	_, _ = d.Write([]byte{1, 2, 3})
	assert.Equal(t, int32(d.Sum64()), Sum([]byte{1, 2, 3}, 42))

	// Zero seed is plain XXH64.
	assert.Equal(t, int32(xxhash.Sum64([]byte("abc"))), Sum([]byte("abc"), 0))
}

func TestSumNegativeSeed(t *testing.T) {
	d := xxhash.NewWithSeed(uint64(0xffffffff))
	assert.Equal(t, int32(d.Sum64()), Sum(nil, -1))
}
