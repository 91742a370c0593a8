package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMemo(t *testing.T) {
	assert.Equal(t, "alice", NormalizeMemo("alice"))
	assert.Equal(t, "alice", NormalizeMemo("@Alice"))
	assert.Equal(t, "alice", NormalizeMemo("  Alice  "))
	assert.Equal(t, "alice", NormalizeMemo(" @ALICE "))
	assert.Equal(t, "", NormalizeMemo("  "))
}

func TestMemoMatches(t *testing.T) {
	assert.True(t, MemoMatches("@Alice", "alice"))
	assert.True(t, MemoMatches(" alice ", "@Alice"))
	assert.False(t, MemoMatches("bob", "alice"))
	assert.False(t, MemoMatches("", "alice"), "an empty memo never identifies anyone")
	assert.False(t, MemoMatches("   ", "alice"))
	assert.False(t, MemoMatches("@", "alice"))
}

func TestFormatTON(t *testing.T) {
	assert.Equal(t, "1 TON", FormatTON(1_000_000_000))
	assert.Equal(t, "0.1 TON", FormatTON(100_000_000))
	assert.Equal(t, "1.5 TON", FormatTON(1_500_000_000))
	assert.Equal(t, "0.000000001 TON", FormatTON(1))
	assert.Equal(t, "0 TON", FormatTON(0))
	assert.Equal(t, "100 TON", FormatTON(100_000_000_000))
}
