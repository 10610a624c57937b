package dataflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartition_Deterministic(t *testing.T) {
	keys := []string{"the", "quick", "fox", "lazy", "über", "42"}

	for _, key := range keys {
		first := Partition(key, 8)
		for range 10 {
			require.Equal(t, first, Partition(key, 8), "key %q must always pick the same partition", key)
		}
	}
}

func TestPartition_WithinRange(t *testing.T) {
	keys := []string{"a", "b", "word", "longer-word", "", "日本語", "123"}

	for _, n := range []int{1, 2, 3, 7, 64} {
		for _, key := range keys {
			p := Partition(key, n)
			require.GreaterOrEqual(t, p, 0)
			require.Less(t, p, n)
		}
	}
}

func TestPartition_SingleBucket(t *testing.T) {
	require.Equal(t, 0, Partition("anything", 1))
	require.Equal(t, 0, Partition("anything", 0))
	require.Equal(t, 0, Partition("anything", -3))
}

func TestHash_KnownDistinctKeys(t *testing.T) {
	// FNV-1a is stable across runs; distinct words should not all collide.
	require.NotEqual(t, Hash("the"), Hash("fox"))
	require.Equal(t, Hash("the"), Hash("the"))
}
