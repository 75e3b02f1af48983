package corelib

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitsetResizeToZeroIsOutOfBounds(t *testing.T) {
	b := NewBitset(8)
	b.Resize(0)
	_, err := b.Get(0)
	require.Error(t, err)
}

func TestBitsetSetRangeRejectsZeroLength(t *testing.T) {
	b := NewBitset(4)
	_, err := b.SetRange(0)
	require.Error(t, err)
}

func TestBitsetSetRangeFindsFirstFit(t *testing.T) {
	b := NewBitset(4)
	require.NoError(t, b.Set(0, true))
	start, err := b.SetRange(2)
	require.NoError(t, err)
	require.Equal(t, 1, start)
	set, err := b.Get(1)
	require.NoError(t, err)
	require.True(t, set)
}

func TestStaticBitsetCount(t *testing.T) {
	b := NewStaticBitset(10)
	require.NoError(t, b.Set(2, true))
	require.NoError(t, b.Set(9, true))
	require.Equal(t, 2, b.Count())
}

func TestOrderedSetPreservesInsertionOrder(t *testing.T) {
	s := NewOrderedSet[string]()
	s.Add("b")
	s.Add("a")
	s.Add("b")
	require.Equal(t, []string{"b", "a"}, s.Order())
	s.Remove("b")
	require.Equal(t, []string{"a"}, s.Order())
}
