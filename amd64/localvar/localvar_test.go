package localvar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocRoundsUpToAlignment(t *testing.T) {
	a := NewAllocator()
	s1 := a.Alloc(1, 1, 1)
	s2 := a.Alloc(2, 4, 4)
	require.Equal(t, 0, s1.Offset)
	require.Equal(t, 4, s2.Offset)
}

func TestSizeRoundsUpToOverallAlignment(t *testing.T) {
	a := NewAllocator()
	a.Alloc(1, 3, 1)
	a.Alloc(2, 4, 4)
	require.Equal(t, 4, a.Align())
	require.Equal(t, 0, a.Size()%4)
}

func TestMarkReturnSpaceRoundTrips(t *testing.T) {
	a := NewAllocator()
	a.Alloc(1, 16, 8)
	a.MarkReturnSpace(1)
	ref, ok := a.ReturnSpace()
	require.True(t, ok)
	require.Equal(t, uint32(1), uint32(ref))
}

func TestSlotLookupMissing(t *testing.T) {
	a := NewAllocator()
	_, ok := a.Slot(99)
	require.False(t, ok)
}
