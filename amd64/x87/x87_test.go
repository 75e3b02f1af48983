package x87

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sourcehut-mirrors/selfcc/ssa"
)

type fakeEmitter struct {
	fstp []int
	fld  []int
	fxch []int
}

func (f *fakeEmitter) EmitFstp(slot int) { f.fstp = append(f.fstp, slot) }
func (f *fakeEmitter) EmitFld(slot int)  { f.fld = append(f.fld, slot) }
func (f *fakeEmitter) EmitFxch(depth int) { f.fxch = append(f.fxch, depth) }

func TestPushIncreasesDepth(t *testing.T) {
	m := NewManager()
	m.Push(1)
	m.Push(2)
	require.Equal(t, 2, m.Depth())
}

func TestEnsureFlushesExcessEntries(t *testing.T) {
	m := NewManager()
	em := &fakeEmitter{}
	m.Push(1)
	m.Push(2)
	m.Push(3)
	m.Ensure(1, em)
	require.Equal(t, 1, m.Depth())
	require.Len(t, em.fstp, 2)
}

func TestFlushEmptiesStack(t *testing.T) {
	m := NewManager()
	em := &fakeEmitter{}
	m.Push(1)
	m.Push(2)
	m.Flush(em)
	require.Equal(t, 0, m.Depth())
}

func TestToTOSReordersAndDiscardsRest(t *testing.T) {
	m := NewManager()
	em := &fakeEmitter{}
	m.Push(1)
	m.Push(2)
	m.Push(3) // stack: [3, 2, 1] top-to-bottom
	m.ToTOS(1, em)
	require.Equal(t, 1, m.Depth())
	require.Len(t, em.fxch, 1)
}

func TestPushPastCapacityPanics(t *testing.T) {
	m := NewManager()
	for i := 0; i < capacity; i++ {
		m.Push(ssa.ValueRef(i))
	}
	require.Panics(t, func() { m.Push(99) })
}
