package abi

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sourcehut-mirrors/selfcc/ctype"
	"github.com/sourcehut-mirrors/selfcc/ssa"
)

func TestClassifyScalarInteger(t *testing.T) {
	require.Equal(t, ClassInteger, ClassifyScalar(ssa.TypeI32))
	require.Equal(t, ClassInteger, ClassifyScalar(ssa.TypePtr))
}

func TestClassifyScalarFloat(t *testing.T) {
	require.Equal(t, ClassSSE, ClassifyScalar(ssa.TypeF64))
	require.Equal(t, ClassX87, ClassifyScalar(ssa.TypeLongDouble))
}

func TestClassifyScalarComplex(t *testing.T) {
	require.Equal(t, ClassSSE, ClassifyScalar(ssa.TypeComplexF64))
	require.Equal(t, ClassComplexX87, ClassifyScalar(ssa.TypeComplexLongDouble))
}

func TestClassifyAggregateLargeIsMemory(t *testing.T) {
	traits := ctype.DefaultTraits()
	big := &ctype.Type{Kind: ctype.KindStruct, Fields: []ctype.Field{
		{Name: "a", Type: &ctype.Type{Kind: ctype.KindLongDouble}, BitfieldBits: -1},
		{Name: "b", Type: &ctype.Type{Kind: ctype.KindLong}, BitfieldBits: -1},
	}}
	ctype.Layout(traits, big)
	classes := ClassifyAggregate(traits, big)
	require.Equal(t, []Class{ClassMemory}, classes)
}

func TestClassifyAggregateSmallAllIntegerEightbytes(t *testing.T) {
	traits := ctype.DefaultTraits()
	small := &ctype.Type{Kind: ctype.KindStruct, Fields: []ctype.Field{
		{Name: "x", Type: &ctype.Type{Kind: ctype.KindInt}, BitfieldBits: -1},
		{Name: "y", Type: &ctype.Type{Kind: ctype.KindInt}, BitfieldBits: -1},
	}}
	ctype.Layout(traits, small)
	classes := ClassifyAggregate(traits, small)
	require.Len(t, classes, 1)
	require.Equal(t, ClassInteger, classes[0])
}

func TestClassifyAggregateAllFloatEightbyteStaysSSE(t *testing.T) {
	traits := ctype.DefaultTraits()
	small := &ctype.Type{Kind: ctype.KindStruct, Fields: []ctype.Field{
		{Name: "x", Type: &ctype.Type{Kind: ctype.KindFloat}, BitfieldBits: -1},
		{Name: "y", Type: &ctype.Type{Kind: ctype.KindFloat}, BitfieldBits: -1},
	}}
	ctype.Layout(traits, small)
	classes := ClassifyAggregate(traits, small)
	require.Equal(t, []Class{ClassSSE}, classes)
}

func TestAllocateArgExhaustsIntegerRegisters(t *testing.T) {
	s := NewArgState()
	for i := 0; i < maxIntArgRegs; i++ {
		locs := s.AllocateArg([]Class{ClassInteger})
		require.Equal(t, ClassInteger, locs[0].Class)
		require.Equal(t, i, locs[0].GPIndex)
	}
	locs := s.AllocateArg([]Class{ClassInteger})
	require.Equal(t, ClassMemory, locs[0].Class)
}

func TestAllocateArgSSEIndependentOfInteger(t *testing.T) {
	s := NewArgState()
	s.AllocateArg([]Class{ClassInteger})
	locs := s.AllocateArg([]Class{ClassSSE})
	require.Equal(t, ClassSSE, locs[0].Class)
	require.Equal(t, 0, locs[0].SSEIndex)
}
