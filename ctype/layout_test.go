package ctype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLayoutFlexibleArrayMember(t *testing.T) {
	traits := DefaultTraits()
	agg := &Type{
		Kind: KindStruct,
		Fields: []Field{
			{Name: "len", Type: &Type{Kind: KindInt}, BitfieldBits: -1},
			{Name: "data", Type: &Type{Kind: KindArray, Elem: &Type{Kind: KindInt}, ArrayBoundary: BoundaryUnbounded}, BitfieldBits: -1},
		},
	}
	size, align := Layout(traits, agg)
	require.Equal(t, 4, size)
	require.Equal(t, 4, align)
	require.True(t, agg.HasFlexible)
	require.Equal(t, 4, agg.Fields[1].Offset)
}

func TestLayoutBitfieldPacking(t *testing.T) {
	traits := DefaultTraits()
	agg := &Type{
		Kind: KindStruct,
		Fields: []Field{
			{Name: "a", Type: &Type{Kind: KindUnsignedInt}, BitfieldBits: 3},
			{Name: "b", Type: &Type{Kind: KindUnsignedInt}, BitfieldBits: 5},
			{Name: "", Type: &Type{Kind: KindUnsignedInt}, BitfieldBits: 0},
			{Name: "c", Type: &Type{Kind: KindUnsignedInt}, BitfieldBits: 2},
		},
	}
	size, _ := Layout(traits, agg)
	require.Equal(t, agg.Fields[0].StorageUnit, agg.Fields[1].StorageUnit)
	require.NotEqual(t, agg.Fields[1].StorageUnit, agg.Fields[3].StorageUnit)
	require.Equal(t, 8, size)
}

func TestPromoteShortToInt(t *testing.T) {
	traits := DefaultTraits()
	promoted := Promote(traits, &Type{Kind: KindShort})
	require.Equal(t, KindInt, promoted.Kind)
}

func TestUsualArithmeticConversionsMixedFloat(t *testing.T) {
	traits := DefaultTraits()
	common := UsualArithmeticConversions(traits, &Type{Kind: KindInt}, &Type{Kind: KindDouble})
	require.Equal(t, KindDouble, common.Kind)
}
