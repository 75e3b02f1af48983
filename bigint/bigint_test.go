package bigint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddWithCarry(t *testing.T) {
	a := make([]byte, 2)
	b := make([]byte, 2)
	dst := make([]byte, 2)
	SetUnsigned(a, 16, 0xffff)
	SetUnsigned(b, 16, 1)
	carry := Add(dst, a, b, 16)
	require.True(t, carry)
	require.True(t, IsZero(dst))
}

func TestNegateRoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	SetSigned(buf, 32, -42)
	neg := make([]byte, 4)
	Negate(neg, buf, 32)
	require.Equal(t, int64(42), GetSigned(neg, 32))
}

func TestShiftLeftAndRight(t *testing.T) {
	src := make([]byte, 2)
	SetUnsigned(src, 16, 1)
	dst := make([]byte, 2)
	ShiftLeft(dst, src, 4, 16)
	require.Equal(t, uint64(16), GetUnsigned(dst))

	back := make([]byte, 2)
	ShiftRightLogical(back, dst, 4, 16)
	require.Equal(t, uint64(1), GetUnsigned(back))
}

func TestMulUnsigned(t *testing.T) {
	a := make([]byte, 2)
	b := make([]byte, 2)
	SetUnsigned(a, 16, 1000)
	SetUnsigned(b, 16, 1000)
	dst := make([]byte, 2)
	scratch := make([]byte, 4)
	MulUnsigned(dst, a, b, 16, scratch)
	require.Equal(t, uint64(1000000%65536), GetUnsigned(dst))
}

func TestDivUnsignedByZeroFails(t *testing.T) {
	a := make([]byte, 2)
	b := make([]byte, 2)
	quot := make([]byte, 2)
	rem := make([]byte, 2)
	SetUnsigned(a, 16, 10)
	err := DivUnsigned(quot, rem, a, b, 16)
	require.Error(t, err)
}

func TestDivUnsignedExact(t *testing.T) {
	a := make([]byte, 2)
	b := make([]byte, 2)
	quot := make([]byte, 2)
	rem := make([]byte, 2)
	SetUnsigned(a, 16, 100)
	SetUnsigned(b, 16, 7)
	require.NoError(t, DivUnsigned(quot, rem, a, b, 16))
	require.Equal(t, uint64(14), GetUnsigned(quot))
	require.Equal(t, uint64(2), GetUnsigned(rem))
}

func TestCompareSigned(t *testing.T) {
	a := make([]byte, 4)
	b := make([]byte, 4)
	SetSigned(a, 32, -1)
	SetSigned(b, 32, 1)
	require.Equal(t, -1, CompareSigned(a, b, 32))
}
