// Package bigint implements the portable digit-array integer library of
// §4.4: arbitrary-width integer arithmetic over caller-supplied byte
// buffers, used both to hold `_BitInt(N)` constant values during semantic
// analysis and to drive the `__kefir_bigint_*` runtime calls emitted by
// instruction selection for bit-precise opcodes the backend does not lower
// inline. There is no corpus library for a caller-allocates-all-scratch,
// digit-array arithmetic ABI; this package is schoolbook arithmetic written
// directly against §4.4, the one place in this module where standard-library
// (slice-of-byte) primitives are the only honest choice.
package bigint

import (
	"math/big"

	"github.com/sourcehut-mirrors/selfcc/diag"
)

// Digit is the storage unit of a bigint buffer.
type Digit = byte

const digitBits = 8

// DigitsForWidth returns the number of digits needed to hold width bits.
func DigitsForWidth(width int) int {
	return (width + digitBits - 1) / digitBits
}

func bitsOfDigits(n int) int { return n * digitBits }

// maskTop clears the bits above width in the top digit of buf, the
// canonical form every mutating routine leaves its result in.
func maskTop(buf []byte, width int) {
	if len(buf) == 0 {
		return
	}
	used := width % digitBits
	if used == 0 {
		return
	}
	buf[len(buf)-1] &= (1 << uint(used)) - 1
}

// SetUnsigned stores v, zero-extended, into buf (width bits).
func SetUnsigned(buf []byte, width int, v uint64) {
	for i := range buf {
		buf[i] = 0
	}
	for i := 0; i < len(buf) && i < 8; i++ {
		buf[i] = byte(v >> (8 * uint(i)))
	}
	maskTop(buf, width)
}

// SetSigned stores v, sign-extended, into buf (width bits).
func SetSigned(buf []byte, width int, v int64) {
	fill := byte(0)
	if v < 0 {
		fill = 0xff
	}
	for i := range buf {
		buf[i] = fill
	}
	for i := 0; i < len(buf) && i < 8; i++ {
		buf[i] = byte(v >> (8 * uint(i)))
	}
	maskTop(buf, width)
}

func signBit(buf []byte, width int) bool {
	if width == 0 {
		return false
	}
	idx := (width - 1) / digitBits
	bit := uint((width - 1) % digitBits)
	return buf[idx]&(1<<bit) != 0
}

// IsZero reports whether every digit is zero.
func IsZero(buf []byte) bool {
	for _, d := range buf {
		if d != 0 {
			return false
		}
	}
	return true
}

// CastUnsigned resizes src (srcWidth bits) into dst (dstWidth bits),
// zero-extending or truncating as needed.
func CastUnsigned(dst []byte, dstWidth int, src []byte, srcWidth int) {
	n := copy(dst, src)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	maskTop(dst, dstWidth)
}

// CastSigned resizes src (srcWidth bits) into dst (dstWidth bits),
// sign-extending or truncating as needed.
func CastSigned(dst []byte, dstWidth int, src []byte, srcWidth int) {
	fill := byte(0)
	if signBit(src, srcWidth) {
		fill = 0xff
	}
	n := copy(dst, src)
	for i := n; i < len(dst); i++ {
		dst[i] = fill
	}
	maskTop(dst, dstWidth)
}

// GetUnsigned reads buf as an unsigned value, wrapping to 64 bits.
func GetUnsigned(buf []byte) uint64 {
	var v uint64
	for i := 0; i < len(buf) && i < 8; i++ {
		v |= uint64(buf[i]) << (8 * uint(i))
	}
	return v
}

// GetSigned reads buf (width bits) as a signed value, wrapping to 64 bits.
func GetSigned(buf []byte, width int) int64 {
	v := GetUnsigned(buf)
	if width < 64 && signBit(buf, width) {
		v |= ^uint64(0) << uint(width)
	}
	return int64(v)
}

// Negate computes dst = -src (two's complement), width bits.
func Negate(dst, src []byte, width int) {
	Invert(dst, src)
	addDigit(dst, 1)
	maskTop(dst, width)
}

// Invert computes dst = ^src bitwise.
func Invert(dst, src []byte) {
	for i := range dst {
		dst[i] = ^src[i]
	}
}

func addDigit(buf []byte, v byte) {
	carry := uint16(v)
	for i := range buf {
		sum := uint16(buf[i]) + carry
		buf[i] = byte(sum)
		carry = sum >> 8
		if carry == 0 {
			break
		}
	}
}

// Add computes dst = a + b, width bits; returns the final carry-out.
func Add(dst, a, b []byte, width int) bool {
	var carry uint16
	for i := range dst {
		sum := uint16(a[i]) + uint16(b[i]) + carry
		dst[i] = byte(sum)
		carry = sum >> 8
	}
	maskTop(dst, width)
	return carry != 0
}

// Sub computes dst = a - b, width bits; returns true if a borrow occurred
// (a < b when interpreted unsigned).
func Sub(dst, a, b []byte, width int) bool {
	var borrow int16
	for i := range dst {
		diff := int16(a[i]) - int16(b[i]) - borrow
		if diff < 0 {
			diff += 256
			borrow = 1
		} else {
			borrow = 0
		}
		dst[i] = byte(diff)
	}
	maskTop(dst, width)
	return borrow != 0
}

// And computes dst = a & b.
func And(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] & b[i]
	}
}

// Or computes dst = a | b.
func Or(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] | b[i]
	}
}

// Xor computes dst = a ^ b.
func Xor(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

// ShiftLeft computes dst = src << n, width bits.
func ShiftLeft(dst, src []byte, n, width int) {
	digitShift := n / digitBits
	bitShift := uint(n % digitBits)
	for i := len(dst) - 1; i >= 0; i-- {
		srcIdx := i - digitShift
		var lo, hi byte
		if srcIdx >= 0 && srcIdx < len(src) {
			lo = src[srcIdx]
		}
		if srcIdx-1 >= 0 && srcIdx-1 < len(src) {
			hi = src[srcIdx-1]
		}
		if bitShift == 0 {
			dst[i] = lo
		} else {
			dst[i] = lo<<bitShift | hi>>(8-bitShift)
		}
	}
	maskTop(dst, width)
}

// ShiftRightLogical computes dst = src >> n (zero-fill), width bits.
func ShiftRightLogical(dst, src []byte, n, width int) {
	digitShift := n / digitBits
	bitShift := uint(n % digitBits)
	for i := 0; i < len(dst); i++ {
		srcIdx := i + digitShift
		var lo, hi byte
		if srcIdx >= 0 && srcIdx < len(src) {
			lo = src[srcIdx]
		}
		if srcIdx+1 >= 0 && srcIdx+1 < len(src) {
			hi = src[srcIdx+1]
		}
		if bitShift == 0 {
			dst[i] = lo
		} else {
			dst[i] = lo>>bitShift | hi<<(8-bitShift)
		}
	}
	maskTop(dst, width)
}

// ShiftRightArithmetic computes dst = src >> n (sign-fill), width bits.
func ShiftRightArithmetic(dst, src []byte, n, width int) {
	ShiftRightLogical(dst, src, n, width)
	if !signBit(src, width) {
		return
	}
	// Fill the vacated high bits with ones.
	filled := width - n
	if filled < 0 {
		filled = 0
	}
	for bit := filled; bit < width; bit++ {
		idx := bit / digitBits
		off := uint(bit % digitBits)
		dst[idx] |= 1 << off
	}
	maskTop(dst, width)
}

// MulUnsigned computes dst = a * b (width bits each, truncated to width),
// using scratch of at least len(a)+len(b) digits supplied by the caller
// (§4.4: "caller supplies an accumulator scratch of size max(a,b)+1
// digits" generalized here to the full double-width product before
// truncation).
func MulUnsigned(dst []byte, a, b []byte, width int, scratch []byte) {
	for i := range scratch {
		scratch[i] = 0
	}
	for i := range a {
		if a[i] == 0 {
			continue
		}
		var carry uint16
		for j := range b {
			if i+j >= len(scratch) {
				break
			}
			prod := uint16(a[i])*uint16(b[j]) + uint16(scratch[i+j]) + carry
			scratch[i+j] = byte(prod)
			carry = prod >> 8
		}
		k := i + len(b)
		for carry != 0 && k < len(scratch) {
			sum := uint16(scratch[k]) + carry
			scratch[k] = byte(sum)
			carry = sum >> 8
			k++
		}
	}
	copy(dst, scratch)
	for i := len(scratch); i < len(dst); i++ {
		dst[i] = 0
	}
	maskTop(dst, width)
}

// MulSigned computes dst = a * b using sign-magnitude via MulUnsigned,
// restoring the sign of the product.
func MulSigned(dst, a, b []byte, width int, scratch, tmpA, tmpB []byte) {
	negA, negB := signBit(a, width), signBit(b, width)
	sa, sb := a, b
	if negA {
		Negate(tmpA, a, width)
		sa = tmpA
	}
	if negB {
		Negate(tmpB, b, width)
		sb = tmpB
	}
	MulUnsigned(dst, sa, sb, width, scratch)
	if negA != negB {
		Negate(dst, append([]byte(nil), dst...), width)
	}
}

// DivUnsigned computes quot = a / b, rem = a % b (width bits), using the
// simple binary long-division algorithm (shift-and-subtract). If b is zero
// it returns an invalid-parameter diag error and leaves quot and rem
// untouched; diag has no separate division-by-zero kind.
func DivUnsigned(quot, rem []byte, a, b []byte, width int) error {
	if IsZero(b) {
		return diag.New(diag.InvalidParameter, "bigint division by zero")
	}
	for i := range quot {
		quot[i] = 0
	}
	for i := range rem {
		rem[i] = 0
	}
	shifted := make([]byte, len(rem))
	for bit := width - 1; bit >= 0; bit-- {
		ShiftLeft(rem, append([]byte(nil), rem...), 1, width)
		idx, off := bit/digitBits, uint(bit%digitBits)
		if a[idx]&(1<<off) != 0 {
			rem[0] |= 1
		}
		if !lessUnsigned(rem, b) {
			Sub(shifted, rem, b, width)
			copy(rem, shifted)
			qidx, qoff := bit/digitBits, uint(bit%digitBits)
			quot[qidx] |= 1 << qoff
		}
	}
	maskTop(quot, width)
	maskTop(rem, width)
	return nil
}

// DivSigned computes truncating signed division (quot, rem both take the
// sign convention of C's `/` and `%`).
func DivSigned(quot, rem []byte, a, b []byte, width int) error {
	if IsZero(b) {
		return diag.New(diag.InvalidParameter, "bigint division by zero")
	}
	negA, negB := signBit(a, width), signBit(b, width)
	ua, ub := make([]byte, len(a)), make([]byte, len(b))
	if negA {
		Negate(ua, a, width)
	} else {
		copy(ua, a)
	}
	if negB {
		Negate(ub, b, width)
	} else {
		copy(ub, b)
	}
	if err := DivUnsigned(quot, rem, ua, ub, width); err != nil {
		return err
	}
	if negA != negB {
		Negate(quot, append([]byte(nil), quot...), width)
	}
	if negA {
		Negate(rem, append([]byte(nil), rem...), width)
	}
	return nil
}

func lessUnsigned(a, b []byte) bool {
	for i := len(a) - 1; i >= 0; i-- {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// CompareUnsigned returns -1, 0, or 1.
func CompareUnsigned(a, b []byte) int {
	for i := len(a) - 1; i >= 0; i-- {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// CompareSigned returns -1, 0, or 1, honoring width-bit two's-complement
// sign.
func CompareSigned(a, b []byte, width int) int {
	as, bs := signBit(a, width), signBit(b, width)
	if as != bs {
		if as {
			return -1
		}
		return 1
	}
	return CompareUnsigned(a, b)
}

// ToFloat64 converts buf (width bits, signed if signed is true) to the
// nearest float64, rounding to nearest-even on the trailing bits beyond
// DBL_MANT_DIG per §4.4.
func ToFloat64(buf []byte, width int, signed bool) float64 {
	neg := false
	work := buf
	if signed && signBit(buf, width) {
		neg = true
		tmp := make([]byte, len(buf))
		Negate(tmp, buf, width)
		work = tmp
	}
	// Convert the exact magnitude in one step: big.Float's Float64 rounds
	// once to nearest-even, so every bit below the kept ones counts as sticky.
	be := make([]byte, len(work))
	for i, d := range work {
		be[len(work)-1-i] = d
	}
	result, _ := new(big.Float).SetInt(new(big.Int).SetBytes(be)).Float64()
	if neg {
		result = -result
	}
	return result
}
