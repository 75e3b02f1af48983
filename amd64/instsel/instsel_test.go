package instsel

import (
	"testing"

	"github.com/mewbak/x86/x86asm"
	"github.com/stretchr/testify/require"

	"github.com/sourcehut-mirrors/selfcc/amd64/abi"
	"github.com/sourcehut-mirrors/selfcc/asmcmp"
	"github.com/sourcehut-mirrors/selfcc/ctype"
	"github.com/sourcehut-mirrors/selfcc/ssa"
)

func buildAddFunction() *ssa.Function {
	fn := ssa.NewFunction("add", []ssa.Type{ssa.TypeI32, ssa.TypeI32}, ssa.TypeI32)
	b := fn.NewBlock()
	p0 := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpParam, Type: ssa.TypeI32})
	p1 := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpParam, Type: ssa.TypeI32})
	sum := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpIAdd, Type: ssa.TypeI32, Args: []ssa.ValueRef{p0, p1}})
	fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpReturn, Args: []ssa.ValueRef{sum}, Type: ssa.TypeI32})
	return fn
}

func TestSelectLowersIntegerAddAndReturn(t *testing.T) {
	fn := buildAddFunction()
	sel := NewSelector(ctype.DefaultTraits())
	ctx, err := sel.Select(fn)
	require.NoError(t, err)
	require.NotEmpty(t, ctx.Instructions)

	foundAdd, foundRet := false, false
	for _, instr := range ctx.Instructions {
		switch instr.Mnemonic {
		case "ADD":
			foundAdd = true
		case "RET":
			foundRet = true
		}
	}
	require.True(t, foundAdd)
	require.True(t, foundRet)
}

func TestSelectUnknownOpcodeFails(t *testing.T) {
	fn := ssa.NewFunction("bogus", nil, ssa.TypeI32)
	b := fn.NewBlock()
	fn.Emit(b, &ssa.Instruction{Opcode: ssa.Opcode(9999)})
	sel := NewSelector(ctype.DefaultTraits())
	_, err := sel.Select(fn)
	require.Error(t, err)
}

func TestDivisionRequiresRAXAndRDX(t *testing.T) {
	fn := ssa.NewFunction("divrem", []ssa.Type{ssa.TypeI32, ssa.TypeI32}, ssa.TypeI32)
	b := fn.NewBlock()
	a := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpParam, Type: ssa.TypeI32})
	c := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpParam, Type: ssa.TypeI32})
	q := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpSDiv, Type: ssa.TypeI32, Args: []ssa.ValueRef{a, c}})
	fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpReturn, Args: []ssa.ValueRef{q}, Type: ssa.TypeI32})

	sel := NewSelector(ctype.DefaultTraits())
	_, err := sel.Select(fn)
	require.NoError(t, err)
}

func TestBranchTargetsResolveToAttachedLabels(t *testing.T) {
	fn := ssa.NewFunction("branch", []ssa.Type{ssa.TypeI32, ssa.TypeI32}, ssa.TypeI32)
	entry := fn.NewBlock()
	onTrue := fn.NewBlock()
	onFalse := fn.NewBlock()

	a := fn.Emit(entry, &ssa.Instruction{Opcode: ssa.OpParam, Type: ssa.TypeI32})
	c := fn.Emit(entry, &ssa.Instruction{Opcode: ssa.OpParam, Type: ssa.TypeI32})
	cond := fn.Emit(entry, &ssa.Instruction{Opcode: ssa.OpICmp, Type: ssa.TypeI32, Args: []ssa.ValueRef{a, c}, ICmpCond: ssa.ICmpEq})
	fn.Emit(entry, &ssa.Instruction{Opcode: ssa.OpBranch, Cond: cond, TrueTarget: onTrue.ID, FalseTarget: onFalse.ID})
	fn.Emit(onTrue, &ssa.Instruction{Opcode: ssa.OpReturn, Args: []ssa.ValueRef{a}, Type: ssa.TypeI32})
	fn.Emit(onFalse, &ssa.Instruction{Opcode: ssa.OpReturn, Args: []ssa.ValueRef{c}, Type: ssa.TypeI32})

	sel := NewSelector(ctype.DefaultTraits())
	ctx, err := sel.Select(fn)
	require.NoError(t, err)

	jumps := 0
	for _, instr := range ctx.Instructions {
		if instr.Mnemonic != "JNE" && instr.Mnemonic != "JMP" {
			continue
		}
		require.Len(t, instr.Operands, 1)
		require.Equal(t, asmcmp.OperandInternalLabel, instr.Operands[0].Kind)
		require.NotNil(t, instr.Operands[0].Label)
		jumps++
	}
	require.Equal(t, 2, jumps)

	attached := 0
	for _, lbl := range ctx.Labels {
		if lbl.Attached {
			attached++
		}
	}
	require.Equal(t, 3, attached)
}

// TestLongDoubleArithUsesX87Stack verifies long-double addition is lowered
// through fld/faddp/fstp against memory operands rather than falling through
// to the SSE movss/addss path, which can't hold an 80-bit extended value.
func TestLongDoubleArithUsesX87Stack(t *testing.T) {
	fn := ssa.NewFunction("ldadd", []ssa.Type{ssa.TypeLongDouble, ssa.TypeLongDouble}, ssa.TypeLongDouble)
	b := fn.NewBlock()
	p0 := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpParam, Type: ssa.TypeLongDouble})
	p1 := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpParam, Type: ssa.TypeLongDouble})
	sum := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpFAdd, Type: ssa.TypeLongDouble, Args: []ssa.ValueRef{p0, p1}})
	fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpReturn, Args: []ssa.ValueRef{sum}, Type: ssa.TypeLongDouble})

	sel := NewSelector(ctype.DefaultTraits())
	ctx, err := sel.Select(fn)
	require.NoError(t, err)

	var foundFaddp, foundMovss bool
	for _, instr := range ctx.Instructions {
		switch instr.Mnemonic {
		case "FADDP":
			foundFaddp = true
			for _, op := range instr.Operands {
				require.NotEqual(t, asmcmp.OperandVReg, op.Kind)
			}
		case "MOVSS", "ADDSS", "MOVSD", "ADDSD":
			foundMovss = true
		}
	}
	require.True(t, foundFaddp, "expected an FADDP in the lowered instruction stream")
	require.False(t, foundMovss, "long-double arithmetic must not use the SSE path")
}

// TestComplexArithLowersWithoutError verifies complex addition/multiplication
// now lower to real scalar arithmetic over the real/imaginary component
// pairs instead of the permanent diag.InternalError stub.
func TestComplexArithLowersWithoutError(t *testing.T) {
	fn := ssa.NewFunction("cmul", []ssa.Type{ssa.TypeComplexF64, ssa.TypeComplexF64}, ssa.TypeComplexF64)
	b := fn.NewBlock()
	p0 := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpParam, Type: ssa.TypeComplexF64})
	p1 := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpParam, Type: ssa.TypeComplexF64})
	prod := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpCMul, Type: ssa.TypeComplexF64, Args: []ssa.ValueRef{p0, p1}})
	fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpReturn, Args: []ssa.ValueRef{prod}, Type: ssa.TypeComplexF64})

	sel := NewSelector(ctype.DefaultTraits())
	ctx, err := sel.Select(fn)
	require.NoError(t, err)

	mulCount := 0
	for _, instr := range ctx.Instructions {
		if instr.Mnemonic == "MULSD" {
			mulCount++
		}
	}
	require.Equal(t, 4, mulCount, "a complex multiply needs four real multiplies (aRe*bRe, aIm*bIm, aRe*bIm, aIm*bRe)")
}

// TestBigIntCallPassesBitWidth verifies the BigInt runtime call pushes the
// operand width as a trailing argument instead of silently dropping it.
func TestBigIntCallPassesBitWidth(t *testing.T) {
	fn := ssa.NewFunction("bigadd", []ssa.Type{ssa.TypeI64, ssa.TypeI64}, ssa.TypeI64)
	b := fn.NewBlock()
	p0 := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpParam, Type: ssa.TypeI64})
	p1 := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpParam, Type: ssa.TypeI64})
	sum := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpBigIntAdd, Type: ssa.TypeI64, Args: []ssa.ValueRef{p0, p1}, BitWidth: 128})
	fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpReturn, Args: []ssa.ValueRef{sum}, Type: ssa.TypeI64})

	sel := NewSelector(ctype.DefaultTraits())
	ctx, err := sel.Select(fn)
	require.NoError(t, err)

	pushes := 0
	var lastImm int64
	for _, instr := range ctx.Instructions {
		if instr.Mnemonic != "PUSH" {
			continue
		}
		pushes++
		if instr.Operands[0].Kind == asmcmp.OperandSignedImm {
			lastImm = instr.Operands[0].Imm.X.Int64()
		}
	}
	require.Equal(t, 3, pushes, "two value args plus the trailing bit-width argument")
	require.Equal(t, int64(128), lastImm)
}

// TestVarArgsMaterializeSaveAreaInline verifies va_start/va_arg emit the
// real System V save-area layout rather than calling fabricated
// __kefir_va_* runtime symbols.
func TestVarArgsMaterializeSaveAreaInline(t *testing.T) {
	fn := ssa.NewFunction("sum3", []ssa.Type{ssa.TypeI32}, ssa.TypeI32)
	b := fn.NewBlock()
	named := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpParam, Type: ssa.TypeI32})
	vl := fn.AllocValue()
	fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpVaStart, VaListPtr: vl})
	fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpVaArg, Type: ssa.TypeI32, VaListPtr: vl})
	fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpVaEnd, VaListPtr: vl})
	fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpReturn, Args: []ssa.ValueRef{named}, Type: ssa.TypeI32})

	sel := NewSelector(ctype.DefaultTraits())
	ctx, err := sel.Select(fn)
	require.NoError(t, err)

	for _, instr := range ctx.Instructions {
		require.NotContains(t, instr.Mnemonic, "__kefir_va_start")
		require.NotContains(t, instr.Mnemonic, "__kefir_va_arg")
		require.NotContains(t, instr.Mnemonic, "__kefir_va_end")
		require.NotContains(t, instr.Mnemonic, "__kefir_va_copy")
	}

	foundLea, foundCmp := false, false
	for _, instr := range ctx.Instructions {
		switch instr.Mnemonic {
		case "LEA":
			foundLea = true
		case "CMP":
			foundCmp = true
		}
	}
	require.True(t, foundLea, "va_start must materialize the reg_save_area/overflow_arg_area pointers via LEA")
	require.True(t, foundCmp, "va_arg must branch on the register-budget offset rather than calling a runtime helper")
}

// TestAllocLocalUsesAllocator verifies OpAllocLocal's result vreg is backed
// by a real frame slot from the Selector's local-variable allocator, instead
// of an unbacked pointer value that the allocator never hears about.
func TestAllocLocalUsesAllocator(t *testing.T) {
	fn := ssa.NewFunction("withlocal", nil, ssa.TypeI32)
	b := fn.NewBlock()
	local := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpAllocLocal, Type: ssa.TypePtr, Size: 16, Align: 8})
	val := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpLoad, Type: ssa.TypeI32, Addr: local})
	fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpReturn, Args: []ssa.ValueRef{val}, Type: ssa.TypeI32})

	sel := NewSelector(ctype.DefaultTraits())
	ctx, err := sel.Select(fn)
	require.NoError(t, err)
	require.NotEmpty(t, ctx.Instructions)

	slot, ok := sel.Locals().Slot(local)
	require.True(t, ok, "instAllocLocal must call localvar.Allocator.Alloc for its result")
	require.Equal(t, 16, slot.Size)
	require.Equal(t, 8, slot.Align)
	require.Equal(t, 16, sel.Locals().Size())

	foundLea := false
	for _, instr := range ctx.Instructions {
		if instr.Mnemonic == "LEA" {
			foundLea = true
		}
	}
	require.True(t, foundLea)
}

// TestCallClassifiesFloatArgumentAsSSE verifies a call argument's own type
// drives ABI classification instead of every argument being hardcoded as
// ClassInteger, so a float/double argument lands in an XMM register rather
// than an integer argument register.
func TestCallClassifiesFloatArgumentAsSSE(t *testing.T) {
	fn := ssa.NewFunction("caller", nil, ssa.TypeI32)
	b := fn.NewBlock()
	farg := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpConst, Type: ssa.TypeF64, ConstFloat: 1.5})
	result := fn.Emit(b, &ssa.Instruction{
		Opcode:       ssa.OpInvoke,
		Type:         ssa.TypeI32,
		Callee:       "takes_double",
		CallArgs:     []ssa.ValueRef{farg},
		CallArgTypes: []ssa.Type{ssa.TypeF64},
	})
	fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpReturn, Args: []ssa.ValueRef{result}, Type: ssa.TypeI32})

	sel := NewSelector(ctype.DefaultTraits())
	_, err := sel.Select(fn)
	require.NoError(t, err)

	vr, ok := sel.values[farg]
	require.True(t, ok)
	info := sel.ctx.VRegs.Info(vr)
	require.Equal(t, asmcmp.RealReg(x86asm.X0), info.Requirement)
}

// TestReturnAggregateClassifiesRegisters verifies a small struct-typed
// return is classified via abi.ClassifyAggregate and gathered through
// RAX/RDX instead of instReturn ignoring aggregate types entirely.
func TestReturnAggregateClassifiesRegisters(t *testing.T) {
	aggType := &ctype.Type{Kind: ctype.KindStruct, Fields: []ctype.Field{
		{Name: "x", Type: &ctype.Type{Kind: ctype.KindInt}, BitfieldBits: -1},
		{Name: "y", Type: &ctype.Type{Kind: ctype.KindInt}, BitfieldBits: -1},
	}}
	traits := ctype.DefaultTraits()
	ctype.Layout(traits, aggType)
	require.Equal(t, []abi.Class{abi.ClassInteger}, abi.ClassifyAggregate(traits, aggType))

	fn := ssa.NewFunction("retagg", nil, ssa.TypeAggregate)
	b := fn.NewBlock()
	ptr := fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpAllocLocal, Type: ssa.TypePtr, Size: 8, Align: 4})
	fn.Emit(b, &ssa.Instruction{Opcode: ssa.OpReturn, Args: []ssa.ValueRef{ptr}, Type: ssa.TypeAggregate, AggType: aggType})

	sel := NewSelector(traits)
	ctx, err := sel.Select(fn)
	require.NoError(t, err)

	foundRet := false
	for _, instr := range ctx.Instructions {
		if instr.Mnemonic == "RET" {
			foundRet = true
		}
	}
	require.True(t, foundRet)
}
