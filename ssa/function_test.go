package ssa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildCFGLinksJumpTarget(t *testing.T) {
	fn := NewFunction("f", nil, TypeI32)
	entry := fn.NewBlock()
	exit := fn.NewBlock()
	fn.Emit(entry, &Instruction{Opcode: OpJump, Target: exit.ID})
	fn.Emit(exit, &Instruction{Opcode: OpReturn})

	require.NoError(t, fn.BuildCFG())
	require.Equal(t, []BlockID{exit.ID}, entry.Succs)
	require.Equal(t, []BlockID{entry.ID}, exit.Preds)
	require.NoError(t, fn.Validate())
}

func TestValidateRejectsMissingPhiIncoming(t *testing.T) {
	fn := NewFunction("f", nil, TypeI32)
	entry := fn.NewBlock()
	join := fn.NewBlock()
	fn.Emit(entry, &Instruction{Opcode: OpJump, Target: join.ID})
	phi := &Instruction{Opcode: OpPhi, Type: TypeI32, Incoming: map[BlockID]ValueRef{}}
	fn.Emit(join, phi)
	fn.Emit(join, &Instruction{Opcode: OpReturn})
	require.NoError(t, fn.BuildCFG())
	require.Error(t, fn.Validate())
}

func TestAnalyzeAssignsLinearIndices(t *testing.T) {
	fn := NewFunction("f", nil, TypeI32)
	b := fn.NewBlock()
	c := fn.Emit(b, &Instruction{Opcode: OpConst, Type: TypeI32, ConstInt: 1})
	fn.Emit(b, &Instruction{Opcode: OpReturn, Args: []ValueRef{c}})

	ca := Analyze(fn)
	require.Equal(t, 2, ca.Len())
	require.Equal(t, 0, ca.IndexOf(b.Instructions[0]))
	require.Equal(t, 1, ca.IndexOf(b.Instructions[1]))
}
