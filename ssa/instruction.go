package ssa

import "github.com/sourcehut-mirrors/selfcc/ctype"

// MemoryOrder mirrors the C11 memory_order enumerators; atomic instruction
// lowering (§4.5) maps SeqCst to the numeric value 5 libatomic expects.
type MemoryOrder int

const (
	OrderRelaxed MemoryOrder = iota
	OrderConsume
	OrderAcquire
	OrderRelease
	OrderAcqRel
	OrderSeqCst
)

// AtomicRMWKind distinguishes the read-modify-write operation of an
// OpAtomicRMW instruction.
type AtomicRMWKind int

const (
	AtomicRMWAdd AtomicRMWKind = iota
	AtomicRMWSub
	AtomicRMWAnd
	AtomicRMWOr
	AtomicRMWXor
	AtomicRMWExchange
)

// ICmpCond / FCmpCond name the comparison predicate of OpICmp/OpFCmp/
// OpSelectCompare.
type ICmpCond int

const (
	ICmpEq ICmpCond = iota
	ICmpNe
	ICmpSlt
	ICmpSle
	ICmpSgt
	ICmpSge
	ICmpUlt
	ICmpUle
	ICmpUgt
	ICmpUge
)

type FCmpCond int

const (
	FCmpEq FCmpCond = iota
	FCmpNe
	FCmpLt
	FCmpLe
	FCmpGt
	FCmpGe
	FCmpUnordered
)

// Instruction is the single flattened variant of every SSA value/effect
// (§4.3). Only the fields relevant to Opcode are meaningful, mirroring the
// teacher's single-struct Instruction in instructions.go rather than one Go
// type per opcode.
type Instruction struct {
	Opcode Opcode
	Result ValueRef
	Type   Type

	Block BlockID

	Args []ValueRef // generic operand list for opcodes with uniform operands

	// OpLoad/OpStore/OpLoadComplex/OpStoreComplex/OpAtomic*/OpAllocLocal
	Addr   ValueRef
	Offset int64
	Size   int // bytes, for typed loads/stores and alloc_local

	// OpAllocLocal
	Align int

	// OpConst
	ConstInt   int64
	ConstFloat float64
	ConstBits  []byte // bigint digit payload for _BitInt/long-double constants

	// OpICmp/OpSelectCompare
	ICmpCond ICmpCond
	// OpFCmp
	FCmpCond FCmpCond

	// OpAtomicLoad/OpAtomicStore/OpAtomicCmpXchg/OpAtomicRMW
	Order    MemoryOrder
	RMWKind  AtomicRMWKind
	Expected ValueRef // OpAtomicCmpXchg

	// OpBigInt*
	BitWidth int
	Signed   bool

	// OpJump
	Target BlockID
	// OpBranch
	Cond        ValueRef
	TrueTarget  BlockID
	FalseTarget BlockID
	// OpBranchTable
	Targets []BlockID
	Default BlockID

	// OpPhi: predecessor block -> incoming value, per §4.3.
	Incoming map[BlockID]ValueRef

	// OpInvoke/OpInvokeVirtual/OpTailInvoke
	Callee      string   // symbol name; empty for indirect calls
	CalleeValue ValueRef // indirect callee, when Callee == ""
	CallArgs    []ValueRef

	// OpVaArg
	VaListPtr ValueRef

	// OpConvert
	FromType Type

	// OpReturn/OpInvoke*/OpParam/OpAllocLocal when Type == TypeAggregate:
	// the aggregate's layout, since ClassifyAggregate needs a *ctype.Type
	// rather than the scalar Type enum.
	AggType *ctype.Type

	// OpInvoke/OpInvokeVirtual/OpTailInvoke: per-argument type, parallel to
	// CallArgs, so each argument is classified by its own type instead of
	// assuming every argument is an integer. CallArgAggTypes[i] is
	// meaningful only where CallArgTypes[i] == TypeAggregate.
	CallArgTypes    []Type
	CallArgAggTypes []*ctype.Type
}

// NewInstruction allocates a zero-value instruction of the given opcode.
func NewInstruction(op Opcode) *Instruction {
	return &Instruction{Opcode: op}
}
