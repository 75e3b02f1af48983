// Command selfcc-dump walks a hand-built ssa.Function through instruction
// selection, the asmcmp peephole/devirtualization pipeline, register
// allocation, stack-frame layout, and assembly emission, printing each
// stage in turn. It is the debug-inspection counterpart of the teacher's
// bin2ll: where bin2ll disassembled a real binary and printed the LLVM IR
// it translated block by block, selfcc-dump has no binary or preprocessor
// to read (§1 keeps those out of scope), so it exercises the pipeline
// against functions it constructs itself.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/kr/pretty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sourcehut-mirrors/selfcc/amd64/emit"
	"github.com/sourcehut-mirrors/selfcc/amd64/frame"
	"github.com/sourcehut-mirrors/selfcc/amd64/instsel"
	"github.com/sourcehut-mirrors/selfcc/amd64/pipeline"
	"github.com/sourcehut-mirrors/selfcc/amd64/regalloc"
	"github.com/sourcehut-mirrors/selfcc/asmcmp"
	"github.com/sourcehut-mirrors/selfcc/ctype"
	"github.com/sourcehut-mirrors/selfcc/internal/demo"
)

var (
	flagFunc    string
	flagStage   string
	flagSyntax  string
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:   "selfcc-dump",
		Short: "dump the amd64 codegen pipeline for a built-in sample function",
		RunE:  run,
	}
	root.Flags().StringVar(&flagFunc, "func", "add", "sample function to lower: add, divrem, branch")
	root.Flags().StringVar(&flagStage, "stage", "emit", "stage to stop after: select, pipeline, regalloc, frame, emit")
	root.Flags().StringVar(&flagSyntax, "syntax", "att", "assembly syntax for the emit stage: att, intel")
	root.Flags().BoolVar(&flagVerbose, "verbose", false, "pretty-print the asmcmp context at every stage")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	s := demo.Find(flagFunc)
	if s == nil {
		names := demo.Names()
		sort.Strings(names)
		return errors.Errorf("unknown --func %q; known: %v", flagFunc, names)
	}
	fn := s.Build()

	sel := instsel.NewSelector(ctype.DefaultTraits())
	ctx, err := sel.Select(fn)
	if err != nil {
		return errors.WithStack(err)
	}
	fmt.Printf("== select (%s) ==\n", fn.Name)
	dumpInstructions(ctx)
	if flagVerbose {
		pretty.Println(ctx)
	}
	if flagStage == "select" {
		return nil
	}

	pipeline.Run(ctx)
	fmt.Println("== pipeline ==")
	dumpInstructions(ctx)
	if flagStage == "pipeline" {
		return nil
	}

	table := regalloc.Allocate(ctx)
	fmt.Println("== regalloc ==")
	dumpAssignments(table)
	if flagStage == "regalloc" {
		return nil
	}

	locals := sel.Locals()
	req := frame.NewRequirements(locals)
	req.Preserved = table.CalleeSavedUsed()
	req.SpillWords = table.SpillWords
	off := frame.Compute(req)
	fmt.Println("== frame ==")
	fmt.Printf("%#v\n", *off)
	if flagStage == "frame" {
		return nil
	}

	syntax := emit.ATT
	if flagSyntax == "intel" {
		syntax = emit.Intel
	}
	out, err := emit.EmitUnit(syntax, []*emit.Function{{
		Name:    fn.Name,
		Ctx:     ctx,
		Alloc:   table,
		Req:     req,
		Offsets: off,
	}})
	if err != nil {
		return errors.WithStack(err)
	}
	fmt.Println("== emit ==")
	fmt.Print(out)
	return nil
}

// dumpInstructions prints one line per asmcmp instruction, mirroring the
// teacher's fmt.Println(pretty-printed instruction) idiom in
// translateInst, but for the asmcmp stream rather than a decoded x86
// instruction.
func dumpInstructions(ctx *asmcmp.Context) {
	for i, instr := range ctx.Instructions {
		label := ""
		for _, lbl := range ctx.Labels {
			if lbl.Attached && lbl.Position == i {
				label = fmt.Sprintf(" [label %d]", int(lbl.ID))
			}
		}
		fmt.Printf("  %3d: %s%s\n", i, describeInstruction(instr), label)
	}
}

func describeInstruction(instr *asmcmp.Instruction) string {
	s := instr.Mnemonic
	for _, op := range instr.Operands {
		s += " " + describeOperand(op)
	}
	return s
}

func describeOperand(op asmcmp.Operand) string {
	switch op.Kind {
	case asmcmp.OperandPhysReg:
		return fmt.Sprintf("p%d", op.Phys)
	case asmcmp.OperandVReg:
		return fmt.Sprintf("v%d", op.VReg.ID())
	case asmcmp.OperandSignedImm, asmcmp.OperandUnsignedImm:
		return fmt.Sprintf("#%d", op.Imm.X.Int64())
	case asmcmp.OperandInternalLabel:
		return "label"
	case asmcmp.OperandExternalLabel:
		return op.Symbol
	default:
		return "?"
	}
}

func dumpAssignments(table *regalloc.Table) {
	ids := make([]asmcmp.VReg, 0, len(table.Assignments))
	for v := range table.Assignments {
		ids = append(ids, v)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].ID() < ids[j].ID() })
	for _, v := range ids {
		a := table.Assignments[v]
		if a.IsSpill {
			fmt.Printf("  v%d -> spill[%d]\n", v.ID(), a.SpillSlot)
			continue
		}
		fmt.Printf("  v%d -> p%d\n", v.ID(), a.Phys)
	}
}
