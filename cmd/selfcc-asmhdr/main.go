// Command selfcc-asmhdr prints the external-symbol/section directive block
// that opens an emitted translation unit. It is the textual-assembly
// counterpart of the teacher's bin2asm, which reconstructed and printed a
// PE file's header fields (cmd/bin2asm/header.go's dumpHeader); selfcc has
// no object file to read the header out of, so this command runs the
// built-in sample functions through the pipeline and prints the header the
// emitter would have written above their bodies.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sourcehut-mirrors/selfcc/amd64/emit"
	"github.com/sourcehut-mirrors/selfcc/amd64/frame"
	"github.com/sourcehut-mirrors/selfcc/amd64/instsel"
	"github.com/sourcehut-mirrors/selfcc/amd64/pipeline"
	"github.com/sourcehut-mirrors/selfcc/amd64/regalloc"
	"github.com/sourcehut-mirrors/selfcc/ctype"
	"github.com/sourcehut-mirrors/selfcc/internal/demo"
)

var (
	flagFuncs  []string
	flagSyntax string
	flagBody   bool
)

func main() {
	root := &cobra.Command{
		Use:   "selfcc-asmhdr",
		Short: "print the assembly header block for a set of built-in sample functions",
		RunE:  run,
	}
	root.Flags().StringSliceVar(&flagFuncs, "func", demo.Names(), "sample functions to lower into the unit: add, divrem, branch")
	root.Flags().StringVar(&flagSyntax, "syntax", "att", "assembly syntax: att, intel")
	root.Flags().BoolVar(&flagBody, "body", false, "also print the function bodies below the header")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	var fns []*emit.Function
	for _, name := range flagFuncs {
		s := demo.Find(name)
		if s == nil {
			names := demo.Names()
			sort.Strings(names)
			return errors.Errorf("unknown --func %q; known: %v", name, names)
		}

		fn := s.Build()
		sel := instsel.NewSelector(ctype.DefaultTraits())
		ctx, err := sel.Select(fn)
		if err != nil {
			return errors.WithStack(err)
		}
		pipeline.Run(ctx)
		table := regalloc.Allocate(ctx)

		locals := sel.Locals()
		req := frame.NewRequirements(locals)
		req.Preserved = table.CalleeSavedUsed()
		req.SpillWords = table.SpillWords
		off := frame.Compute(req)

		fns = append(fns, &emit.Function{
			Name:    fn.Name,
			Ctx:     ctx,
			Alloc:   table,
			Req:     req,
			Offsets: off,
		})
	}

	syntax := emit.ATT
	if flagSyntax == "intel" {
		syntax = emit.Intel
	}

	out, err := emit.EmitUnit(syntax, fns)
	if err != nil {
		return errors.WithStack(err)
	}

	if flagBody {
		fmt.Print(out)
		return nil
	}

	idx := strings.Index(out, ".globl")
	if idx < 0 {
		fmt.Print(out)
		return nil
	}
	fmt.Print(out[:idx])
	return nil
}
