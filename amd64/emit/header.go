package emit

import (
	"sort"
	"strings"
)

// Header renders the external-symbol/section directive block that opens
// the emitted translation unit, the textual-assembler counterpart of the
// teacher's dumpHeader (cmd/bin2asm/header.go): there the PE header is
// reconstructed field by field into a fixed preamble block; here the
// preamble instead declares every symbol the function bodies referenced
// but did not define, plus the section the code lives in.
func (w *Writer) Header() string {
	var b strings.Builder
	b.WriteString(".section .text\n")

	externs := w.Externs()
	sort.Strings(externs)
	for _, name := range externs {
		if w.Syntax == ATT {
			b.WriteString(".extern " + name + "\n")
		} else {
			b.WriteString("EXTERN " + name + "\n")
		}
	}
	return b.String()
}
