package emit

import (
	"strconv"

	"github.com/sourcehut-mirrors/selfcc/diag"
)

// sourceTracker is the "separate tracker object" §4.8 calls for: it
// remembers the last location handed to it and reports whether the next
// one differs, so the emitter only writes a `.loc` directive on an actual
// change instead of once per instruction.
type sourceTracker struct {
	have bool
	last diag.Location
}

// updateLocation records loc and reports the assembler directive to emit, or ""
// if loc is the same source position as the last update.
func (w *Writer) updateLocation(loc diag.Location) string {
	if loc.File == "" {
		return ""
	}
	if w.loc.have && w.loc.last == loc {
		return ""
	}
	w.loc.have = true
	w.loc.last = loc
	return ".loc \"" + loc.File + "\" " + strconv.Itoa(loc.Line) + " " + strconv.Itoa(loc.Column)
}

// Location emits a `.loc` directive if loc advances the tracked source
// position, a no-op otherwise.
func (w *Writer) Location(loc diag.Location) {
	if directive := w.updateLocation(loc); directive != "" {
		w.line("\t%s", directive)
	}
}
