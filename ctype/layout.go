package ctype

// Layout computes (size, align) for a structure or union type, filling in
// each Field's Offset/BitOffset/StorageUnit. It implements the §12
// supplement drawn from original_source's struct_layout algorithm: bit-
// fields are packed into shared storage units of their declared type's
// size rather than one storage unit per field, a zero-width bit-field forces
// a new storage-unit boundary, and a trailing flexible array member
// contributes zero to sizeof and is offset at the size so far rounded up to
// its element's alignment.
func Layout(t *Traits, agg *Type) (size, align int) {
	if agg.Kind == KindUnion {
		return layoutUnion(t, agg)
	}
	return layoutStruct(t, agg)
}

func layoutStruct(t *Traits, agg *Type) (int, int) {
	offset := 0
	align := 1

	// storageUnit tracks the in-progress bit-field packing run: the byte
	// offset the unit starts at, its declared width in bytes, and the next
	// free bit within it.
	haveUnit := false
	unitStart := 0
	unitSize := 0
	unitBit := 0
	unitIndex := -1

	closeUnit := func() {
		if haveUnit {
			offset = unitStart + unitSize
			haveUnit = false
		}
	}

	for i := range agg.Fields {
		f := &agg.Fields[i]

		if f.BitfieldBits >= 0 {
			fieldSize := t.SizeOf2(f.Type)
			fieldAlign := t.AlignOf2(f.Type)
			if f.Align > fieldAlign {
				fieldAlign = f.Align
			}
			if fieldAlign > align {
				align = fieldAlign
			}

			if f.BitfieldBits == 0 {
				// A zero-width bit-field forces a new storage unit at the
				// next eligible boundary without itself occupying space.
				closeUnit()
				offset = roundUp(offset, fieldAlign)
				continue
			}

			needsNewUnit := !haveUnit || unitSize != fieldSize || unitBit+f.BitfieldBits > fieldSize*t.CharBit
			if needsNewUnit {
				closeUnit()
				offset = roundUp(offset, fieldAlign)
				unitStart = offset
				unitSize = fieldSize
				unitBit = 0
				haveUnit = true
				unitIndex++
			}
			f.Offset = unitStart
			f.StorageUnit = unitIndex
			f.BitOffset = unitBit
			unitBit += f.BitfieldBits
			continue
		}

		closeUnit()

		if i == len(agg.Fields)-1 && f.Type.Kind == KindArray && f.Type.ArrayBoundary == BoundaryUnbounded {
			// Trailing flexible array member: offset at the (padded) size so
			// far, contributes zero bytes to sizeof.
			fieldAlign := t.AlignOf2(f.Type.Elem)
			if fieldAlign > align {
				align = fieldAlign
			}
			offset = roundUp(offset, fieldAlign)
			f.Offset = offset
			agg.HasFlexible = true
			continue
		}

		fieldAlign := t.AlignOf2(f.Type)
		if f.Align > fieldAlign {
			fieldAlign = f.Align
		}
		if fieldAlign > align {
			align = fieldAlign
		}
		offset = roundUp(offset, fieldAlign)
		f.Offset = offset
		offset += t.SizeOf2(f.Type)
	}
	closeUnit()

	size := roundUp(offset, align)
	if size == 0 {
		size = align // empty struct still occupies at least one alignment unit's worth in this ABI
	}
	return size, align
}

func layoutUnion(t *Traits, agg *Type) (int, int) {
	size := 0
	align := 1
	for i := range agg.Fields {
		f := &agg.Fields[i]
		f.Offset = 0
		f.BitOffset = 0
		f.StorageUnit = 0
		fieldAlign := t.AlignOf2(f.Type)
		if f.Align > fieldAlign {
			fieldAlign = f.Align
		}
		if fieldAlign > align {
			align = fieldAlign
		}
		fieldSize := t.SizeOf2(f.Type)
		if f.BitfieldBits >= 0 {
			fieldSize = t.SizeOf2(f.Type)
		}
		if fieldSize > size {
			size = fieldSize
		}
	}
	return roundUp(size, align), align
}

// ResolveField looks up a member by name, transparently descending through
// anonymous struct/union members per §4.1 ("anonymous struct/union members
// flatten transparently"). It returns the path of Field descriptors from
// outermost to innermost member, and the cumulative byte offset.
func ResolveField(agg *Type, name string) (path []*Field, offset int, ok bool) {
	for i := range agg.Fields {
		f := &agg.Fields[i]
		if f.Name == name {
			return []*Field{f}, f.Offset, true
		}
		if f.Anonymous && (f.Type.Unqualified().Kind == KindStruct || f.Type.Unqualified().Kind == KindUnion) {
			if sub, subOff, found := ResolveField(f.Type.Unqualified(), name); found {
				return append([]*Field{f}, sub...), f.Offset + subOff, true
			}
		}
	}
	return nil, 0, false
}
