package octa

// EncodeCube encodes the tree in the current format version (MapVersion).
// The stream mirrors the decoder's traversal: depth-first, fixed child
// order, one tag byte per node. Round-trip law: DecodeCube(EncodeCube(t),
// size, MapVersion) reproduces t field for field, vestigial internal-node
// fields included (internal nodes carrying leaf state use the LOD variant).
// One normalization applies: empty leaves shed their merge mask and surface
// extension, which have no meaning on unoccupied space and are never
// written by the engine either.
func EncodeCube(root *Cube, size int32) []byte {
	w := &writer{}
	encodeCube(w, root, size)
	return w.buf
}

func encodeCube(w *writer, c *Cube, size int32) {
	if c.Children != nil && !hasLeafState(c) {
		w.putByte(octsavChildren)
		encodeChildren(w, c.Children, size)
		return
	}

	oflags := byte(0)
	if c.Material != MatAir {
		oflags |= materialFlag
	}
	if c.Merged != 0 {
		oflags |= mergedFlag
	}
	if c.Ext != nil && c.Ext.SurfMask != 0 {
		oflags |= surfMaskFlag
	}

	switch {
	case c.Children != nil:
		w.putByte(oflags | octsavLODCube)
	case c.IsEmpty():
		// Merge and surface state is meaningless on empty space.
		oflags &^= mergedFlag | surfMaskFlag
		w.putByte(oflags | octsavEmpty)
	case c.IsEntirelySolid():
		w.putByte(oflags | octsavSolid)
	default:
		w.putByte(oflags | octsavNormal)
		w.putBytes(c.Edges[:])
	}

	for i := 0; i < 6; i++ {
		w.putUint16(c.Texture[i])
	}
	if oflags&materialFlag != 0 {
		w.putUint16(c.Material)
	}
	if oflags&mergedFlag != 0 {
		w.putByte(c.Merged)
	}
	if oflags&surfMaskFlag != 0 {
		encodeSurfaces(w, c.Ext)
	}

	if c.Children != nil {
		encodeChildren(w, c.Children, size)
	}
}

func encodeChildren(w *writer, children *[8]Cube, size int32) {
	for i := range children {
		encodeCube(w, &children[i], size>>1)
	}
}

func encodeSurfaces(w *writer, ext *CubeExt) {
	w.putByte(ext.SurfMask)
	w.putByte(ext.TotalVerts)
	for i := 0; i < 6; i++ {
		if ext.SurfMask&(1<<i) == 0 {
			continue
		}
		s := ext.Surfaces[i]
		w.putByte(s.Lmid[0])
		w.putByte(s.Lmid[1])
		w.putByte(s.Verts)
		w.putByte(s.NumVerts)
		w.putBytes(ext.VertData[i])
	}
}

// hasLeafState reports whether an internal node still carries vestigial
// leaf fields that must survive a round trip.
func hasLeafState(c *Cube) bool {
	if c.Material != MatAir || c.Merged != 0 {
		return true
	}
	if c.Ext != nil && c.Ext.SurfMask != 0 {
		return true
	}
	for _, t := range c.Texture {
		if t != 0 {
			return true
		}
	}
	return false
}
