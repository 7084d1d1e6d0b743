package octa

import "fmt"

// MapVersion is the current map format version, the one the encoder emits.
const MapVersion = 33

// Node tags of the on-disk octree stream. The low 3 bits of each node's
// leading byte select the variant; the high bits are per-version field flags.
const (
	octsavChildren byte = iota
	octsavEmpty
	octsavSolid
	octsavNormal
	octsavLODCube
)

// Field flags carried in the high bits of a v32+ leaf tag.
const (
	surfMaskFlag  byte = 0x20
	materialFlag  byte = 0x40
	mergedFlag    byte = 0x80
	legacyMaxSurf      = 12
)

// DecodeCube decodes one geometry cell tree from data. size is the edge
// length of the decoded cube's volume and version the map format version;
// the version is validated once here and threaded through every node.
// A buffer that ends before the declared tree is complete fails with
// ErrTruncated and no partial tree is returned.
func DecodeCube(data []byte, size, version int32) (*Cube, error) {
	if err := checkVersion(version); err != nil {
		return nil, err
	}
	r := newReader(data)
	root := &Cube{}
	if err := decodeCube(r, root, size, version); err != nil {
		return nil, err
	}
	return root, nil
}

func checkVersion(version int32) error {
	if version < 1 || version > MapVersion {
		return fmt.Errorf("%w: %d (supported: 1..%d)", ErrUnsupportedVersion, version, MapVersion)
	}
	return nil
}

func decodeChildren(r *reader, size, version int32) (*[8]Cube, error) {
	// Splitting stops at unit cells; deeper children tags would loop on
	// size 0 and let crafted input recurse linearly in buffer length.
	if size < 2 {
		return nil, fmt.Errorf("%w: node of size %d cannot have children", ErrStructuralInvariant, size)
	}
	children := new([8]Cube)
	for i := range children {
		if err := decodeCube(r, &children[i], size>>1, version); err != nil {
			return nil, err
		}
	}
	return children, nil
}

func decodeCube(r *reader, c *Cube, size, version int32) error {
	octsav, err := r.getByte()
	if err != nil {
		return err
	}

	hasChildren := false
	switch octsav & 0x7 {
	case octsavChildren:
		children, err := decodeChildren(r, size, version)
		if err != nil {
			return err
		}
		c.Children = children
		return nil
	case octsavLODCube:
		hasChildren = true
	case octsavEmpty:
		c.SetFaces(FaceEmpty)
	case octsavSolid:
		c.SetFaces(FaceSolid)
	case octsavNormal:
		edges, err := r.getBytes(12)
		if err != nil {
			return err
		}
		copy(c.Edges[:], edges)
	default:
		return fmt.Errorf("%w: invalid node tag %d", ErrStructuralInvariant, octsav&0x7)
	}

	for i := 0; i < 6; i++ {
		if version < 14 {
			tex, err := r.getByte()
			if err != nil {
				return err
			}
			c.Texture[i] = uint16(tex)
		} else {
			tex, err := r.getUint16()
			if err != nil {
				return err
			}
			c.Texture[i] = tex
		}
	}

	switch {
	case version < 7:
		if err := r.skip(3); err != nil {
			return err
		}
	case version <= 31:
		if err := decodeLegacySurfaces(r, c, octsav, version); err != nil {
			return err
		}
	default:
		if octsav&materialFlag != 0 {
			if version <= 32 {
				mat, err := r.getByte()
				if err != nil {
					return err
				}
				c.Material = uint16(mat)
			} else {
				mat, err := r.getUint16()
				if err != nil {
					return err
				}
				c.Material = mat
			}
		}
		if octsav&mergedFlag != 0 {
			merged, err := r.getByte()
			if err != nil {
				return err
			}
			c.Merged = merged
		}
		if octsav&surfMaskFlag != 0 {
			if err := decodeSurfaces(r, c); err != nil {
				return err
			}
		}
	}

	if hasChildren {
		children, err := decodeChildren(r, size, version)
		if err != nil {
			return err
		}
		c.Children = children
	}
	return nil
}

// decodeSurfaces reads a v32+ surface block into the cube's extension. The
// per-surface vertex payload is retained raw so encoding reproduces it.
func decodeSurfaces(r *reader, c *Cube) error {
	surfMask, err := r.getByte()
	if err != nil {
		return err
	}
	totalVerts, err := r.getByte()
	if err != nil {
		return err
	}

	ext := &CubeExt{SurfMask: surfMask, TotalVerts: totalVerts}
	for i := 0; i < 6; i++ {
		if surfMask&(1<<i) == 0 {
			continue
		}
		b, err := r.getBytes(4)
		if err != nil {
			return err
		}
		s := SurfaceInfo{Lmid: [2]byte{b[0], b[1]}, Verts: b[2], NumVerts: b[3]}
		ext.Surfaces[i] = s
		raw, err := readSurfaceVerts(r, s)
		if err != nil {
			return err
		}
		ext.VertData[i] = raw
	}
	c.Ext = ext
	return nil
}

// readSurfaceVerts advances past one surface's vertex records and returns
// the raw bytes consumed. The layout depends on the surface's vertex mask:
// shared quad coordinates, per-vertex XYZ/UV/normal fields, and an extra UV
// run when the surface carries a duplicated blend layer.
func readSurfaceVerts(r *reader, s SurfaceInfo) ([]byte, error) {
	if s.totalVerts() == 0 {
		return nil, nil
	}

	start := r.pos
	vertMask := s.Verts
	layerVerts := int(s.NumVerts & maxFaceVerts)
	hasXYZ := vertMask&0x04 != 0
	hasUV := vertMask&0x40 != 0
	hasNorm := vertMask&0x80 != 0

	if layerVerts == 4 {
		if hasXYZ && vertMask&0x01 != 0 {
			if err := r.skip(8); err != nil {
				return nil, err
			}
			hasXYZ = false
		}
		if hasUV && vertMask&0x02 != 0 {
			if err := r.skip(8); err != nil {
				return nil, err
			}
			if s.NumVerts&layerDup != 0 {
				if err := r.skip(8); err != nil {
					return nil, err
				}
			}
			hasUV = false
		}
	}

	if hasNorm && vertMask&0x08 != 0 {
		if err := r.skip(2); err != nil {
			return nil, err
		}
		hasNorm = false
	}

	if hasXYZ || hasUV || hasNorm {
		n := 0
		if hasXYZ {
			n += 4
		}
		if hasUV {
			n += 4
		}
		if hasNorm {
			n += 2
		}
		if err := r.skip(n * layerVerts); err != nil {
			return nil, err
		}
	}

	if s.NumVerts&layerDup != 0 && hasUV {
		if err := r.skip(4 * layerVerts); err != nil {
			return nil, err
		}
	}

	if r.pos == start {
		return nil, nil
	}
	// Copied so the tree never aliases the caller-owned input buffer.
	return append([]byte(nil), r.data[start:r.pos]...), nil
}

// decodeLegacySurfaces consumes the pre-v32 surface compatibility block.
// Only the merge mask survives into the cube; surface, normal and merge
// records of the old lightmap pipeline are decoded and discarded.
func decodeLegacySurfaces(r *reader, c *Cube, octsav byte, version int32) error {
	mask, err := r.getByte()
	if err != nil {
		return err
	}
	if mask&0x80 != 0 {
		if err := r.skip(1); err != nil {
			return err
		}
	}

	if mask&0x3F != 0 {
		numSurfaces := 6
		for i := 0; i < numSurfaces && i < legacyMaxSurf; i++ {
			if i >= 6 || mask&(1<<i) != 0 {
				// 16-byte surface record; byte 15 is the layer field.
				surf, err := r.getBytes(16)
				if err != nil {
					return err
				}
				if i < 6 {
					if mask&0x40 != 0 {
						if err := r.skip(12); err != nil {
							return err
						}
					}
					if surf[15]&2 != 0 {
						numSurfaces++
					}
				}
			}
		}
	}

	if version >= 20 && octsav&mergedFlag != 0 {
		merged, err := r.getByte()
		if err != nil {
			return err
		}
		c.Merged = merged & 0x3F
		if merged&0x80 != 0 {
			mergeMask, err := r.getByte()
			if err != nil {
				return err
			}
			for i := 0; i < 6; i++ {
				if mergeMask&(1<<i) != 0 {
					if err := r.skip(8); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
