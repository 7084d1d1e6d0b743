package octa

import "fmt"

// Edit message opcodes. Each record is little endian: the opcode, the
// target's x/y/z coordinates and grid size as int32, then the payload.
const (
	// OpSubdivide splits a leaf into 8 children seeded from its state.
	OpSubdivide byte = iota + 1
	// OpSetEdge sets one edge table entry: index byte (0..11), value byte.
	OpSetEdge
	// OpSetTexture sets one face's slot index: face byte (0..5), uint16.
	OpSetTexture
	// OpSetMaterial sets the empty-space material: uint16.
	OpSetMaterial
)

// ApplyEdits applies an edit message stream to the tree in strict record
// order. Application is not atomic: records applied before a failure stay
// applied, so a caller needing atomicity must copy the tree first. A record
// may rely on an earlier one in the same message, e.g. a subdivide followed
// by edits of the new children.
func ApplyEdits(root *Cube, worldSize int32, msg []byte) error {
	return applyEdits(root, worldSize, msg, nil)
}

func applyEdits(root *Cube, worldSize int32, msg []byte, slots *VSlotTable) error {
	r := newReader(msg)
	for r.remaining() > 0 {
		op, err := r.getByte()
		if err != nil {
			return err
		}
		var x, y, z, grid int32
		for _, p := range []*int32{&x, &y, &z, &grid} {
			if *p, err = r.getInt32(); err != nil {
				return err
			}
		}
		target, err := LocateAt(root, worldSize, x, y, z, grid)
		if err != nil {
			return err
		}

		switch op {
		case OpSubdivide:
			if target.Children != nil {
				return fmt.Errorf("%w: subdivide target at (%d, %d, %d) size %d already has children", ErrAddressing, x, y, z, grid)
			}
			target.Subdivide()
		case OpSetEdge:
			idx, err := r.getByte()
			if err != nil {
				return err
			}
			val, err := r.getByte()
			if err != nil {
				return err
			}
			if idx > 11 {
				return fmt.Errorf("%w: edge index %d", ErrAddressing, idx)
			}
			target.Edges[idx] = val
		case OpSetTexture:
			face, err := r.getByte()
			if err != nil {
				return err
			}
			tex, err := r.getUint16()
			if err != nil {
				return err
			}
			if face > 5 {
				return fmt.Errorf("%w: face index %d", ErrAddressing, face)
			}
			if slots != nil && int(tex) >= slots.Count() {
				return fmt.Errorf("%w: texture %d of %d", ErrSlotIndexOutOfRange, tex, slots.Count())
			}
			target.Texture[face] = tex
		case OpSetMaterial:
			mat, err := r.getUint16()
			if err != nil {
				return err
			}
			target.Material = mat
		default:
			return fmt.Errorf("%w: %d", ErrUnknownEditOp, op)
		}
	}
	return nil
}
