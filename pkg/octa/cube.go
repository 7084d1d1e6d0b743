// Package octa implements the octree world representation used by cube-engine
// maps: the geometry cell model, the versioned binary codec, path addressing,
// the edit-message applier and the variant slot table. It is a headless codec;
// it never renders, simulates or transports anything.
package octa

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// MatAir is the material of unoccupied empty space.
const MatAir uint16 = 0

// Canonical face values for the 3-entry face view of the edge table.
const (
	FaceEmpty uint32 = 0x00000000
	FaceSolid uint32 = 0x80808080
)

// SurfaceInfo describes one face's lightmap surface reference.
type SurfaceInfo struct {
	Lmid     [2]byte
	Verts    byte
	NumVerts byte
}

const (
	layerDup     byte = 1 << 7
	maxFaceVerts byte = 15
)

// totalVerts returns the vertex count encoded in NumVerts, doubled when the
// surface carries a duplicate blend layer.
func (s SurfaceInfo) totalVerts() byte {
	if s.NumVerts&layerDup != 0 {
		return (s.NumVerts & maxFaceVerts) * 2
	}
	return s.NumVerts & maxFaceVerts
}

// CubeExt is the optional auxiliary record of a cube: per-face surface
// references plus the raw vertex payload, preserved verbatim so a decoded
// tree re-encodes byte-identically.
type CubeExt struct {
	SurfMask   byte
	TotalVerts byte
	Surfaces   [6]SurfaceInfo
	VertData   [6][]byte
}

// Cube is a node of the 8-ary geometry tree. A cube either is a leaf
// (Children nil) or owns exactly 8 children enumerating the octants in
// canonical order: Z split first, then Y, then X.
type Cube struct {
	Children *[8]Cube
	Ext      *CubeExt
	// Edges holds 12 packed edge ranges, two 4-bit values per entry.
	// Face/SetFace expose the same bits as 3 per-axis face descriptors.
	Edges    [12]byte
	Texture  [6]uint16
	Material uint16
	Merged   byte

	// vis is a single mask with two lifecycle-dependent meanings, exposed
	// through the Escaped and Visible views. It is never serialized.
	vis byte
}

// EmptyCube returns a leaf occupying no space (all faces empty).
func EmptyCube() *Cube {
	return &Cube{}
}

// SolidCube returns a fully solid leaf.
func SolidCube() *Cube {
	c := &Cube{}
	c.SetFaces(FaceSolid)
	return c
}

// IsLeaf reports whether the cube has no children.
func (c *Cube) IsLeaf() bool {
	return c.Children == nil
}

// Face returns face descriptor i (0..2), grouping 4 edges of one axis.
func (c *Cube) Face(i int) uint32 {
	return binary.LittleEndian.Uint32(c.Edges[i*4:])
}

// SetFace stores face descriptor i (0..2) back into the edge table.
func (c *Cube) SetFace(i int, f uint32) {
	binary.LittleEndian.PutUint32(c.Edges[i*4:], f)
}

// SetFaces assigns the same descriptor to all three faces.
func (c *Cube) SetFaces(f uint32) {
	for i := 0; i < 3; i++ {
		c.SetFace(i, f)
	}
}

// IsEmpty reports whether the cube occupies no space at all.
func (c *Cube) IsEmpty() bool {
	return c.Face(0) == FaceEmpty
}

// IsEntirelySolid reports whether the cube fills its entire volume.
func (c *Cube) IsEntirelySolid() bool {
	return c.Face(0) == FaceSolid && c.Face(1) == FaceSolid && c.Face(2) == FaceSolid
}

// Escaped reads the child-merge escape mask. Valid only while merge
// computation is in progress, before the tree is finalized.
func (c *Cube) Escaped() byte { return c.vis }

// SetEscaped stores the child-merge escape mask.
func (c *Cube) SetEscaped(m byte) { c.vis = m }

// Visible reads the per-face visibility mask. Valid only after merge
// finalization; it reuses the escape mask storage.
func (c *Cube) Visible() byte { return c.vis }

// SetVisible stores the per-face visibility mask.
func (c *Cube) SetVisible(m byte) { c.vis = m }

// Subdivide materializes 8 children, each seeded from the leaf's prior
// state. It is a no-op on a cube that already has children.
func (c *Cube) Subdivide() {
	if c.Children != nil {
		return
	}
	children := new([8]Cube)
	for i := range children {
		children[i].Edges = c.Edges
		children[i].Texture = c.Texture
		children[i].Material = c.Material
	}
	c.Children = children
}

// Walk visits the cube and every descendant in child order, passing each
// node's depth below the receiver. The traversal uses an explicit stack so
// it is safe for trees at the world-size depth bound.
func (c *Cube) Walk(visit func(c *Cube, depth int)) {
	type frame struct {
		c     *Cube
		depth int
	}
	stack := []frame{{c, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(f.c, f.depth)
		if f.c.Children != nil {
			for i := 7; i >= 0; i-- {
				stack = append(stack, frame{&f.c.Children[i], f.depth + 1})
			}
		}
	}
}

// Validate checks the tree against the world size and slot table bounds:
// no node may sit deeper than the world size allows, and every texture
// index must have a variant slot. numSlots < 0 skips the slot check.
func (c *Cube) Validate(size int32, numSlots int) error {
	if !isPow2(size) {
		return fmt.Errorf("%w: world size %d is not a power of two", ErrStructuralInvariant, size)
	}
	maxDepth := bits.Len32(uint32(size)) - 1
	var firstErr error
	c.Walk(func(n *Cube, depth int) {
		if firstErr != nil {
			return
		}
		if depth > maxDepth {
			firstErr = fmt.Errorf("%w: node at depth %d exceeds world size %d", ErrStructuralInvariant, depth, size)
			return
		}
		if numSlots < 0 {
			return
		}
		for face, tex := range n.Texture {
			if int(tex) >= numSlots {
				firstErr = fmt.Errorf("%w: face %d references slot %d of %d", ErrSlotIndexOutOfRange, face, tex, numSlots)
				return
			}
		}
	})
	return firstErr
}

// CountNodes returns the total number of nodes in the tree, leaves included.
func (c *Cube) CountNodes() int {
	n := 0
	c.Walk(func(*Cube, int) { n++ })
	return n
}

func isPow2(n int32) bool {
	return n > 0 && n&(n-1) == 0
}
