package octa

import (
	"errors"
	"testing"
)

func TestCube_FaceViewsEdgeTable(t *testing.T) {
	c := &Cube{}
	c.SetFace(1, 0x44332211)

	// The face view is a reinterpretation of the edge bytes, never a
	// separate store.
	want := [4]byte{0x11, 0x22, 0x33, 0x44}
	for k, b := range want {
		if c.Edges[4+k] != b {
			t.Errorf("edge %d: expected 0x%02x, got 0x%02x", 4+k, b, c.Edges[4+k])
		}
	}
	if c.Face(1) != 0x44332211 {
		t.Errorf("expected face 0x44332211, got 0x%08x", c.Face(1))
	}

	c.Edges[0] = 0x80
	if c.Face(0) != 0x00000080 {
		t.Errorf("edge write not visible through face view: 0x%08x", c.Face(0))
	}
}

func TestCube_SolidEmptyPredicates(t *testing.T) {
	solid := SolidCube()
	if !solid.IsEntirelySolid() {
		t.Error("SolidCube should be entirely solid")
	}
	if solid.IsEmpty() {
		t.Error("SolidCube should not be empty")
	}

	empty := EmptyCube()
	if !empty.IsEmpty() {
		t.Error("EmptyCube should be empty")
	}
	if empty.IsEntirelySolid() {
		t.Error("EmptyCube should not be solid")
	}

	if !solid.IsLeaf() || !empty.IsLeaf() {
		t.Error("fresh cubes should be leaves")
	}
}

func TestCube_SubdivideSeedsChildren(t *testing.T) {
	c := SolidCube()
	c.Texture = [6]uint16{1, 2, 3, 4, 5, 6}
	c.Material = 7

	c.Subdivide()
	if c.Children == nil {
		t.Fatal("Subdivide did not materialize children")
	}
	for i := range c.Children {
		child := &c.Children[i]
		if !child.IsEntirelySolid() {
			t.Errorf("child %d did not inherit edges", i)
		}
		if child.Texture != c.Texture {
			t.Errorf("child %d did not inherit textures", i)
		}
		if child.Material != 7 {
			t.Errorf("child %d did not inherit material", i)
		}
		if !child.IsLeaf() {
			t.Errorf("child %d should be a leaf", i)
		}
	}

	// Subdivide on an internal node is a no-op.
	old := c.Children
	c.Subdivide()
	if c.Children != old {
		t.Error("Subdivide replaced existing children")
	}
}

func TestCube_EscapedVisibleShareStorage(t *testing.T) {
	c := &Cube{}
	c.SetEscaped(0x15)
	if c.Visible() != 0x15 {
		t.Error("escaped and visible views must share storage")
	}
	c.SetVisible(0x3F)
	if c.Escaped() != 0x3F {
		t.Error("visible write not seen through escaped view")
	}
}

func TestCube_WalkOrderAndDepth(t *testing.T) {
	root := &Cube{}
	root.Subdivide()
	root.Children[2].Subdivide()

	var order []*Cube
	var depths []int
	root.Walk(func(c *Cube, depth int) {
		order = append(order, c)
		depths = append(depths, depth)
	})

	if len(order) != 17 {
		t.Fatalf("expected 17 nodes, got %d", len(order))
	}
	if order[0] != root || depths[0] != 0 {
		t.Error("walk must start at the root")
	}
	if order[1] != &root.Children[0] || order[2] != &root.Children[1] {
		t.Error("children must be visited in canonical order")
	}
	// Child 2's subtree comes right after child 2 itself.
	if order[3] != &root.Children[2] || order[4] != &root.Children[2].Children[0] {
		t.Error("traversal must be depth first")
	}
	if depths[4] != 2 {
		t.Errorf("grandchild depth: expected 2, got %d", depths[4])
	}
}

func TestCube_CountNodes(t *testing.T) {
	root := &Cube{}
	if root.CountNodes() != 1 {
		t.Errorf("expected 1 node, got %d", root.CountNodes())
	}
	root.Subdivide()
	if root.CountNodes() != 9 {
		t.Errorf("expected 9 nodes, got %d", root.CountNodes())
	}
}

func TestCube_ValidateDepthBound(t *testing.T) {
	root := &Cube{}
	root.Subdivide()
	if err := root.Validate(2, -1); err != nil {
		t.Errorf("depth-1 tree valid in size-2 world: %v", err)
	}

	root.Children[0].Subdivide()
	err := root.Validate(2, -1)
	if !errors.Is(err, ErrStructuralInvariant) {
		t.Errorf("expected ErrStructuralInvariant for over-deep tree, got %v", err)
	}
	if err := root.Validate(4, -1); err != nil {
		t.Errorf("same tree valid in size-4 world: %v", err)
	}
}

func TestCube_ValidateSlotBounds(t *testing.T) {
	root := &Cube{}
	root.Texture[3] = 2

	if err := root.Validate(2, 3); err != nil {
		t.Errorf("slot 2 of 3 should be valid: %v", err)
	}
	err := root.Validate(2, 2)
	if !errors.Is(err, ErrSlotIndexOutOfRange) {
		t.Errorf("expected ErrSlotIndexOutOfRange, got %v", err)
	}
}

func TestCube_ValidateBadWorldSize(t *testing.T) {
	root := &Cube{}
	if err := root.Validate(3, -1); !errors.Is(err, ErrStructuralInvariant) {
		t.Errorf("expected ErrStructuralInvariant for size 3, got %v", err)
	}
}
