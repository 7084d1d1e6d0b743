package octa

import "fmt"

// Locate descends from root through a sequence of child indices (0..7)
// and returns the addressed node. Reaching a leaf before the path is
// consumed means the caller's view of the tree shape is stale; that is
// surfaced as ErrAddressing, never treated as success.
func Locate(root *Cube, path []int) (*Cube, error) {
	c := root
	for step, i := range path {
		if i < 0 || i > 7 {
			return nil, fmt.Errorf("%w: child index %d at step %d", ErrAddressing, i, step)
		}
		if c.Children == nil {
			return nil, fmt.Errorf("%w: leaf reached at step %d with %d steps remaining", ErrAddressing, step, len(path)-step)
		}
		c = &c.Children[i]
	}
	return c, nil
}

// LocateAt returns the node of edge length gridSize containing the point
// (x, y, z) in a world of edge length worldSize. At each level the octant
// index is built from the Z bit first, then Y, then X, matching the
// canonical child order. The target level must already be materialized.
func LocateAt(root *Cube, worldSize, x, y, z, gridSize int32) (*Cube, error) {
	if !isPow2(worldSize) {
		return nil, fmt.Errorf("%w: world size %d is not a power of two", ErrStructuralInvariant, worldSize)
	}
	if !isPow2(gridSize) || gridSize > worldSize {
		return nil, fmt.Errorf("%w: grid size %d invalid for world size %d", ErrAddressing, gridSize, worldSize)
	}
	if x < 0 || y < 0 || z < 0 || x >= worldSize || y >= worldSize || z >= worldSize {
		return nil, fmt.Errorf("%w: point (%d, %d, %d) outside world of size %d", ErrAddressing, x, y, z, worldSize)
	}

	c := root
	size := worldSize
	for size > gridSize {
		if c.Children == nil {
			return nil, fmt.Errorf("%w: leaf of size %d reached before grid size %d", ErrAddressing, size, gridSize)
		}
		size >>= 1
		i := 0
		if z&size != 0 {
			i |= 4
		}
		if y&size != 0 {
			i |= 2
		}
		if x&size != 0 {
			i |= 1
		}
		c = &c.Children[i]
	}
	return c, nil
}
