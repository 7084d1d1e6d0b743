package octa

import "fmt"

// Opaque blob framing constants. The payloads are never interpreted, only
// measured so the cursor can advance past them.
const (
	lmPackW = 512
	lmPackH = 512
	lmAlpha = 0x10
	lmType  = 0x0F
	lmBump1 = 0x02

	blendBranch byte = 0
	blendSolid  byte = 1
	blendImage  byte = 2
	blendImageW      = 64
)

// World aggregates one octree, one variant slot table and the scalar map
// metadata. Each World is exclusively owned by one caller context; nothing
// here locks, and independent loads share no state.
type World struct {
	Root   *Cube
	VSlots *VSlotTable

	Size         int32
	Version      int32
	NumLightmaps int32
	NumPVS       int32
	HasBlendMap  bool
}

// PartialLoad constructs a World from a buffer holding the auxiliary blobs
// (lightmaps, PVS, blend map), the variant slot stream and the octree, in
// that order. The counts describe blobs this core does not decode; it only
// advances past them so the slot table and tree are correctly positioned.
// Accurate counts are a precondition of correctness, not a hint: wrong
// counts silently misalign the rest of the decode.
func PartialLoad(data []byte, numVSlots, worldSize, version, numLightmaps, numPVS int32, blendMap bool) (*World, error) {
	if err := checkVersion(version); err != nil {
		return nil, err
	}
	if !isPow2(worldSize) || worldSize < 2 {
		return nil, fmt.Errorf("%w: world size %d", ErrStructuralInvariant, worldSize)
	}

	r := newReader(data)
	for i := int32(0); i < numLightmaps; i++ {
		if err := skipLightmap(r, version); err != nil {
			return nil, fmt.Errorf("lightmap %d: %w", i, err)
		}
	}
	if numPVS > 0 {
		if err := skipPVS(r); err != nil {
			return nil, fmt.Errorf("pvs data: %w", err)
		}
	}
	if blendMap {
		if err := skipBlendMap(r); err != nil {
			return nil, fmt.Errorf("blend map: %w", err)
		}
	}

	vslots, err := decodeVSlots(r, numVSlots)
	if err != nil {
		return nil, err
	}
	root := &Cube{}
	if err := decodeCube(r, root, worldSize, version); err != nil {
		return nil, err
	}

	return &World{
		Root:         root,
		VSlots:       vslots,
		Size:         worldSize,
		Version:      version,
		NumLightmaps: numLightmaps,
		NumPVS:       numPVS,
		HasBlendMap:  blendMap,
	}, nil
}

// Apply applies an edit message to the world's tree, additionally checking
// texture edits against the slot table.
func (w *World) Apply(msg []byte) error {
	return applyEdits(w.Root, w.Size, msg, w.VSlots)
}

// Validate checks the tree's structural invariants and slot references.
func (w *World) Validate() error {
	return w.Root.Validate(w.Size, w.VSlots.Count())
}

// skipLightmap advances past one lightmap: a type byte, the unlit texel
// coordinates when flagged (v20+), and a fixed-size pixel payload whose
// depth depends on the alpha flag.
func skipLightmap(r *reader, version int32) error {
	typ, err := r.getByte()
	if err != nil {
		return err
	}
	if version >= 20 && typ&0x80 != 0 {
		if err := r.skip(4); err != nil {
			return err
		}
	}
	bpp := 3
	if typ&lmAlpha != 0 && typ&lmType != lmBump1 {
		bpp = 4
	}
	return r.skip(lmPackW * lmPackH * bpp)
}

// skipPVS advances past the PVS section: a total byte length, then payload.
func skipPVS(r *reader) error {
	totalLen, err := r.getUint32()
	if err != nil {
		return err
	}
	return r.skip(int(totalLen))
}

// skipBlendMap advances past the blend map quadtree without recursing.
func skipBlendMap(r *reader) error {
	pending := 1
	for pending > 0 {
		typ, err := r.getByte()
		if err != nil {
			return err
		}
		pending--
		switch typ {
		case blendBranch:
			pending += 4
		case blendSolid:
			if err := r.skip(1); err != nil {
				return err
			}
		case blendImage:
			if err := r.skip(blendImageW * blendImageW); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: blend map node type %d", ErrStructuralInvariant, typ)
		}
	}
	return nil
}
