package octa

import (
	"errors"
	"testing"
)

func TestPartialLoad_MinimalWorld(t *testing.T) {
	// No blobs, one untouched slot, a single solid leaf for the whole
	// world: the smallest complete stream.
	w := &writer{}
	w.putInt32(-1)          // slot run of one
	w.putByte(octsavSolid)  // root leaf
	for i := 0; i < 6; i++ {
		w.putUint16(0)
	}

	world, err := PartialLoad(w.buf, 1, 2, MapVersion, 0, 0, false)
	if err != nil {
		t.Fatalf("PartialLoad failed: %v", err)
	}
	if !world.Root.IsEntirelySolid() {
		t.Error("expected a solid root leaf")
	}
	if world.VSlots.Count() != 1 {
		t.Errorf("expected 1 slot, got %d", world.VSlots.Count())
	}
	if world.Size != 2 || world.Version != MapVersion {
		t.Errorf("unexpected metadata: size %d version %d", world.Size, world.Version)
	}
	if world.NumLightmaps != 0 || world.NumPVS != 0 || world.HasBlendMap {
		t.Error("blob counts must reflect the load parameters")
	}
	if err := world.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestPartialLoad_SkipsBlobs(t *testing.T) {
	w := &writer{}

	// Lightmap without alpha: type byte + unlit coords + 512*512*3.
	w.putByte(0x80)
	w.putBytes(make([]byte, 4))
	w.putBytes(make([]byte, lmPackW*lmPackH*3))
	// Lightmap with alpha: 4 bytes per texel.
	w.putByte(lmAlpha)
	w.putBytes(make([]byte, lmPackW*lmPackH*4))
	// PVS section: length prefix + payload.
	w.putUint32(10)
	w.putBytes(make([]byte, 10))
	// Blend map: a branch with one image child and three solid ones.
	w.putByte(blendBranch)
	w.putByte(blendImage)
	w.putBytes(make([]byte, blendImageW*blendImageW))
	for i := 0; i < 3; i++ {
		w.putByte(blendSolid)
		w.putByte(7)
	}

	w.putInt32(-2) // two untouched slots
	w.putByte(octsavEmpty)
	for i := 0; i < 6; i++ {
		w.putUint16(0)
	}

	world, err := PartialLoad(w.buf, 2, 4, MapVersion, 2, 3, true)
	if err != nil {
		t.Fatalf("PartialLoad failed: %v", err)
	}
	if !world.Root.IsEmpty() {
		t.Error("tree decode was misaligned by the blob skip")
	}
	if world.NumLightmaps != 2 || world.NumPVS != 3 || !world.HasBlendMap {
		t.Error("blob counts must reflect the load parameters")
	}
}

func TestPartialLoad_Errors(t *testing.T) {
	valid := func() *writer {
		w := &writer{}
		w.putInt32(-1)
		w.putByte(octsavEmpty)
		for i := 0; i < 6; i++ {
			w.putUint16(0)
		}
		return w
	}

	if _, err := PartialLoad(valid().buf, 1, 2, MapVersion+1, 0, 0, false); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("bad version: expected ErrUnsupportedVersion, got %v", err)
	}
	if _, err := PartialLoad(valid().buf, 1, 3, MapVersion, 0, 0, false); !errors.Is(err, ErrStructuralInvariant) {
		t.Errorf("bad world size: expected ErrStructuralInvariant, got %v", err)
	}
	// A declared lightmap with no bytes behind it.
	if _, err := PartialLoad(valid().buf, 1, 2, MapVersion, 1, 0, false); !errors.Is(err, ErrTruncated) {
		t.Errorf("missing lightmap: expected ErrTruncated, got %v", err)
	}
	// Blend map quadtree with an unknown node type.
	w := &writer{}
	w.putByte(3)
	w.putBytes(valid().buf)
	if _, err := PartialLoad(w.buf, 1, 2, MapVersion, 0, 0, true); !errors.Is(err, ErrStructuralInvariant) {
		t.Errorf("bad blend node: expected ErrStructuralInvariant, got %v", err)
	}
}

func TestWorld_Apply(t *testing.T) {
	world := &World{
		Root:   SolidCube(),
		VSlots: NewVSlotTable([]*VSlot{{}, {}, {}}),
		Size:   2,
	}

	ok := (&editMsg{}).record(OpSetTexture, 0, 0, 0, 2, 0, 2, 0).bytes()
	if err := world.Apply(ok); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if world.Root.Texture[0] != 2 {
		t.Errorf("expected texture 2, got %d", world.Root.Texture[0])
	}

	bad := (&editMsg{}).record(OpSetTexture, 0, 0, 0, 2, 0, 3, 0).bytes()
	if err := world.Apply(bad); !errors.Is(err, ErrSlotIndexOutOfRange) {
		t.Errorf("expected ErrSlotIndexOutOfRange, got %v", err)
	}
}
