package octa

import "fmt"

// Change bits of a variant slot's Changed mask; each selects one field
// group on the wire.
const (
	VSlotShParam int32 = 1 << iota
	VSlotScale
	VSlotRotation
	VSlotOffset
	VSlotScroll
	VSlotLayer
	VSlotAlpha
	VSlotColor
)

// ShaderParam is a named shader parameter override on a variant slot.
type ShaderParam struct {
	Name string
	Val  [4]float32
}

// VSlot is one variant slot: a texture/material configuration referenced
// from cube faces by index. Only the field groups flagged in Changed are
// meaningful (and serialized); everything else keeps its zero value.
type VSlot struct {
	Index   int32
	Changed int32
	// Prev is the index of the slot this one was derived from, as recorded
	// on the wire.
	Prev int32

	Params     []ShaderParam
	Scale      float32
	Rotation   int32
	Offset     [2]int32
	Scroll     [2]float32
	Layer      int32
	AlphaFront float32
	AlphaBack  float32
	ColorScale [3]float32
}

// VSlotTable is the ordered variant slot registry. Slots are keyed by
// position; cube faces store only indices, so index stability across a
// load/save cycle is part of the format contract.
type VSlotTable struct {
	slots []*VSlot
}

// NewVSlotTable builds a table over the given slots, renumbering their
// indices to their positions.
func NewVSlotTable(slots []*VSlot) *VSlotTable {
	for i, s := range slots {
		s.Index = int32(i)
	}
	return &VSlotTable{slots: slots}
}

// Count returns the number of slots.
func (t *VSlotTable) Count() int {
	return len(t.slots)
}

// Get returns slot i. An index with no slot is a fatal lookup error: a
// face referencing it has no defined material meaning.
func (t *VSlotTable) Get(i int) (*VSlot, error) {
	if i < 0 || i >= len(t.slots) {
		return nil, fmt.Errorf("%w: %d of %d", ErrSlotIndexOutOfRange, i, len(t.slots))
	}
	return t.slots[i], nil
}

// decodeVSlots reads numVSlots slots. The stream is delta encoded: a
// negative header is a run of that many untouched slots, a non-negative
// one is a Changed mask followed by the derived-from index and the
// flagged field groups.
func decodeVSlots(r *reader, numVSlots int32) (*VSlotTable, error) {
	slots := make([]*VSlot, 0, numVSlots)
	add := func() *VSlot {
		s := &VSlot{Index: int32(len(slots))}
		slots = append(slots, s)
		return s
	}

	left := numVSlots
	for left > 0 {
		changed, err := r.getInt32()
		if err != nil {
			return nil, err
		}
		if changed < 0 {
			// Negate in 64 bits: -MinInt32 overflows back to itself.
			run := -int64(changed)
			if run > int64(left) {
				return nil, fmt.Errorf("%w: slot run of %d exceeds remaining %d", ErrStructuralInvariant, run, left)
			}
			for i := int64(0); i < run; i++ {
				add()
			}
			left -= int32(run)
			continue
		}
		prev, err := r.getInt32()
		if err != nil {
			return nil, err
		}
		s := add()
		s.Prev = prev
		if err := decodeVSlot(r, s, changed); err != nil {
			return nil, err
		}
		left--
	}
	return NewVSlotTable(slots), nil
}

func decodeVSlot(r *reader, s *VSlot, changed int32) error {
	s.Changed = changed

	if changed&VSlotShParam != 0 {
		numParams, err := r.getUint16()
		if err != nil {
			return err
		}
		for i := 0; i < int(numParams); i++ {
			var p ShaderParam
			nameLen, err := r.getUint16()
			if err != nil {
				return err
			}
			name, err := r.getBytes(int(nameLen))
			if err != nil {
				return err
			}
			p.Name = string(name)
			for k := 0; k < 4; k++ {
				if p.Val[k], err = r.getFloat32(); err != nil {
					return err
				}
			}
			s.Params = append(s.Params, p)
		}
	}

	var err error
	if changed&VSlotScale != 0 {
		if s.Scale, err = r.getFloat32(); err != nil {
			return err
		}
	}
	if changed&VSlotRotation != 0 {
		if s.Rotation, err = r.getInt32(); err != nil {
			return err
		}
	}
	if changed&VSlotOffset != 0 {
		for k := 0; k < 2; k++ {
			if s.Offset[k], err = r.getInt32(); err != nil {
				return err
			}
		}
	}
	if changed&VSlotScroll != 0 {
		for k := 0; k < 2; k++ {
			if s.Scroll[k], err = r.getFloat32(); err != nil {
				return err
			}
		}
	}
	if changed&VSlotLayer != 0 {
		if s.Layer, err = r.getInt32(); err != nil {
			return err
		}
	}
	if changed&VSlotAlpha != 0 {
		if s.AlphaFront, err = r.getFloat32(); err != nil {
			return err
		}
		if s.AlphaBack, err = r.getFloat32(); err != nil {
			return err
		}
	}
	if changed&VSlotColor != 0 {
		for k := 0; k < 3; k++ {
			if s.ColorScale[k], err = r.getFloat32(); err != nil {
				return err
			}
		}
	}
	return nil
}

// encodeVSlots writes the table in the delta format decodeVSlots reads.
func encodeVSlots(w *writer, t *VSlotTable) {
	lastRoot := 0
	for i, s := range t.slots {
		if s.Changed == 0 {
			continue
		}
		if lastRoot < i {
			w.putInt32(int32(-(i - lastRoot)))
		}
		encodeVSlot(w, s)
		lastRoot = i + 1
	}
	if lastRoot < len(t.slots) {
		w.putInt32(int32(-(len(t.slots) - lastRoot)))
	}
}

func encodeVSlot(w *writer, s *VSlot) {
	w.putInt32(s.Changed)
	w.putInt32(s.Prev)

	if s.Changed&VSlotShParam != 0 {
		w.putUint16(uint16(len(s.Params)))
		for _, p := range s.Params {
			w.putUint16(uint16(len(p.Name)))
			w.putBytes([]byte(p.Name))
			for k := 0; k < 4; k++ {
				w.putFloat32(p.Val[k])
			}
		}
	}
	if s.Changed&VSlotScale != 0 {
		w.putFloat32(s.Scale)
	}
	if s.Changed&VSlotRotation != 0 {
		w.putInt32(s.Rotation)
	}
	if s.Changed&VSlotOffset != 0 {
		w.putInt32(s.Offset[0])
		w.putInt32(s.Offset[1])
	}
	if s.Changed&VSlotScroll != 0 {
		w.putFloat32(s.Scroll[0])
		w.putFloat32(s.Scroll[1])
	}
	if s.Changed&VSlotLayer != 0 {
		w.putInt32(s.Layer)
	}
	if s.Changed&VSlotAlpha != 0 {
		w.putFloat32(s.AlphaFront)
		w.putFloat32(s.AlphaBack)
	}
	if s.Changed&VSlotColor != 0 {
		for k := 0; k < 3; k++ {
			w.putFloat32(s.ColorScale[k])
		}
	}
}
