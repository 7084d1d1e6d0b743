package octa

import (
	"bytes"
	"fmt"
)

// Header is the decoded OCTA file header: the fixed fields plus the footer
// values whose layout shifted across versions.
type Header struct {
	Version    int32
	HeaderSize int32
	WorldSize  int32
	NumEnts    int32
	NumPVs     int32
	LightMaps  int32
	BlendMap   int32
	NumVars    int32
	NumVSlots  int32
	GameType   string
}

// File is a whole parsed map file. It keeps the raw buffer and the octree's
// byte range so an edited tree can be spliced back without re-encoding the
// sections this core treats as opaque.
type File struct {
	Header Header
	World  *World

	raw       []byte
	treeStart int
	treeEnd   int
}

// ParseFile decodes a raw (already uncompressed) OCTA buffer: header,
// version-dependent footer, map variables, game type, entity records and
// the texture MRU are consumed as a preamble, then the variant slots and
// the octree are decoded. Trailing lightmap/PVS/blend-map blobs are left
// untouched at the end of the buffer.
func ParseFile(data []byte) (*File, error) {
	r := newReader(data)
	hdr, err := decodeHeader(r)
	if err != nil {
		return nil, err
	}
	if !isPow2(hdr.WorldSize) || hdr.WorldSize < 2 {
		return nil, fmt.Errorf("%w: world size %d", ErrStructuralInvariant, hdr.WorldSize)
	}

	vslots, err := decodeVSlots(r, hdr.NumVSlots)
	if err != nil {
		return nil, err
	}

	treeStart := r.pos
	root := &Cube{}
	if err := decodeCube(r, root, hdr.WorldSize, hdr.Version); err != nil {
		return nil, err
	}

	return &File{
		Header: *hdr,
		World: &World{
			Root:         root,
			VSlots:       vslots,
			Size:         hdr.WorldSize,
			Version:      hdr.Version,
			NumLightmaps: hdr.LightMaps,
			NumPVS:       hdr.NumPVs,
			HasBlendMap:  hdr.BlendMap != 0,
		},
		raw:       data,
		treeStart: treeStart,
		treeEnd:   r.pos,
	}, nil
}

// Bytes re-emits the file with the current tree spliced over the original
// octree section. Only current-version files can be patched in place, since
// the encoder writes the current layout.
func (f *File) Bytes() ([]byte, error) {
	if f.Header.Version != MapVersion {
		return nil, fmt.Errorf("%w: in-place patch requires version %d, file is %d", ErrUnsupportedVersion, MapVersion, f.Header.Version)
	}
	tree := EncodeCube(f.World.Root, f.World.Size)
	out := make([]byte, 0, f.treeStart+len(tree)+len(f.raw)-f.treeEnd)
	out = append(out, f.raw[:f.treeStart]...)
	out = append(out, tree...)
	out = append(out, f.raw[f.treeEnd:]...)
	return out, nil
}

func decodeHeader(r *reader) (*Header, error) {
	magic, err := r.getBytes(4)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, []byte("OCTA")) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMagic, magic)
	}

	hdr := &Header{GameType: "fps"}
	for _, p := range []*int32{&hdr.Version, &hdr.HeaderSize, &hdr.WorldSize, &hdr.NumEnts, &hdr.NumPVs, &hdr.LightMaps} {
		if *p, err = r.getInt32(); err != nil {
			return nil, err
		}
	}
	if err := checkVersion(hdr.Version); err != nil {
		return nil, err
	}

	switch {
	case hdr.Version <= 28:
		// Old monolithic header: light fields, then the footer whose only
		// field still meaningful here is the blend map flag at offset 16.
		if err := r.skip(28); err != nil {
			return nil, err
		}
		footer, err := r.getBytes(168)
		if err != nil {
			return nil, err
		}
		hdr.BlendMap = int32(footer[16])
	case hdr.Version == 29:
		// v29 footer lacks the slot count field.
		for _, p := range []*int32{&hdr.BlendMap, &hdr.NumVars} {
			if *p, err = r.getInt32(); err != nil {
				return nil, err
			}
		}
	default:
		for _, p := range []*int32{&hdr.BlendMap, &hdr.NumVars, &hdr.NumVSlots} {
			if *p, err = r.getInt32(); err != nil {
				return nil, err
			}
		}
	}

	if err := skipVariables(r, hdr.NumVars); err != nil {
		return nil, err
	}

	if hdr.Version >= 16 {
		if hdr.GameType, err = getByteString(r); err != nil {
			return nil, err
		}
	}

	// Extra game-specific payload.
	var eif uint16
	if hdr.Version >= 16 {
		if eif, err = r.getUint16(); err != nil {
			return nil, err
		}
		extraBytes, err := r.getUint16()
		if err != nil {
			return nil, err
		}
		if err := r.skip(int(extraBytes)); err != nil {
			return nil, err
		}
	}

	// Texture MRU list.
	if hdr.Version < 14 {
		if err := r.skip(256); err != nil {
			return nil, err
		}
	} else {
		numMRU, err := r.getUint16()
		if err != nil {
			return nil, err
		}
		if err := r.skip(int(numMRU) * 2); err != nil {
			return nil, err
		}
	}

	// Entity records are gameplay state, not geometry; advance past them.
	for i := int32(0); i < hdr.NumEnts; i++ {
		if err := r.skip(24); err != nil {
			return nil, err
		}
		if hdr.GameType != "fps" && eif > 0 {
			if err := r.skip(int(eif)); err != nil {
				return nil, err
			}
		}
	}

	return hdr, nil
}

func skipVariables(r *reader, numVars int32) error {
	for i := int32(0); i < numVars; i++ {
		typ, err := r.getByte()
		if err != nil {
			return err
		}
		if _, err := getString(r); err != nil {
			return err
		}
		switch typ {
		case 0: // int
			if err := r.skip(4); err != nil {
				return err
			}
		case 1: // float
			if err := r.skip(4); err != nil {
				return err
			}
		case 2: // string
			if _, err := getString(r); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: map variable type %d", ErrStructuralInvariant, typ)
		}
	}
	return nil
}

// getString reads a uint16-length-prefixed string.
func getString(r *reader) (string, error) {
	n, err := r.getUint16()
	if err != nil {
		return "", err
	}
	b, err := r.getBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// getByteString reads a byte-length-prefixed, NUL-terminated string.
func getByteString(r *reader) (string, error) {
	n, err := r.getByte()
	if err != nil {
		return "", err
	}
	b, err := r.getBytes(int(n) + 1)
	if err != nil {
		return "", err
	}
	return string(b[:n]), nil
}
