package octa

import "errors"

// OCTA format errors.
var (
	// ErrInvalidMagic means the buffer does not start with the "OCTA" tag.
	ErrInvalidMagic = errors.New("invalid OCTA magic")

	// ErrUnsupportedVersion means the map format version is not recognized.
	ErrUnsupportedVersion = errors.New("unsupported map format version")

	// ErrTruncated means the buffer ran out before the declared data was
	// fully consumed. No partial tree is ever returned alongside it.
	ErrTruncated = errors.New("truncated map data")

	// ErrAddressing means a node path or edit target does not match the
	// actual tree shape (descends past a leaf, or out-of-range coordinates).
	ErrAddressing = errors.New("address does not match tree shape")

	// ErrSlotIndexOutOfRange means a texture index has no variant slot.
	ErrSlotIndexOutOfRange = errors.New("variant slot index out of range")

	// ErrStructuralInvariant means the tree or buffer violates an octree
	// invariant, such as an unknown node tag or a non-power-of-two world size.
	ErrStructuralInvariant = errors.New("octree structural invariant violated")

	// ErrUnknownEditOp means an edit message contained an unknown opcode.
	ErrUnknownEditOp = errors.New("unknown edit opcode")
)
