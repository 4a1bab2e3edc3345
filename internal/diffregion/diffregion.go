// Package diffregion reads and writes the per-region diff container format:
// a small header followed by one entry per chunk slot describing how that
// slot changed between an old and a new anvil container.
package diffregion

import (
	"errors"
	"fmt"

	"github.com/hairlessvillager/region-diff/internal/anvil"
	"github.com/hairlessvillager/region-diff/internal/chunkdelta"
	"golang.org/x/xerrors"
)

// Magic identifies a diff file. Version is the only format version this
// package understands; a diff carrying a higher version is rejected.
var Magic = [4]byte{'R', 'D', 'F', '1'}

const Version uint16 = 1

// Sentinel errors, wrapped with context via xerrors.Errorf by every
// function in this package that returns them.
var (
	ErrCorruptDiff        = errors.New("diffregion: corrupt diff")
	ErrUnsupportedVersion = errors.New("diffregion: unsupported version")
)

// Kind discriminates the four per-slot entry variants of spec §3.
type Kind uint8

const (
	Unchanged Kind = iota
	Added
	Removed
	Modified
)

func (k Kind) String() string {
	switch k {
	case Unchanged:
		return "Unchanged"
	case Added:
		return "Added"
	case Removed:
		return "Removed"
	case Modified:
		return "Modified"
	default:
		return "Kind(invalid)"
	}
}

// Meta is the (timestamp, compression tag) pair carried by a present slot.
type Meta struct {
	Timestamp      uint32
	CompressionTag anvil.CompressionTag
}

// Entry is one slot's diff entry. Only the fields relevant to Kind are
// populated; see spec §3 for the variant shapes this mirrors:
//
//	Unchanged                     — no fields used.
//	Added(Meta, Payload)          — Meta, Payload hold the new side.
//	Removed(Meta, Payload)        — Meta, Payload hold the old side.
//	Modified(OldMeta, NewMeta, Delta) — payload_delta over decompressed bytes.
type Entry struct {
	Kind Kind

	Meta    Meta
	Payload []byte

	OldMeta Meta
	NewMeta Meta
	Delta   chunkdelta.Delta
}

// Diff is a fully parsed region diff: a header plus one entry per slot, in
// slot order.
type Diff struct {
	Version   uint16
	SlotCount uint16
	Entries   []Entry
}

func corrupt(format string, args ...any) error {
	return xerrors.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrCorruptDiff)
}
