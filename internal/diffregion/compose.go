package diffregion

import (
	"bytes"
	"errors"

	"github.com/hairlessvillager/region-diff/internal/chunkdelta"
	"golang.org/x/xerrors"
)

// ErrIncompatibleSquash is returned, wrapped with the offending slot index,
// when two diffs imply inconsistent content for the shared middle state at
// some slot — spec §4.5's composition table cells marked "error".
var ErrIncompatibleSquash = errors.New("diffregion: incompatible squash")

// Squash composes d1 (A->B) and d2 (B->C) into a diff equivalent to A->C,
// per spec §4.5's composition table. d1 and d2 must share a slot count.
func Squash(d1, d2 *Diff) (*Diff, error) {
	if d1.SlotCount != d2.SlotCount {
		return nil, xerrors.Errorf("diffregion: Squash: slot counts differ (%d vs %d): %w", d1.SlotCount, d2.SlotCount, ErrIncompatibleSquash)
	}

	entries := make([]Entry, d1.SlotCount)
	for i := range entries {
		e, err := ComposeEntry(d1.Entries[i], d2.Entries[i])
		if err != nil {
			return nil, xerrors.Errorf("diffregion: Squash: slot %d: %w", i, err)
		}
		entries[i] = e
	}

	return &Diff{Version: Version, SlotCount: d1.SlotCount, Entries: entries}, nil
}

// ComposeEntry composes a single slot's pair of entries per spec §4.5's
// table. Exported so the parallel executor can fan this out across slots
// itself, rather than every caller going through the sequential Squash.
func ComposeEntry(e1, e2 Entry) (Entry, error) {
	switch e1.Kind {
	case Unchanged:
		return composeFromUnchanged(e2), nil
	case Added:
		return composeFromAdded(e1, e2)
	case Removed:
		return composeFromRemoved(e1, e2)
	case Modified:
		return composeFromModified(e1, e2)
	default:
		return Entry{}, xerrors.Errorf("d1 entry has unknown kind %d", e1.Kind)
	}
}

// composeFromUnchanged handles the table's top row: d1 left the slot alone,
// so the composed entry is whatever d2 says, verbatim.
func composeFromUnchanged(e2 Entry) Entry {
	return e2
}

func composeFromAdded(e1, e2 Entry) (Entry, error) {
	switch e2.Kind {
	case Unchanged:
		return e1, nil
	case Added:
		return Entry{}, xerrors.Errorf("d1 adds a slot d2 also adds: %w", ErrIncompatibleSquash)
	case Removed:
		if e1.Meta.CompressionTag != e2.Meta.CompressionTag || !bytes.Equal(e1.Payload, e2.Payload) {
			return Entry{}, xerrors.Errorf("d1 adds payload that d2's removal does not match: %w", ErrIncompatibleSquash)
		}
		return Entry{Kind: Unchanged}, nil
	case Modified:
		if e1.Meta.CompressionTag != e2.OldMeta.CompressionTag {
			return Entry{}, xerrors.Errorf("d1's added tag does not match d2's expected old tag: %w", ErrIncompatibleSquash)
		}
		newPayload, err := chunkdelta.Apply(e1.Payload, e2.Delta)
		if err != nil {
			return Entry{}, xerrors.Errorf("d1's added payload does not match d2's expected old payload: %w: %v", ErrIncompatibleSquash, err)
		}
		return Entry{Kind: Added, Meta: e2.NewMeta, Payload: newPayload}, nil
	default:
		return Entry{}, xerrors.Errorf("d2 entry has unknown kind %d", e2.Kind)
	}
}

func composeFromRemoved(e1, e2 Entry) (Entry, error) {
	switch e2.Kind {
	case Unchanged:
		return e1, nil
	case Added:
		return Entry{Kind: Modified, OldMeta: e1.Meta, NewMeta: e2.Meta, Delta: chunkdelta.Diff(e1.Payload, e2.Payload)}, nil
	case Removed:
		return Entry{}, xerrors.Errorf("d1 removes a slot d2 also removes: %w", ErrIncompatibleSquash)
	case Modified:
		return Entry{}, xerrors.Errorf("d1 removes a slot d2 expects present: %w", ErrIncompatibleSquash)
	default:
		return Entry{}, xerrors.Errorf("d2 entry has unknown kind %d", e2.Kind)
	}
}

func composeFromModified(e1, e2 Entry) (Entry, error) {
	switch e2.Kind {
	case Unchanged:
		return e1, nil
	case Added:
		return Entry{}, xerrors.Errorf("d1 expects a present slot d2 adds as new: %w", ErrIncompatibleSquash)
	case Removed:
		// e2's removed payload is, by definition, the full content d2 found
		// in the slot before removing it — exactly the "new" side e1.Delta
		// describes. Revert walks that buffer to recover the "old" side,
		// validating e1.Delta's recorded New slices against it along the
		// way (an IncompatibleSquash if they don't match).
		if e1.NewMeta.CompressionTag != e2.Meta.CompressionTag {
			return Entry{}, xerrors.Errorf("d1's resulting tag does not match d2's expected removal tag: %w", ErrIncompatibleSquash)
		}
		oldPayload, err := chunkdelta.Revert(e2.Payload, e1.Delta)
		if err != nil {
			return Entry{}, xerrors.Errorf("d1's resulting payload does not match d2's expected removal: %w: %v", ErrIncompatibleSquash, err)
		}
		return Entry{Kind: Removed, Meta: e1.OldMeta, Payload: oldPayload}, nil
	case Modified:
		squashed, err := chunkdelta.Squash(e1.Delta, e2.Delta)
		if err != nil {
			return Entry{}, xerrors.Errorf("%v: %w", err, ErrIncompatibleSquash)
		}
		return Entry{Kind: Modified, OldMeta: e1.OldMeta, NewMeta: e2.NewMeta, Delta: squashed}, nil
	default:
		return Entry{}, xerrors.Errorf("d2 entry has unknown kind %d", e2.Kind)
	}
}
