package engine

import (
	"context"

	"github.com/hairlessvillager/region-diff/internal/anvil"
	"github.com/hairlessvillager/region-diff/internal/chunkdelta"
	"github.com/hairlessvillager/region-diff/internal/diffregion"
	"golang.org/x/xerrors"
)

// Revert reconstructs the old container from newPath and the diff at
// diffPath, writing it to outPath. Symmetric to Patch, per spec §4.5.
func (e *Engine) Revert(ctx context.Context, format Format, newPath, diffPath, outPath string) error {
	e.log().Infof("revert: reverting %s using %s", newPath, diffPath)

	newData, err := readFile(newPath)
	if err != nil {
		return err
	}
	newContainer, err := parseContainer(format, newData)
	if err != nil {
		return xerrors.Errorf("engine: parsing %s: %w", newPath, err)
	}
	d, err := e.readDiffFile(diffPath)
	if err != nil {
		return err
	}

	n := slotCount(format)
	if len(newContainer.Slots) != n || int(d.SlotCount) != n {
		return xerrors.Errorf("engine: revert: slot count mismatch")
	}

	results, err := e.pool().Run(ctx, n, func(_ context.Context, i int) (any, error) {
		slot, err := revertSlot(newContainer.Slots[i], d.Entries[i])
		if err != nil {
			return nil, err
		}
		return slot, nil
	})
	if err != nil {
		return xerrors.Errorf("engine: revert: %w", err)
	}

	oldContainer := &anvil.Container{Slots: make([]anvil.Slot, n)}
	for i, r := range results {
		oldContainer.Slots[i] = r.(anvil.Slot)
	}

	out, err := serializeContainer(format, oldContainer)
	if err != nil {
		return xerrors.Errorf("engine: serializing %s: %w", outPath, err)
	}
	if err := writeContainerAtomic(outPath, out); err != nil {
		return err
	}
	e.log().Infof("revert: wrote %s", outPath)
	return nil
}

// revertSlot recovers old from entry and new, the mirror of patchSlot.
func revertSlot(new anvil.Slot, entry diffregion.Entry) (anvil.Slot, error) {
	switch entry.Kind {
	case diffregion.Unchanged:
		return new, nil

	case diffregion.Added:
		if !new.Present {
			return anvil.Slot{}, xerrors.Errorf("added slot expected present, found absent: %w", ErrIncompatiblePatch)
		}
		return anvil.Slot{}, nil

	case diffregion.Removed:
		if new.Present {
			return anvil.Slot{}, xerrors.Errorf("removed slot expected absent, found present: %w", ErrIncompatiblePatch)
		}
		raw, err := compressPayload(entry.Meta.CompressionTag, entry.Payload)
		if err != nil {
			return anvil.Slot{}, err
		}
		return anvil.Slot{Present: true, Timestamp: entry.Meta.Timestamp, CompressionTag: entry.Meta.CompressionTag, Raw: raw}, nil

	case diffregion.Modified:
		if !new.Present {
			return anvil.Slot{}, xerrors.Errorf("modified slot expected present, found absent: %w", ErrIncompatiblePatch)
		}
		if new.Timestamp != entry.NewMeta.Timestamp || new.CompressionTag != entry.NewMeta.CompressionTag {
			return anvil.Slot{}, xerrors.Errorf("slot new metadata does not match diff: %w", ErrIncompatiblePatch)
		}
		newPayload, err := decompressSlot(new)
		if err != nil {
			return anvil.Slot{}, xerrors.Errorf("decompressing new payload: %w", err)
		}
		oldPayload, err := chunkdelta.Revert(newPayload, entry.Delta)
		if err != nil {
			return anvil.Slot{}, xerrors.Errorf("%v: %w", err, ErrIncompatiblePatch)
		}
		raw, err := compressPayload(entry.OldMeta.CompressionTag, oldPayload)
		if err != nil {
			return anvil.Slot{}, err
		}
		return anvil.Slot{Present: true, Timestamp: entry.OldMeta.Timestamp, CompressionTag: entry.OldMeta.CompressionTag, Raw: raw}, nil

	default:
		return anvil.Slot{}, xerrors.Errorf("engine: unknown entry kind %d", entry.Kind)
	}
}
