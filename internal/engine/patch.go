package engine

import (
	"context"

	"github.com/hairlessvillager/region-diff/internal/anvil"
	"github.com/hairlessvillager/region-diff/internal/chunkdelta"
	"github.com/hairlessvillager/region-diff/internal/diffregion"
	"golang.org/x/xerrors"
)

// Patch applies the diff at diffPath to oldPath and writes the result to
// outPath, per spec §4.5.
func (e *Engine) Patch(ctx context.Context, format Format, oldPath, diffPath, outPath string) error {
	e.log().Infof("patch: applying %s to %s", diffPath, oldPath)

	oldData, err := readFile(oldPath)
	if err != nil {
		return err
	}
	oldContainer, err := parseContainer(format, oldData)
	if err != nil {
		return xerrors.Errorf("engine: parsing %s: %w", oldPath, err)
	}
	d, err := e.readDiffFile(diffPath)
	if err != nil {
		return err
	}

	n := slotCount(format)
	if len(oldContainer.Slots) != n || int(d.SlotCount) != n {
		return xerrors.Errorf("engine: patch: slot count mismatch")
	}

	results, err := e.pool().Run(ctx, n, func(_ context.Context, i int) (any, error) {
		slot, err := patchSlot(oldContainer.Slots[i], d.Entries[i])
		if err != nil {
			return nil, err
		}
		return slot, nil
	})
	if err != nil {
		return xerrors.Errorf("engine: patch: %w", err)
	}

	newContainer := &anvil.Container{Slots: make([]anvil.Slot, n)}
	for i, r := range results {
		newContainer.Slots[i] = r.(anvil.Slot)
	}

	out, err := serializeContainer(format, newContainer)
	if err != nil {
		return xerrors.Errorf("engine: serializing %s: %w", outPath, err)
	}
	if err := writeContainerAtomic(outPath, out); err != nil {
		return err
	}
	e.log().Infof("patch: wrote %s", outPath)
	return nil
}

// patchSlot applies entry to old, producing the new slot state.
func patchSlot(old anvil.Slot, entry diffregion.Entry) (anvil.Slot, error) {
	switch entry.Kind {
	case diffregion.Unchanged:
		return old, nil

	case diffregion.Added:
		if old.Present {
			return anvil.Slot{}, xerrors.Errorf("slot expected absent, found present: %w", ErrIncompatiblePatch)
		}
		raw, err := compressPayload(entry.Meta.CompressionTag, entry.Payload)
		if err != nil {
			return anvil.Slot{}, err
		}
		return anvil.Slot{Present: true, Timestamp: entry.Meta.Timestamp, CompressionTag: entry.Meta.CompressionTag, Raw: raw}, nil

	case diffregion.Removed:
		if !old.Present {
			return anvil.Slot{}, xerrors.Errorf("slot expected present, found absent: %w", ErrIncompatiblePatch)
		}
		return anvil.Slot{}, nil

	case diffregion.Modified:
		if !old.Present {
			return anvil.Slot{}, xerrors.Errorf("modified slot expected present, found absent: %w", ErrIncompatiblePatch)
		}
		if old.Timestamp != entry.OldMeta.Timestamp || old.CompressionTag != entry.OldMeta.CompressionTag {
			return anvil.Slot{}, xerrors.Errorf("slot old metadata does not match diff: %w", ErrIncompatiblePatch)
		}
		oldPayload, err := decompressSlot(old)
		if err != nil {
			return anvil.Slot{}, xerrors.Errorf("decompressing old payload: %w", err)
		}
		newPayload, err := chunkdelta.Apply(oldPayload, entry.Delta)
		if err != nil {
			return anvil.Slot{}, xerrors.Errorf("%v: %w", err, ErrIncompatiblePatch)
		}
		raw, err := compressPayload(entry.NewMeta.CompressionTag, newPayload)
		if err != nil {
			return anvil.Slot{}, err
		}
		return anvil.Slot{Present: true, Timestamp: entry.NewMeta.Timestamp, CompressionTag: entry.NewMeta.CompressionTag, Raw: raw}, nil

	default:
		return anvil.Slot{}, xerrors.Errorf("engine: unknown entry kind %d", entry.Kind)
	}
}
