package engine

import (
	"bytes"
	"context"

	"github.com/hairlessvillager/region-diff/internal/anvil"
	"github.com/hairlessvillager/region-diff/internal/chunkdelta"
	"github.com/hairlessvillager/region-diff/internal/diffregion"
	"golang.org/x/xerrors"
)

// Diff computes the diff between oldPath and newPath and writes it to
// outPath, per spec §4.5.
func (e *Engine) Diff(ctx context.Context, format Format, oldPath, newPath, outPath string) error {
	e.log().Infof("diff: reading %s and %s", oldPath, newPath)

	oldData, err := readFile(oldPath)
	if err != nil {
		return err
	}
	newData, err := readFile(newPath)
	if err != nil {
		return err
	}

	oldContainer, err := parseContainer(format, oldData)
	if err != nil {
		return xerrors.Errorf("engine: parsing %s: %w", oldPath, err)
	}
	newContainer, err := parseContainer(format, newData)
	if err != nil {
		return xerrors.Errorf("engine: parsing %s: %w", newPath, err)
	}

	n := slotCount(format)
	if len(oldContainer.Slots) != n || len(newContainer.Slots) != n {
		return xerrors.Errorf("engine: diff: slot count mismatch between inputs")
	}

	results, err := e.pool().Run(ctx, n, func(_ context.Context, i int) (any, error) {
		entry, err := diffSlot(oldContainer.Slots[i], newContainer.Slots[i])
		if err != nil {
			return nil, err
		}
		e.log().Debugf("slot %d: %s", i, entry.Kind)
		return entry, nil
	})
	if err != nil {
		return xerrors.Errorf("engine: diff: %w", err)
	}

	entries := make([]diffregion.Entry, n)
	for i, r := range results {
		entries[i] = r.(diffregion.Entry)
	}

	d := &diffregion.Diff{Version: diffregion.Version, SlotCount: uint16(n), Entries: entries}
	if err := e.writeDiffFile(d, outPath); err != nil {
		return err
	}
	e.log().Infof("diff: wrote %s", outPath)
	return nil
}

// diffSlot classifies one slot's (old, new) pair per spec §4.5's diff rules.
func diffSlot(old, new anvil.Slot) (diffregion.Entry, error) {
	switch {
	case !old.Present && !new.Present:
		return diffregion.Entry{Kind: diffregion.Unchanged}, nil

	case !old.Present && new.Present:
		payload, err := decompressSlot(new)
		if err != nil {
			return diffregion.Entry{}, xerrors.Errorf("decompressing added payload: %w", err)
		}
		return diffregion.Entry{Kind: diffregion.Added, Meta: meta(new), Payload: payload}, nil

	case old.Present && !new.Present:
		payload, err := decompressSlot(old)
		if err != nil {
			return diffregion.Entry{}, xerrors.Errorf("decompressing removed payload: %w", err)
		}
		return diffregion.Entry{Kind: diffregion.Removed, Meta: meta(old), Payload: payload}, nil

	default:
		oldPayload, err := decompressSlot(old)
		if err != nil {
			return diffregion.Entry{}, xerrors.Errorf("decompressing old payload: %w", err)
		}
		newPayload, err := decompressSlot(new)
		if err != nil {
			return diffregion.Entry{}, xerrors.Errorf("decompressing new payload: %w", err)
		}
		if old.Timestamp == new.Timestamp && old.CompressionTag == new.CompressionTag && bytes.Equal(oldPayload, newPayload) {
			return diffregion.Entry{Kind: diffregion.Unchanged}, nil
		}
		return diffregion.Entry{
			Kind:    diffregion.Modified,
			OldMeta: meta(old),
			NewMeta: meta(new),
			Delta:   chunkdelta.Diff(oldPayload, newPayload),
		}, nil
	}
}
