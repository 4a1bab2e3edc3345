package engine

import (
	"context"

	"github.com/hairlessvillager/region-diff/internal/diffregion"
	"golang.org/x/xerrors"
)

// Squash composes the diffs at diff1Path and diff2Path and writes the
// result to outPath, per spec §4.5's composition table.
func (e *Engine) Squash(ctx context.Context, format Format, diff1Path, diff2Path, outPath string) error {
	e.log().Infof("squash: composing %s and %s", diff1Path, diff2Path)

	d1, err := e.readDiffFile(diff1Path)
	if err != nil {
		return err
	}
	d2, err := e.readDiffFile(diff2Path)
	if err != nil {
		return err
	}

	n := slotCount(format)
	if int(d1.SlotCount) != n || int(d2.SlotCount) != int(d1.SlotCount) {
		return xerrors.Errorf("engine: squash: slot count mismatch between diffs")
	}

	results, err := e.pool().Run(ctx, n, func(_ context.Context, i int) (any, error) {
		return diffregion.ComposeEntry(d1.Entries[i], d2.Entries[i])
	})
	if err != nil {
		return xerrors.Errorf("engine: squash: %w", err)
	}

	entries := make([]diffregion.Entry, n)
	for i, r := range results {
		entries[i] = r.(diffregion.Entry)
	}

	d3 := &diffregion.Diff{Version: diffregion.Version, SlotCount: uint16(n), Entries: entries}
	if err := e.writeDiffFile(d3, outPath); err != nil {
		return err
	}
	e.log().Infof("squash: wrote %s", outPath)
	return nil
}
