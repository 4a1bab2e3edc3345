// Package ioutilx holds small file helpers shared by region-diff's four
// operations.
package ioutilx

import (
	"os"
	"path/filepath"

	"github.com/google/renameio"
	"golang.org/x/xerrors"
)

// WriteFileAtomic writes data to dest via a temporary file in dest's
// directory, renamed into place only once the write succeeds — no partial
// output is ever observable at dest, per spec §7. Adapted from the
// teacher's internal/install renameio.TempFile / CloseAtomicallyReplace
// idiom.
func WriteFileAtomic(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return xerrors.Errorf("ioutilx: %w", err)
	}
	f, err := renameio.TempFile(filepath.Dir(dest), dest)
	if err != nil {
		return xerrors.Errorf("ioutilx: %w", err)
	}
	defer f.Cleanup()
	if _, err := f.Write(data); err != nil {
		return xerrors.Errorf("ioutilx: %w", err)
	}
	if err := f.CloseAtomicallyReplace(); err != nil {
		return xerrors.Errorf("ioutilx: %w", err)
	}
	return nil
}
