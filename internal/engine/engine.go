// Package engine implements the four region-diff operations — diff, patch,
// revert, squash — by mapping the appropriate per-chunk operation across a
// container's slots via internal/worker, per spec §4.5 and §4.6.
package engine

import (
	"errors"
	"os"

	"github.com/hairlessvillager/region-diff/internal/anvil"
	"github.com/hairlessvillager/region-diff/internal/codec"
	"github.com/hairlessvillager/region-diff/internal/diffregion"
	"github.com/hairlessvillager/region-diff/internal/ioutilx"
	"github.com/hairlessvillager/region-diff/internal/rlog"
	"github.com/hairlessvillager/region-diff/internal/worker"
	"golang.org/x/xerrors"
)

// Format selects which anvil container shape a path holds.
type Format int

const (
	// RegionMCA is region/*.mca and entities/*.mca: 1024 slots.
	RegionMCA Format = iota
	// RegionMCC is a single-chunk .mcc sidecar: 1 slot.
	RegionMCC
)

// ErrIncompatiblePatch is returned, wrapped with slot context, when a diff
// entry's recorded old state does not match the input container.
var ErrIncompatiblePatch = errors.New("engine: incompatible patch")

// Engine holds the configuration shared by all four operations.
type Engine struct {
	// DiffCodec wraps the serialized diff body on disk (the -c flag).
	DiffCodec codec.Kind
	// Workers is the worker pool size (the -t flag).
	Workers int
	// Log receives Info/Debug lines; defaults to rlog.Discard if nil.
	Log *rlog.Logger
	// Progress, if non-nil, receives a redrawing progress line when it's a
	// terminal (typically os.Stderr).
	Progress worker.Writer
}

func (e *Engine) log() *rlog.Logger {
	if e.Log == nil {
		return rlog.Discard
	}
	return e.Log
}

func (e *Engine) pool() *worker.Pool {
	return &worker.Pool{Workers: e.Workers, Progress: e.Progress}
}

func parseContainer(format Format, data []byte) (*anvil.Container, error) {
	if format == RegionMCC {
		return anvil.ParseMCC(data)
	}
	return anvil.ParseMCA(data)
}

func serializeContainer(format Format, c *anvil.Container) ([]byte, error) {
	if format == RegionMCC {
		return anvil.SerializeMCC(c)
	}
	return anvil.SerializeMCA(c)
}

func slotCount(format Format) int {
	if format == RegionMCC {
		return 1
	}
	return anvil.SlotCount
}

// decompressSlot returns a slot's decompressed payload. A slot whose
// compression tag is TagExternal points at a sidecar .mcc file; resolving
// that cross-reference is file discovery, out of this engine's scope per
// spec §1, so its raw bytes are treated as the payload directly.
func decompressSlot(s anvil.Slot) ([]byte, error) {
	if s.CompressionTag == anvil.TagExternal {
		return s.Raw, nil
	}
	kind, err := tagToCodec(s.CompressionTag)
	if err != nil {
		return nil, err
	}
	return codec.Decompress(s.Raw, kind)
}

// compressPayload recompresses payload with tag, the mirror of
// decompressSlot.
func compressPayload(tag anvil.CompressionTag, payload []byte) ([]byte, error) {
	if tag == anvil.TagExternal {
		return payload, nil
	}
	kind, err := tagToCodec(tag)
	if err != nil {
		return nil, err
	}
	return codec.Compress(payload, kind)
}

func tagToCodec(tag anvil.CompressionTag) (codec.Kind, error) {
	switch tag {
	case anvil.TagGzip:
		return codec.Gzip, nil
	case anvil.TagZlib:
		return codec.Zlib, nil
	case anvil.TagUncompressed:
		return codec.None, nil
	case anvil.TagLZ4:
		return codec.LZ4, nil
	default:
		return 0, xerrors.Errorf("engine: no codec for compression tag %d", tag)
	}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("engine: reading %s: %w", path, err)
	}
	return data, nil
}

func meta(s anvil.Slot) diffregion.Meta {
	return diffregion.Meta{Timestamp: s.Timestamp, CompressionTag: s.CompressionTag}
}

// writeDiffFile serializes d, wraps it with e.DiffCodec, and writes it
// atomically to path.
func (e *Engine) writeDiffFile(d *diffregion.Diff, path string) error {
	body, err := diffregion.Serialize(d)
	if err != nil {
		return xerrors.Errorf("engine: serializing diff: %w", err)
	}
	wrapped, err := codec.Compress(body, e.DiffCodec)
	if err != nil {
		return xerrors.Errorf("engine: compressing diff: %w", err)
	}
	if err := ioutilx.WriteFileAtomic(path, wrapped); err != nil {
		return xerrors.Errorf("engine: writing %s: %w", path, err)
	}
	return nil
}

// writeContainerAtomic writes a serialized anvil container to path
// atomically.
func writeContainerAtomic(path string, data []byte) error {
	if err := ioutilx.WriteFileAtomic(path, data); err != nil {
		return xerrors.Errorf("engine: writing %s: %w", path, err)
	}
	return nil
}

// readDiffFile unwraps e.DiffCodec and deserializes the diff at path.
func (e *Engine) readDiffFile(path string) (*diffregion.Diff, error) {
	wrapped, err := readFile(path)
	if err != nil {
		return nil, err
	}
	body, err := codec.Decompress(wrapped, e.DiffCodec)
	if err != nil {
		return nil, xerrors.Errorf("engine: decompressing %s: %w", path, err)
	}
	d, err := diffregion.Deserialize(body)
	if err != nil {
		return nil, xerrors.Errorf("engine: parsing %s: %w", path, err)
	}
	return d, nil
}
