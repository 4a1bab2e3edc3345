package diffregion

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/hairlessvillager/region-diff/internal/anvil"
	"github.com/hairlessvillager/region-diff/internal/chunkdelta"
	"golang.org/x/xerrors"
)

// Serialize writes d in the on-disk diff format of spec §4.4. The result is
// the raw diff body; wrapping it with the caller's chosen codec is the
// engine's job, not this package's.
func Serialize(d *Diff) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(Magic[:])
	writeU16(&buf, d.Version)
	writeU16(&buf, d.SlotCount)

	if len(d.Entries) != int(d.SlotCount) {
		return nil, xerrors.Errorf("diffregion: Serialize: have %d entries, slot count says %d", len(d.Entries), d.SlotCount)
	}

	for i, e := range d.Entries {
		if err := writeEntry(&buf, e); err != nil {
			return nil, xerrors.Errorf("diffregion: Serialize: slot %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Deserialize parses a diff body previously produced by Serialize (after the
// caller has already removed the wrapping codec).
func Deserialize(data []byte) (*Diff, error) {
	r := bytes.NewReader(data)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, corrupt("reading magic")
	}
	if magic != Magic {
		return nil, corrupt("bad magic %q", magic)
	}

	version, err := readU16(r)
	if err != nil {
		return nil, corrupt("reading version")
	}
	if version > Version {
		return nil, xerrors.Errorf("diffregion: version %d: %w", version, ErrUnsupportedVersion)
	}

	slotCount, err := readU16(r)
	if err != nil {
		return nil, corrupt("reading slot count")
	}

	entries := make([]Entry, slotCount)
	for i := range entries {
		e, err := readEntry(r)
		if err != nil {
			return nil, xerrors.Errorf("diffregion: Deserialize: slot %d: %w", i, err)
		}
		entries[i] = e
	}

	return &Diff{Version: version, SlotCount: slotCount, Entries: entries}, nil
}

func writeEntry(buf *bytes.Buffer, e Entry) error {
	buf.WriteByte(byte(e.Kind))
	switch e.Kind {
	case Unchanged:
		return nil
	case Added, Removed:
		writeMeta(buf, e.Meta)
		writeBytes(buf, e.Payload)
		return nil
	case Modified:
		writeMeta(buf, e.OldMeta)
		writeMeta(buf, e.NewMeta)
		writeDelta(buf, e.Delta)
		return nil
	default:
		return xerrors.Errorf("unknown entry kind %d", e.Kind)
	}
}

func readEntry(r *bytes.Reader) (Entry, error) {
	kindByte, err := r.ReadByte()
	if err != nil {
		return Entry{}, corrupt("reading discriminant")
	}
	kind := Kind(kindByte)
	switch kind {
	case Unchanged:
		return Entry{Kind: Unchanged}, nil
	case Added, Removed:
		meta, err := readMeta(r)
		if err != nil {
			return Entry{}, err
		}
		payload, err := readBytes(r)
		if err != nil {
			return Entry{}, err
		}
		return Entry{Kind: kind, Meta: meta, Payload: payload}, nil
	case Modified:
		oldMeta, err := readMeta(r)
		if err != nil {
			return Entry{}, err
		}
		newMeta, err := readMeta(r)
		if err != nil {
			return Entry{}, err
		}
		delta, err := readDelta(r)
		if err != nil {
			return Entry{}, err
		}
		return Entry{Kind: Modified, OldMeta: oldMeta, NewMeta: newMeta, Delta: delta}, nil
	default:
		return Entry{}, corrupt("unknown discriminant %d", kindByte)
	}
}

func writeMeta(buf *bytes.Buffer, m Meta) {
	writeU32(buf, m.Timestamp)
	buf.WriteByte(byte(m.CompressionTag))
}

func readMeta(r *bytes.Reader) (Meta, error) {
	ts, err := readU32(r)
	if err != nil {
		return Meta{}, corrupt("reading timestamp")
	}
	tag, err := r.ReadByte()
	if err != nil {
		return Meta{}, corrupt("reading compression tag")
	}
	return Meta{Timestamp: ts, CompressionTag: anvil.CompressionTag(tag)}, nil
}

func writeDelta(buf *bytes.Buffer, d chunkdelta.Delta) {
	writeU32(buf, uint32(d.OldLen))
	writeU32(buf, uint32(d.NewLen))
	writeU32(buf, uint32(len(d.Regions)))
	for _, reg := range d.Regions {
		writeU32(buf, uint32(reg.Offset))
		writeBytes(buf, reg.Old)
		writeBytes(buf, reg.New)
	}
}

func readDelta(r *bytes.Reader) (chunkdelta.Delta, error) {
	oldLen, err := readU32(r)
	if err != nil {
		return chunkdelta.Delta{}, corrupt("reading delta old length")
	}
	newLen, err := readU32(r)
	if err != nil {
		return chunkdelta.Delta{}, corrupt("reading delta new length")
	}
	count, err := readU32(r)
	if err != nil {
		return chunkdelta.Delta{}, corrupt("reading delta region count")
	}
	regions := make([]chunkdelta.Region, count)
	for i := range regions {
		offset, err := readU32(r)
		if err != nil {
			return chunkdelta.Delta{}, corrupt("reading region %d offset", i)
		}
		oldSlice, err := readBytes(r)
		if err != nil {
			return chunkdelta.Delta{}, corrupt("reading region %d old slice", i)
		}
		newSlice, err := readBytes(r)
		if err != nil {
			return chunkdelta.Delta{}, corrupt("reading region %d new slice", i)
		}
		regions[i] = chunkdelta.Region{Offset: int(offset), Old: oldSlice, New: newSlice}
	}
	return chunkdelta.Delta{OldLen: int(oldLen), NewLen: int(newLen), Regions: regions}, nil
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeU32(buf, uint32(len(b)))
	buf.Write(b)
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, corrupt("reading byte string length")
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, corrupt("reading %d byte string bytes", n)
	}
	return out, nil
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func readU16(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}
