// Package anvil parses and serializes Minecraft's anvil region-file
// container format (region/*.mca, entities/*.mca) and its .mcc sidecar
// variant. It treats chunk payloads as opaque compressed byte strings; no
// NBT structure is interpreted here.
package anvil

import (
	"encoding/binary"
	"fmt"
)

// SlotCount is the number of chunk slots in a region or entities container.
const SlotCount = 1024

const (
	sectorSize    = 4096
	headerSectors = 2 // location table + timestamp table
)

// CompressionTag is the one-byte tag stored before a chunk's compressed
// payload, per the anvil format.
type CompressionTag uint8

const (
	TagGzip         CompressionTag = 1
	TagZlib         CompressionTag = 2
	TagUncompressed CompressionTag = 3
	TagLZ4          CompressionTag = 4
	TagExternal     CompressionTag = 127
)

func (t CompressionTag) valid() bool {
	switch t {
	case TagGzip, TagZlib, TagUncompressed, TagLZ4, TagExternal:
		return true
	default:
		return false
	}
}

// Slot is the on-disk state of one of the 1024 chunk positions in a region
// or entities container.
type Slot struct {
	Present bool

	Timestamp      uint32
	CompressionTag CompressionTag
	// Raw is the compressed payload bytes as stored on disk (not including
	// the 4-byte length prefix or the 1-byte compression tag). For a slot
	// with CompressionTag == TagExternal, Raw holds whatever bytes the region
	// file stores for that slot; the matching .mcc sidecar is not read.
	Raw []byte
}

// Container is a fully parsed region, entities, or .mcc container. Slots is
// always SlotCount long for region/entities and length 1 for .mcc.
type Container struct {
	Slots []Slot
}

// CorruptContainer errors are returned by Parse* for any header/sector/tag
// violation in the source bytes.
type CorruptContainer struct {
	Reason string
}

func (e *CorruptContainer) Error() string {
	return fmt.Sprintf("anvil: corrupt container: %s", e.Reason)
}

func corrupt(format string, args ...any) error {
	return &CorruptContainer{Reason: fmt.Sprintf(format, args...)}
}

// ParseMCA parses a region or entities container (1024 slots) from its raw
// file bytes. ParseMCA tolerates any valid non-canonical sector layout; use
// SerializeMCA to obtain the canonical form.
func ParseMCA(data []byte) (*Container, error) {
	if len(data) < headerSectors*sectorSize {
		return nil, corrupt("file too small for header: %d bytes", len(data))
	}

	locations := data[0:sectorSize]
	timestamps := data[sectorSize : 2*sectorSize]

	type span struct{ start, end int }
	var used []span

	c := &Container{Slots: make([]Slot, SlotCount)}
	for i := 0; i < SlotCount; i++ {
		entry := binary.BigEndian.Uint32(locations[i*4 : i*4+4])
		offsetSectors := entry >> 8
		sectorCount := entry & 0xFF
		timestamp := binary.BigEndian.Uint32(timestamps[i*4 : i*4+4])

		if offsetSectors == 0 && sectorCount == 0 {
			continue // empty slot
		}
		if offsetSectors < headerSectors {
			return nil, corrupt("slot %d: sector offset %d overlaps header", i, offsetSectors)
		}

		start := int(offsetSectors) * sectorSize
		end := start + int(sectorCount)*sectorSize
		if end > len(data) {
			return nil, corrupt("slot %d: sectors overrun file (offset %d, count %d, file %d bytes)", i, offsetSectors, sectorCount, len(data))
		}
		for _, s := range used {
			if start < s.end && s.start < end {
				return nil, corrupt("slot %d: sectors [%d,%d) overlap another slot's sectors [%d,%d)", i, start, end, s.start, s.end)
			}
		}
		used = append(used, span{start, end})

		if end-start < 5 {
			return nil, corrupt("slot %d: payload region too small for header", i)
		}
		length := binary.BigEndian.Uint32(data[start : start+4])
		if length == 0 {
			return nil, corrupt("slot %d: zero-length payload", i)
		}
		tag := CompressionTag(data[start+4])
		if !tag.valid() {
			return nil, corrupt("slot %d: invalid compression tag %d", i, tag)
		}
		payloadEnd := start + 4 + int(length)
		if payloadEnd > end || int(length) < 1 {
			return nil, corrupt("slot %d: payload length %d overruns allotted sectors", i, length)
		}
		raw := make([]byte, length-1)
		copy(raw, data[start+5:payloadEnd])

		c.Slots[i] = Slot{
			Present:        true,
			Timestamp:      timestamp,
			CompressionTag: tag,
			Raw:            raw,
		}
	}

	return c, nil
}

// SerializeMCA writes c in canonical form: slots are assigned sectors in
// increasing slot-index order, each starting at the next free sector
// boundary, padded with zero bytes to a whole number of sectors.
// SerializeMCA(ParseMCA(x)) is a fixed point: parsing the result and
// re-serializing yields the same bytes again.
func SerializeMCA(c *Container) ([]byte, error) {
	if len(c.Slots) != SlotCount {
		return nil, fmt.Errorf("anvil: SerializeMCA: want %d slots, got %d", SlotCount, len(c.Slots))
	}

	locations := make([]byte, sectorSize)
	timestamps := make([]byte, sectorSize)
	var body []byte
	nextSector := uint32(headerSectors)

	for i, s := range c.Slots {
		if !s.Present {
			continue
		}
		totalLen := 4 + len(s.Raw) + 1 // length field + tag byte + payload
		sectorCount := (totalLen + sectorSize - 1) / sectorSize
		if sectorCount == 0 || sectorCount > 0xFF {
			return nil, fmt.Errorf("anvil: slot %d: payload too large (%d sectors)", i, sectorCount)
		}

		binary.BigEndian.PutUint32(locations[i*4:i*4+4], (nextSector<<8)|uint32(sectorCount))
		binary.BigEndian.PutUint32(timestamps[i*4:i*4+4], s.Timestamp)

		var header [5]byte
		binary.BigEndian.PutUint32(header[0:4], uint32(len(s.Raw)+1))
		header[4] = byte(s.CompressionTag)
		body = append(body, header[:]...)
		body = append(body, s.Raw...)

		padded := sectorCount * sectorSize
		if pad := padded - totalLen; pad > 0 {
			body = append(body, make([]byte, pad)...)
		}
		nextSector += uint32(sectorCount)
	}

	out := make([]byte, 0, len(locations)+len(timestamps)+len(body))
	out = append(out, locations...)
	out = append(out, timestamps...)
	out = append(out, body...)
	return out, nil
}

// ParseMCC parses a .mcc sidecar: a single compressed payload with its
// compression tag as the first byte, followed by the compressed bytes. It is
// modeled as a one-slot Container for uniformity with ParseMCA.
func ParseMCC(data []byte) (*Container, error) {
	if len(data) < 1 {
		return nil, corrupt(".mcc file too small")
	}
	tag := CompressionTag(data[0])
	if !tag.valid() {
		return nil, corrupt(".mcc: invalid compression tag %d", tag)
	}
	raw := make([]byte, len(data)-1)
	copy(raw, data[1:])
	return &Container{Slots: []Slot{{
		Present:        true,
		Timestamp:      0,
		CompressionTag: tag,
		Raw:            raw,
	}}}, nil
}

// SerializeMCC writes c (which must have exactly one, present slot) back to
// .mcc sidecar form.
func SerializeMCC(c *Container) ([]byte, error) {
	if len(c.Slots) != 1 {
		return nil, fmt.Errorf("anvil: SerializeMCC: want 1 slot, got %d", len(c.Slots))
	}
	s := c.Slots[0]
	if !s.Present {
		return nil, fmt.Errorf("anvil: SerializeMCC: slot is empty")
	}
	out := make([]byte, 0, 1+len(s.Raw))
	out = append(out, byte(s.CompressionTag))
	out = append(out, s.Raw...)
	return out, nil
}
