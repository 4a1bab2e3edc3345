package anvil

import (
	"bytes"
	"testing"
)

func TestSerializeParseRoundTrip(t *testing.T) {
	c := &Container{Slots: make([]Slot, SlotCount)}
	c.Slots[0] = Slot{Present: true, Timestamp: 42, CompressionTag: TagZlib, Raw: []byte("hello")}
	c.Slots[500] = Slot{Present: true, Timestamp: 7, CompressionTag: TagGzip, Raw: bytes.Repeat([]byte{0xAB}, 5000)}
	c.Slots[1023] = Slot{Present: true, Timestamp: 1, CompressionTag: TagUncompressed, Raw: []byte("x")}

	data, err := SerializeMCA(c)
	if err != nil {
		t.Fatalf("SerializeMCA: %v", err)
	}
	parsed, err := ParseMCA(data)
	if err != nil {
		t.Fatalf("ParseMCA: %v", err)
	}
	for i, want := range c.Slots {
		got := parsed.Slots[i]
		if got.Present != want.Present {
			t.Fatalf("slot %d: Present = %v, want %v", i, got.Present, want.Present)
		}
		if !want.Present {
			continue
		}
		if got.Timestamp != want.Timestamp || got.CompressionTag != want.CompressionTag {
			t.Fatalf("slot %d: meta mismatch: got %+v, want %+v", i, got, want)
		}
		if !bytes.Equal(got.Raw, want.Raw) {
			t.Fatalf("slot %d: Raw mismatch", i)
		}
	}
}

func TestSerializeCanonicalFixedPoint(t *testing.T) {
	c := &Container{Slots: make([]Slot, SlotCount)}
	c.Slots[2] = Slot{Present: true, Timestamp: 99, CompressionTag: TagZlib, Raw: []byte("payload bytes")}
	c.Slots[900] = Slot{Present: true, Timestamp: 1, CompressionTag: TagLZ4, Raw: []byte("more payload")}

	first, err := SerializeMCA(c)
	if err != nil {
		t.Fatalf("SerializeMCA: %v", err)
	}
	parsed, err := ParseMCA(first)
	if err != nil {
		t.Fatalf("ParseMCA: %v", err)
	}
	second, err := SerializeMCA(parsed)
	if err != nil {
		t.Fatalf("SerializeMCA (second): %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("serialize(parse(x)) is not a fixed point")
	}
}

func TestEmptyRegionRoundTrips(t *testing.T) {
	c := &Container{Slots: make([]Slot, SlotCount)}
	data, err := SerializeMCA(c)
	if err != nil {
		t.Fatalf("SerializeMCA: %v", err)
	}
	parsed, err := ParseMCA(data)
	if err != nil {
		t.Fatalf("ParseMCA: %v", err)
	}
	for i, s := range parsed.Slots {
		if s.Present {
			t.Fatalf("slot %d: want absent in empty region", i)
		}
	}
}

func TestParseRejectsOverlappingSectors(t *testing.T) {
	data := make([]byte, 4*sectorSize)
	// Two slots both claiming sector 2 (offset right after the header).
	putLocation(data, 0, 2, 1)
	putLocation(data, 1, 2, 1)
	// A valid payload header in sector 2, so slot 0 parses and slot 1 is
	// rejected for the overlap rather than for an empty payload.
	start := 2 * sectorSize
	data[start+3] = 1 // length = 1
	data[start+4] = byte(TagZlib)
	if _, err := ParseMCA(data); err == nil {
		t.Fatal("want error for overlapping sectors, got nil")
	}
}

func TestParseRejectsBadTag(t *testing.T) {
	data := make([]byte, 3*sectorSize)
	putLocation(data, 0, 2, 1)
	start := 2 * sectorSize
	data[start+3] = 2 // length = 2
	data[start+4] = 9 // invalid tag
	if _, err := ParseMCA(data); err == nil {
		t.Fatal("want error for invalid compression tag, got nil")
	}
}

func putLocation(data []byte, slot int, sector, count uint32) {
	entry := (sector << 8) | count
	data[slot*4] = byte(entry >> 24)
	data[slot*4+1] = byte(entry >> 16)
	data[slot*4+2] = byte(entry >> 8)
	data[slot*4+3] = byte(entry)
}

func TestMCCRoundTrip(t *testing.T) {
	c := &Container{Slots: []Slot{{Present: true, CompressionTag: TagZlib, Raw: []byte("sidecar chunk bytes")}}}
	data, err := SerializeMCC(c)
	if err != nil {
		t.Fatalf("SerializeMCC: %v", err)
	}
	parsed, err := ParseMCC(data)
	if err != nil {
		t.Fatalf("ParseMCC: %v", err)
	}
	if !bytes.Equal(parsed.Slots[0].Raw, c.Slots[0].Raw) {
		t.Fatalf("Raw mismatch after round trip")
	}
	if parsed.Slots[0].CompressionTag != TagZlib {
		t.Fatalf("CompressionTag = %v, want TagZlib", parsed.Slots[0].CompressionTag)
	}
}
