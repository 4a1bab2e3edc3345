package diffregion

import (
	"errors"
	"testing"

	"github.com/hairlessvillager/region-diff/internal/anvil"
	"github.com/hairlessvillager/region-diff/internal/chunkdelta"
)

func TestSquashUnchangedPassesThroughD2(t *testing.T) {
	d1 := &Diff{Version: Version, SlotCount: 1, Entries: []Entry{{Kind: Unchanged}}}
	d2 := &Diff{Version: Version, SlotCount: 1, Entries: []Entry{
		{Kind: Added, Meta: Meta{CompressionTag: anvil.TagZlib}, Payload: []byte("new")},
	}}
	out, err := Squash(d1, d2)
	if err != nil {
		t.Fatalf("Squash: %v", err)
	}
	if out.Entries[0].Kind != Added {
		t.Fatalf("want Added, got %v", out.Entries[0].Kind)
	}
}

func TestSquashAddedThenModified(t *testing.T) {
	a := []byte("added payload version one")
	b := []byte("added payload version TWO")
	d1 := &Diff{Version: Version, SlotCount: 1, Entries: []Entry{
		{Kind: Added, Meta: Meta{CompressionTag: anvil.TagZlib}, Payload: a},
	}}
	d2 := &Diff{Version: Version, SlotCount: 1, Entries: []Entry{
		{Kind: Modified, OldMeta: Meta{CompressionTag: anvil.TagZlib}, NewMeta: Meta{CompressionTag: anvil.TagGzip}, Delta: chunkdelta.Diff(a, b)},
	}}
	out, err := Squash(d1, d2)
	if err != nil {
		t.Fatalf("Squash: %v", err)
	}
	entry := out.Entries[0]
	if entry.Kind != Added {
		t.Fatalf("want Added, got %v", entry.Kind)
	}
	if string(entry.Payload) != string(b) {
		t.Fatalf("Payload = %q, want %q", entry.Payload, b)
	}
	if entry.Meta.CompressionTag != anvil.TagGzip {
		t.Fatalf("CompressionTag = %v, want TagGzip", entry.Meta.CompressionTag)
	}
}

func TestSquashAddedThenAddedIsIncompatible(t *testing.T) {
	d1 := &Diff{Version: Version, SlotCount: 1, Entries: []Entry{{Kind: Added}}}
	d2 := &Diff{Version: Version, SlotCount: 1, Entries: []Entry{{Kind: Added}}}
	_, err := Squash(d1, d2)
	if !errors.Is(err, ErrIncompatibleSquash) {
		t.Fatalf("want ErrIncompatibleSquash, got %v", err)
	}
}

func TestSquashModifiedThenModifiedComposesDelta(t *testing.T) {
	a := []byte("0123456789")
	b := []byte("012XXXX789")
	c := []byte("012XXXX789Z")

	d1 := &Diff{Version: Version, SlotCount: 1, Entries: []Entry{
		{Kind: Modified, OldMeta: Meta{CompressionTag: anvil.TagZlib}, NewMeta: Meta{CompressionTag: anvil.TagZlib}, Delta: chunkdelta.Diff(a, b)},
	}}
	d2 := &Diff{Version: Version, SlotCount: 1, Entries: []Entry{
		{Kind: Modified, OldMeta: Meta{CompressionTag: anvil.TagZlib}, NewMeta: Meta{CompressionTag: anvil.TagLZ4}, Delta: chunkdelta.Diff(b, c)},
	}}

	out, err := Squash(d1, d2)
	if err != nil {
		t.Fatalf("Squash: %v", err)
	}
	entry := out.Entries[0]
	if entry.Kind != Modified {
		t.Fatalf("want Modified, got %v", entry.Kind)
	}
	got, err := chunkdelta.Apply(a, entry.Delta)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if string(got) != string(c) {
		t.Fatalf("Apply(a, squashed delta) = %q, want %q", got, c)
	}
	if entry.NewMeta.CompressionTag != anvil.TagLZ4 {
		t.Fatalf("NewMeta.CompressionTag = %v, want TagLZ4", entry.NewMeta.CompressionTag)
	}
}

func TestSquashModifiedThenRemoved(t *testing.T) {
	a := []byte("chunk version A")
	b := []byte("chunk version B, removed after this")

	d1 := &Diff{Version: Version, SlotCount: 1, Entries: []Entry{
		{Kind: Modified, OldMeta: Meta{CompressionTag: anvil.TagZlib}, NewMeta: Meta{CompressionTag: anvil.TagZlib}, Delta: chunkdelta.Diff(a, b)},
	}}
	d2 := &Diff{Version: Version, SlotCount: 1, Entries: []Entry{
		{Kind: Removed, Meta: Meta{CompressionTag: anvil.TagZlib}, Payload: b},
	}}

	out, err := Squash(d1, d2)
	if err != nil {
		t.Fatalf("Squash: %v", err)
	}
	entry := out.Entries[0]
	if entry.Kind != Removed {
		t.Fatalf("want Removed, got %v", entry.Kind)
	}
	if string(entry.Payload) != string(a) {
		t.Fatalf("Payload = %q, want %q", entry.Payload, a)
	}
}

func TestSquashModifiedThenRemovedMismatchIsIncompatible(t *testing.T) {
	a := []byte("chunk version A")
	b := []byte("chunk version B")
	wrong := []byte("not what d1 implies at all")

	d1 := &Diff{Version: Version, SlotCount: 1, Entries: []Entry{
		{Kind: Modified, OldMeta: Meta{CompressionTag: anvil.TagZlib}, NewMeta: Meta{CompressionTag: anvil.TagZlib}, Delta: chunkdelta.Diff(a, b)},
	}}
	d2 := &Diff{Version: Version, SlotCount: 1, Entries: []Entry{
		{Kind: Removed, Meta: Meta{CompressionTag: anvil.TagZlib}, Payload: wrong},
	}}

	_, err := Squash(d1, d2)
	if !errors.Is(err, ErrIncompatibleSquash) {
		t.Fatalf("want ErrIncompatibleSquash, got %v", err)
	}
}
