package chunkdelta

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustApply(t *testing.T, a []byte, d Delta) []byte {
	t.Helper()
	out, err := Apply(a, d)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return out
}

func mustRevert(t *testing.T, b []byte, d Delta) []byte {
	t.Helper()
	out, err := Revert(b, d)
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	return out
}

func TestDiffIdentical(t *testing.T) {
	a := []byte("the quick brown fox")
	d := Diff(a, a)
	if !d.IsEmpty() {
		t.Fatalf("want empty delta for identical buffers, got %+v", d)
	}
}

func TestDiffApplyRevertEqualLength(t *testing.T) {
	a := []byte("the quick brown fox jumps over the lazy dog")
	b := []byte("the quiet brown fox jumps over the lazy cat")
	d := Diff(a, b)

	if got := mustApply(t, a, d); !bytes.Equal(got, b) {
		t.Fatalf("Apply = %q, want %q", got, b)
	}
	if got := mustRevert(t, b, d); !bytes.Equal(got, a) {
		t.Fatalf("Revert = %q, want %q", got, a)
	}
}

func TestDiffApplyRevertVariableLength(t *testing.T) {
	a := []byte("chunk payload with some nbt bytes")
	b := []byte("chunk payload with considerably more nbt bytes than before")
	d := Diff(a, b)

	if got := mustApply(t, a, d); !bytes.Equal(got, b) {
		t.Fatalf("Apply = %q, want %q", got, b)
	}
	if got := mustRevert(t, b, d); !bytes.Equal(got, a) {
		t.Fatalf("Revert = %q, want %q", got, a)
	}
}

func TestDiffGapMerge(t *testing.T) {
	a := make([]byte, 64)
	b := make([]byte, 64)
	for i := range a {
		a[i] = byte(i)
		b[i] = byte(i)
	}
	// two single-byte edits 8 bytes apart should merge into one region
	b[10] = 0xFF
	b[18] = 0xFE

	d := Diff(a, b)
	if len(d.Regions) != 1 {
		t.Fatalf("want 1 merged region, got %d: %+v", len(d.Regions), d.Regions)
	}
	if got := mustApply(t, a, d); !bytes.Equal(got, b) {
		t.Fatalf("Apply = %x, want %x", got, b)
	}
}

func TestApplyRejectsMismatch(t *testing.T) {
	a := []byte("hello world")
	d := Delta{OldLen: len(a), NewLen: len(a), Regions: []Region{
		{Offset: 0, Old: []byte("goodbye"), New: []byte("whatevr")},
	}}
	if _, err := Apply(a, d); err == nil {
		t.Fatal("want error for mismatched region, got nil")
	}
}

func TestSquashNonOverlapping(t *testing.T) {
	a := []byte("AAAA BBBB CCCC DDDD")
	b := []byte("AAAA XXXX CCCC DDDD")
	c := []byte("AAAA XXXX CCCC YYYY")

	d1 := Diff(a, b)
	d2 := Diff(b, c)

	d3, err := Squash(d1, d2)
	if err != nil {
		t.Fatalf("Squash: %v", err)
	}
	if got := mustApply(t, a, d3); !bytes.Equal(got, c) {
		t.Fatalf("Apply(a, squash(d1,d2)) = %q, want %q", got, c)
	}
	if got := mustRevert(t, c, d3); !bytes.Equal(got, a) {
		t.Fatalf("Revert(c, squash(d1,d2)) = %q, want %q", got, a)
	}
}

func TestSquashSameSpanModifiedTwice(t *testing.T) {
	a := []byte("AAAA BBBB CCCC")
	b := []byte("AAAA XXXX CCCC")
	c := []byte("AAAA YYYY CCCC")

	d1 := Diff(a, b)
	d2 := Diff(b, c)

	d3, err := Squash(d1, d2)
	if err != nil {
		t.Fatalf("Squash: %v", err)
	}
	if got := mustApply(t, a, d3); !bytes.Equal(got, c) {
		t.Fatalf("Apply(a, squash(d1,d2)) = %q, want %q", got, c)
	}
}

func TestSquashOverlappingRegions(t *testing.T) {
	a := []byte("0123456789")
	b := []byte("012XXXX789") // bytes 3-6 replaced
	c := []byte("01YYYYYY89") // bytes 2-7 replaced (overlaps b's edit)

	d1 := Diff(a, b)
	d2 := Diff(b, c)

	d3, err := Squash(d1, d2)
	if err != nil {
		t.Fatalf("Squash: %v", err)
	}
	if got := mustApply(t, a, d3); !bytes.Equal(got, c) {
		t.Fatalf("Apply(a, squash(d1,d2)) = %q, want %q", got, c)
	}
	if got := mustRevert(t, c, d3); !bytes.Equal(got, a) {
		t.Fatalf("Revert(c, squash(d1,d2)) = %q, want %q", got, a)
	}
}

func TestSquashIncompatibleLength(t *testing.T) {
	d1 := Delta{OldLen: 10, NewLen: 10}
	d2 := Delta{OldLen: 12, NewLen: 12}
	_, err := Squash(d1, d2)
	if !errors.Is(err, ErrIncompatibleSquash) {
		t.Fatalf("want ErrIncompatibleSquash, got %v", err)
	}
}

func TestSquashIdentityDeltaPassesThrough(t *testing.T) {
	a := []byte("payload bytes that do not change at all")
	d1 := Diff(a, a)
	d2 := Diff(a, a)
	d3, err := Squash(d1, d2)
	if err != nil {
		t.Fatalf("Squash: %v", err)
	}
	if !d3.IsEmpty() {
		t.Fatalf("want empty squashed delta, got %+v", d3)
	}
	if diff := cmp.Diff(Delta{OldLen: len(a), NewLen: len(a)}, d3); diff != "" {
		t.Fatalf("unexpected delta (-want +got):\n%s", diff)
	}
}
