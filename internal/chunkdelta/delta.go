// Package chunkdelta computes and applies reversible byte-level deltas
// between two decompressed chunk payloads. A Delta is self-contained: given
// only the old payload and the delta, Apply recovers the new payload, and
// given only the new payload and the delta, Revert recovers the old one —
// neither direction needs the other side's full bytes.
package chunkdelta

import "fmt"

// Region describes one differing span between a delta's old and new sides.
// Offset is expressed in the coordinate space of the delta's old side; Old
// is the bytes it replaces there, New is what replaces them.
type Region struct {
	Offset int
	Old    []byte
	New    []byte
}

func (r Region) shift() int { return len(r.New) - len(r.Old) }

// Delta is a reversible edit script between two byte sequences of length
// OldLen and NewLen. Regions are sorted by ascending Offset and do not
// overlap. An empty Delta (no Regions, OldLen == NewLen) means the two
// sequences are identical.
type Delta struct {
	OldLen  int
	NewLen  int
	Regions []Region
}

// IsEmpty reports whether d represents no change at all.
func (d Delta) IsEmpty() bool { return len(d.Regions) == 0 }

// maxGap is the longest run of identical bytes that Diff will still merge
// into a single surrounding region, rather than splitting into two. This
// keeps a handful of nearby single-block edits — the common case — as one
// small region instead of many.
const maxGap = 16

// Diff computes a Delta that Apply(a, Diff(a, b)) turns into b.
func Diff(a, b []byte) Delta {
	d := Delta{OldLen: len(a), NewLen: len(b)}
	if len(a) == len(b) {
		d.Regions = diffEqualLength(a, b)
		return d
	}
	d.Regions = diffVariableLength(a, b)
	return d
}

// diffEqualLength finds maximal runs of differing bytes in same-length
// buffers, merging runs separated by small identical gaps.
func diffEqualLength(a, b []byte) []Region {
	var regions []Region
	i := 0
	n := len(a)
	for i < n {
		if a[i] == b[i] {
			i++
			continue
		}
		start := i
		end := i + 1
		for end < n {
			// find the next differing byte within maxGap
			gapEnd := end
			for gapEnd < n && gapEnd-end <= maxGap && a[gapEnd] == b[gapEnd] {
				gapEnd++
			}
			if gapEnd >= n || gapEnd-end > maxGap {
				break
			}
			end = gapEnd + 1
		}
		regions = append(regions, Region{
			Offset: start,
			Old:    append([]byte(nil), a[start:end]...),
			New:    append([]byte(nil), b[start:end]...),
		})
		i = end
	}
	return regions
}

// diffVariableLength handles a length change by trimming the longest common
// prefix and suffix and emitting a single region for the remaining middle.
func diffVariableLength(a, b []byte) []Region {
	maxCommon := len(a)
	if len(b) < maxCommon {
		maxCommon = len(b)
	}
	prefix := 0
	for prefix < maxCommon && a[prefix] == b[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < maxCommon-prefix && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}
	if prefix == len(a) && prefix == len(b) {
		return nil // a == b
	}
	return []Region{{
		Offset: prefix,
		Old:    append([]byte(nil), a[prefix:len(a)-suffix]...),
		New:    append([]byte(nil), b[prefix:len(b)-suffix]...),
	}}
}

// Apply reconstructs the new side from a and d.
func Apply(a []byte, d Delta) ([]byte, error) {
	if len(a) != d.OldLen {
		return nil, fmt.Errorf("chunkdelta: Apply: input is %d bytes, delta expects %d", len(a), d.OldLen)
	}
	out := make([]byte, 0, d.NewLen)
	pos := 0
	for _, r := range d.Regions {
		if r.Offset < pos || r.Offset+len(r.Old) > len(a) {
			return nil, fmt.Errorf("chunkdelta: Apply: region at %d out of range", r.Offset)
		}
		out = append(out, a[pos:r.Offset]...)
		if string(a[r.Offset:r.Offset+len(r.Old)]) != string(r.Old) {
			return nil, fmt.Errorf("chunkdelta: Apply: region at %d does not match input", r.Offset)
		}
		out = append(out, r.New...)
		pos = r.Offset + len(r.Old)
	}
	out = append(out, a[pos:]...)
	if len(out) != d.NewLen {
		return nil, fmt.Errorf("chunkdelta: Apply: result is %d bytes, delta expects %d", len(out), d.NewLen)
	}
	return out, nil
}

// Revert reconstructs the old side from b and d.
func Revert(b []byte, d Delta) ([]byte, error) {
	if len(b) != d.NewLen {
		return nil, fmt.Errorf("chunkdelta: Revert: input is %d bytes, delta expects %d", len(b), d.NewLen)
	}
	out := make([]byte, 0, d.OldLen)
	pos := 0   // position in a (old side)
	bpos := 0  // position in b (new side)
	for _, r := range d.Regions {
		gap := r.Offset - pos
		out = append(out, b[bpos:bpos+gap]...)
		newOffset := bpos + gap
		if newOffset+len(r.New) > len(b) {
			return nil, fmt.Errorf("chunkdelta: Revert: region at %d out of range", r.Offset)
		}
		if string(b[newOffset:newOffset+len(r.New)]) != string(r.New) {
			return nil, fmt.Errorf("chunkdelta: Revert: region at %d does not match input", r.Offset)
		}
		out = append(out, r.Old...)
		pos = r.Offset + len(r.Old)
		bpos = newOffset + len(r.New)
	}
	out = append(out, b[bpos:]...)
	if len(out) != d.OldLen {
		return nil, fmt.Errorf("chunkdelta: Revert: result is %d bytes, delta expects %d", len(out), d.OldLen)
	}
	return out, nil
}
