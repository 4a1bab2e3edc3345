// Package codec provides a uniform compress/decompress adapter over the
// general-purpose codecs region-diff wraps its diff files and chunk
// payloads with. It is pure: it never consults or mutates global state, and
// within a single Kind, Compress is deterministic so diff-file bytes are
// reproducible across runs.
package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/pgzip"
	"github.com/pierrec/lz4/v4"
)

// Kind identifies a general-purpose compression codec.
type Kind uint8

const (
	None Kind = iota
	Zlib
	Gzip
	LZ4
)

// String returns the -c flag spelling of k.
func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Zlib:
		return "zlib"
	case Gzip:
		return "gzip"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind parses the -c flag value. It accepts exactly the four spellings
// documented for region-diff: none, zlib, gzip, lz4.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "none":
		return None, nil
	case "zlib":
		return Zlib, nil
	case "gzip":
		return Gzip, nil
	case "lz4":
		return LZ4, nil
	default:
		return 0, fmt.Errorf("codec: unknown kind %q (want one of: none, zlib, gzip, lz4)", s)
	}
}

// Compress returns data compressed with kind. The returned slice is always a
// fresh copy; callers may retain or mutate it freely.
func Compress(data []byte, kind Kind) ([]byte, error) {
	switch kind {
	case None:
		return append([]byte(nil), data...), nil
	case Zlib:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("codec: zlib compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("codec: zlib compress: %w", err)
		}
		return buf.Bytes(), nil
	case Gzip:
		var buf bytes.Buffer
		w := pgzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("codec: gzip compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("codec: gzip compress: %w", err)
		}
		return buf.Bytes(), nil
	case LZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("codec: lz4 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("codec: lz4 compress: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("codec: unsupported kind %v", kind)
	}
}

// Decompress returns data decompressed with kind.
func Decompress(data []byte, kind Kind) ([]byte, error) {
	switch kind {
	case None:
		return append([]byte(nil), data...), nil
	case Zlib:
		r, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("codec: zlib decompress: %w", err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("codec: zlib decompress: %w", err)
		}
		return out, nil
	case Gzip:
		r, err := pgzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("codec: gzip decompress: %w", err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("codec: gzip decompress: %w", err)
		}
		return out, nil
	case LZ4:
		r := lz4.NewReader(bytes.NewReader(data))
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("codec: lz4 decompress: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("codec: unsupported kind %v", kind)
	}
}
