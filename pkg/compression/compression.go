// Package compression wraps output streams with the codecs supported for
// flattened table output.
//
// # Algorithm Selection
//
//   - Snappy/S2: fastest, moderate ratio
//   - LZ4: very fast, decent ratio
//   - Zstd: best ratio at good speed
//   - Gzip/Deflate: widest compatibility
//
// # Usage
//
//	w, err := compression.NewWriter(file, compression.Zstd, compression.Default)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//	err = frame.WriteCSV(w)
package compression

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"io"
	"strings"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/rootflat/pkg/errors"
)

// Algorithm represents a compression algorithm
type Algorithm string

const (
	// None passes bytes through unchanged
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents framed snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
	// Deflate represents raw deflate compression
	Deflate Algorithm = "deflate"
)

// Level trades compression speed for ratio
type Level int

const (
	// Fastest prioritizes speed over compression ratio
	Fastest Level = 1
	// Default balances speed and compression
	Default Level = 5
	// Better improves compression at cost of speed
	Better Level = 7
	// Best maximizes compression ratio
	Best Level = 9
)

var extensions = map[Algorithm]string{
	None:    "",
	Gzip:    ".gz",
	Snappy:  ".sz",
	LZ4:     ".lz4",
	Zstd:    ".zst",
	S2:      ".s2",
	Deflate: ".deflate",
}

// Algorithms lists every supported algorithm
func Algorithms() []Algorithm {
	return []Algorithm{None, Gzip, Snappy, LZ4, Zstd, S2, Deflate}
}

// Parse resolves a case-insensitive algorithm name. The empty string is None.
func Parse(name string) (Algorithm, error) {
	if name == "" {
		return None, nil
	}
	alg := Algorithm(strings.ToLower(name))
	if _, ok := extensions[alg]; !ok {
		return "", errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm %q", name)
	}
	return alg, nil
}

// Extension returns the conventional file suffix, empty for None
func (a Algorithm) Extension() string {
	return extensions[a]
}

// NewWriter wraps w so that bytes written are compressed with alg. Close
// flushes the codec but does not close w.
func NewWriter(w io.Writer, alg Algorithm, level Level) (io.WriteCloser, error) {
	switch alg {
	case None, "":
		return nopWriteCloser{w}, nil
	case Gzip:
		zw, err := gzip.NewWriterLevel(w, mapGzipLevel(level))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "create gzip writer")
		}
		return zw, nil
	case Deflate:
		fw, err := flate.NewWriter(w, mapDeflateLevel(level))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "create deflate writer")
		}
		return fw, nil
	case Snappy:
		return snappy.NewBufferedWriter(w), nil
	case S2:
		return s2.NewWriter(w, mapS2Options(level)...), nil
	case Zstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(mapZstdLevel(level)))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "create zstd writer")
		}
		return zw, nil
	case LZ4:
		lw := lz4.NewWriter(w)
		if err := lw.Apply(lz4.CompressionLevelOption(mapLZ4Level(level))); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "configure lz4 writer")
		}
		return lw, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm %q", string(alg))
	}
}

// NewReader wraps r so that reads return decompressed bytes
func NewReader(r io.Reader, alg Algorithm) (io.ReadCloser, error) {
	switch alg {
	case None, "":
		return io.NopCloser(r), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeEncoding, "open gzip stream")
		}
		return zr, nil
	case Deflate:
		return flate.NewReader(r), nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	case S2:
		return io.NopCloser(s2.NewReader(r)), nil
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeEncoding, "open zstd stream")
		}
		return zr.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm %q", string(alg))
	}
}

// Compress compresses data in memory
func Compress(data []byte, alg Algorithm, level Level) ([]byte, error) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, alg, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeEncoding, "compress")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeEncoding, "compress")
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress
func Decompress(data []byte, alg Algorithm) ([]byte, error) {
	r, err := NewReader(bytes.NewReader(data), alg)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeEncoding, "decompress")
	}
	return out, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// Helper functions to map compression levels

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapDeflateLevel(level Level) int {
	switch level {
	case Fastest:
		return flate.BestSpeed
	case Best:
		return flate.BestCompression
	default:
		return flate.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func mapS2Options(level Level) []s2.WriterOption {
	switch level {
	case Better:
		return []s2.WriterOption{s2.WriterBetterCompression()}
	case Best:
		return []s2.WriterOption{s2.WriterBestCompression()}
	default:
		return nil
	}
}
