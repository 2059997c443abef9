package ppm

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/ironsheep/ppmfill/internal/raster"
)

// Compression identifies the container a PPM file is stored in.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	}
	return "none"
}

// CompressionFor picks the compression from a file name: ".gz" selects gzip,
// ".zst" selects zstd, anything else is read and written as plain PPM.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return Gzip
	case ".zst":
		return Zstd
	}
	return None
}

// ReadFile opens path, decompressing it if its extension asks for that, and
// decodes the PPM image it contains.
func ReadFile(path string, maxPixels int) (*raster.Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	switch CompressionFor(path) {
	case Gzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer zr.Close()
		r = zr
	case Zstd:
		zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	m, err := Decoder{MaxPixels: maxPixels}.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return m, nil
}

// WriteFile encodes m to path, compressing by extension like ReadFile.
//
// The image is written to a temporary file in the same directory and renamed
// over path only after every byte has been flushed, so a failed write leaves
// an existing file untouched. m is released only when the whole write
// succeeds. An existing file keeps its permission bits.
func WriteFile(path string, m *raster.Raster) (err error) {
	mode := os.FileMode(0o644)
	if st, statErr := os.Stat(path); statErr == nil {
		mode = st.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = writeCompressed(tmp, CompressionFor(path), m); err != nil {
		return err
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	m.Release()
	return nil
}

func writeCompressed(w io.Writer, c Compression, m *raster.Raster) error {
	switch c {
	case Gzip:
		zw := gzip.NewWriter(w)
		if err := encode(zw, m); err != nil {
			zw.Close()
			return fmt.Errorf("failed to encode image: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("failed to finish gzip stream: %w", err)
		}
	case Zstd:
		zw, err := zstd.NewWriter(w,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		)
		if err != nil {
			return fmt.Errorf("failed to open zstd stream: %w", err)
		}
		if err := encode(zw, m); err != nil {
			zw.Close()
			return fmt.Errorf("failed to encode image: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("failed to finish zstd stream: %w", err)
		}
	default:
		if err := encode(w, m); err != nil {
			return fmt.Errorf("failed to encode image: %w", err)
		}
	}
	return nil
}
