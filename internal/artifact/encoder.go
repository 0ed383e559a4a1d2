package artifact

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

// File is one archive member
type File struct {
	Path    string
	Content string
}

// Encoder turns ordered files into a compressed archive
type Encoder interface {
	Encode(ctx context.Context, files []File) ([]byte, error)
	// Extension returns the archive file extension including the dot
	Extension() string
}

// Archive formats accepted by NewEncoder
const (
	FormatZip   = "zip"
	FormatTarGz = "tar.gz"
)

// NewEncoder returns the encoder for a configured format. Empty means zip.
func NewEncoder(format string) (Encoder, error) {
	switch format {
	case "", FormatZip:
		return &ZipEncoder{}, nil
	case FormatTarGz, "tgz":
		return &TarGzEncoder{}, nil
	default:
		return nil, fmt.Errorf("invalid archive format: %s (must be: zip, tar.gz)", format)
	}
}

// ZipEncoder writes deflate-compressed zip archives
type ZipEncoder struct {
	// ModTime stamps every member; zero means the time of encoding.
	ModTime time.Time
}

// Extension implements Encoder
func (e *ZipEncoder) Extension() string { return ".zip" }

// Encode implements Encoder
func (e *ZipEncoder) Encode(ctx context.Context, files []File) ([]byte, error) {
	modTime := e.ModTime
	if modTime.IsZero() {
		modTime = time.Now()
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.Path == "" {
			return nil, fmt.Errorf("empty archive path")
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Path,
			Method:   zip.Deflate,
			Modified: modTime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to write header for %s: %w", f.Path, err)
		}
		if _, err := w.Write([]byte(f.Content)); err != nil {
			return nil, fmt.Errorf("failed to write content for %s: %w", f.Path, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize zip: %w", err)
	}
	return buf.Bytes(), nil
}

// TarGzEncoder writes gzip-compressed tarballs
type TarGzEncoder struct {
	ModTime time.Time
}

// Extension implements Encoder
func (e *TarGzEncoder) Extension() string { return ".tar.gz" }

// Encode implements Encoder
func (e *TarGzEncoder) Encode(ctx context.Context, files []File) ([]byte, error) {
	modTime := e.ModTime
	if modTime.IsZero() {
		modTime = time.Now()
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.Path == "" {
			return nil, fmt.Errorf("empty archive path")
		}

		header := &tar.Header{
			Name:     f.Path,
			Size:     int64(len(f.Content)),
			Mode:     0644,
			ModTime:  modTime,
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(header); err != nil {
			return nil, fmt.Errorf("failed to write header for %s: %w", f.Path, err)
		}
		if _, err := tw.Write([]byte(f.Content)); err != nil {
			return nil, fmt.Errorf("failed to write content for %s: %w", f.Path, err)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize tar: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize gzip: %w", err)
	}
	return buf.Bytes(), nil
}
