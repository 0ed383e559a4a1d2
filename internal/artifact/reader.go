package artifact

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"

	"github.com/pders01/stackpack/internal/models"
)

// ReadZip extracts every regular member of a zip archive
func ReadZip(data []byte) (*models.ContentMapping, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}

	mapping := models.NewContentMapping()
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		mapping.Set(f.Name, string(content))
	}
	return mapping, nil
}

// ReadTarGz extracts every regular member of a gzip-compressed tarball
func ReadTarGz(data []byte) (*models.ContentMapping, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip: %w", err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	mapping := models.NewContentMapping()
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		mapping.Set(header.Name, string(content))
	}
	return mapping, nil
}

// ReadArchive picks the reader matching an encoder extension
func ReadArchive(ext string, data []byte) (*models.ContentMapping, error) {
	switch ext {
	case ".zip":
		return ReadZip(data)
	case ".tar.gz":
		return ReadTarGz(data)
	default:
		return nil, fmt.Errorf("unsupported archive extension: %s", ext)
	}
}
