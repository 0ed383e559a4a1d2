// Package artifact derives the downloadable JSON and archive artifacts from a
// completed content mapping.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/pders01/stackpack/internal/models"
)

// EncodeFailure reports that the archive encoder could not produce a blob
type EncodeFailure struct {
	Format string
	Err    error
}

func (e *EncodeFailure) Error() string {
	return fmt.Sprintf("failed to encode %s archive: %v", e.Format, e.Err)
}

func (e *EncodeFailure) Unwrap() error { return e.Err }

// EncodeJSON writes the mapping as a two-space indented object, keys in
// mapping order
func EncodeJSON(mapping *models.ContentMapping) ([]byte, error) {
	if mapping == nil {
		mapping = models.NewContentMapping()
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(mapping); err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeJSON parses a JSON artifact back into a mapping
func DecodeJSON(data []byte) (*models.ContentMapping, error) {
	mapping := models.NewContentMapping()
	if err := json.Unmarshal(data, mapping); err != nil {
		return nil, fmt.Errorf("failed to parse JSON artifact: %w", err)
	}
	return mapping, nil
}

// Files lists the mapping as archive members in mapping order
func Files(mapping *models.ContentMapping) []File {
	files := make([]File, 0, mapping.Len())
	mapping.Each(func(path, content string) {
		files = append(files, File{Path: path, Content: content})
	})
	return files
}

// Build produces both artifacts from mapping. Either both are returned or
// neither: an encoder failure discards the JSON already built.
func Build(ctx context.Context, mapping *models.ContentMapping, enc Encoder) (*models.Artifacts, error) {
	if mapping == nil {
		mapping = models.NewContentMapping()
	}

	jsonData, err := EncodeJSON(mapping)
	if err != nil {
		return nil, err
	}

	archive, err := enc.Encode(ctx, Files(mapping))
	if err != nil {
		return nil, &EncodeFailure{Format: enc.Extension(), Err: err}
	}

	return &models.Artifacts{
		JSON:        jsonData,
		Archive:     archive,
		JSONName:    models.JSONFileName,
		ArchiveName: models.ArchiveBaseName + enc.Extension(),
		FileCount:   mapping.Len(),
	}, nil
}
