// internal/content/load.go
//
// Content loading.
//
// Initialization behavior (Load):
//   1. If path is empty, decode the embedded default document (assets/content.json).
//   2. ".json" files are decoded with the same document shape.
//   3. ".xlsx" and ".csv" files go through the spreadsheet importer.
//
// The server calls Load once at startup with CONTENT_FILE.

package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/robalobadob/pixelwords/assets"
)

// Default decodes the embedded content.
func Default() (*Pool, error) {
	data, err := assets.ContentJSON()
	if err != nil {
		return nil, fmt.Errorf("read embedded content: %w", err)
	}
	return Decode(data)
}

// Load reads content from path, or the embedded default when path is empty.
func Load(path string) (*Pool, error) {
	if path == "" {
		return Default()
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return Decode(data)
	case ".xlsx":
		return ImportExcel(path)
	case ".csv":
		return ImportCSV(path)
	default:
		return nil, fmt.Errorf("content: unsupported file type %q", filepath.Ext(path))
	}
}
