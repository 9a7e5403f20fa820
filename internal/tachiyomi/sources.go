package tachiyomi

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Source is one extension source entry from the catalog. The catalog encodes
// the numeric source ID as a decimal string.
type Source struct {
	ID      int64
	Name    string
	Lang    string
	BaseURL string
}

type catalogExtension struct {
	Name    string          `json:"name"`
	Pkg     string          `json:"pkg"`
	Lang    string          `json:"lang"`
	Sources []catalogSource `json:"sources"`
}

type catalogSource struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	BaseURL string `json:"baseUrl"`
}

// SourceCatalog maps a Tachiyomi source ID to its catalog entry.
type SourceCatalog map[int64]Source

// LoadSourceCatalog parses an extension index and flattens it into a lookup
// by source ID. Entries with malformed IDs are skipped.
func LoadSourceCatalog(r io.Reader) (SourceCatalog, error) {
	var extensions []catalogExtension
	if err := json.NewDecoder(r).Decode(&extensions); err != nil {
		return nil, fmt.Errorf("decode source catalog: %w", err)
	}

	catalog := make(SourceCatalog)
	for _, ext := range extensions {
		for _, src := range ext.Sources {
			id, err := strconv.ParseInt(src.ID, 10, 64)
			if err != nil {
				continue
			}
			catalog[id] = Source{
				ID:      id,
				Name:    src.Name,
				Lang:    src.Lang,
				BaseURL: src.BaseURL,
			}
		}
	}
	return catalog, nil
}

// LoadSourceCatalogFile parses an extension index file on disk.
func LoadSourceCatalogFile(path string) (SourceCatalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source catalog: %w", err)
	}
	defer file.Close()
	return LoadSourceCatalog(file)
}
