package kotatsu

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// ParserInfo describes one parser from the kotatsu-parsers repository.
type ParserInfo struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Lang   string `json:"lang"`
	Domain string `json:"domain"`
}

var (
	parserAnnotation = regexp.MustCompile(`@MangaSourceParser\(\s*"([^"]+)"\s*,\s*"([^"]+)"(?:\s*,\s*"([^"]*)")?`)
	domainAnnotation = regexp.MustCompile(`ConfigKey\.Domain\(\s*"([^"]+)"`)
)

// NormalizeParsers scans the parser repository archive for parser source
// files and writes the flattened parser list to destPath as JSON. The
// destination is written atomically.
func NormalizeParsers(archivePath, destPath string) error {
	parsers, err := scanParserArchive(archivePath)
	if err != nil {
		return err
	}
	if len(parsers) == 0 {
		return fmt.Errorf("no parser definitions found in %s", archivePath)
	}

	payload, err := json.MarshalIndent(parsers, "", "  ")
	if err != nil {
		return fmt.Errorf("encode parser list: %w", err)
	}

	tmpPath := destPath + ".tmp"
	if err := os.WriteFile(tmpPath, payload, 0o644); err != nil {
		return fmt.Errorf("write parser list: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("finalize parser list: %w", err)
	}
	return nil
}

func scanParserArchive(archivePath string) ([]ParserInfo, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open parser archive: %w", err)
	}
	defer reader.Close()

	var parsers []ParserInfo
	for _, entry := range reader.File {
		if !strings.HasSuffix(entry.Name, ".kt") {
			continue
		}
		file, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("open archive entry %s: %w", entry.Name, err)
		}
		body, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("read archive entry %s: %w", entry.Name, err)
		}
		if parser, ok := parseSourceFile(body); ok {
			parsers = append(parsers, parser)
		}
	}
	return parsers, nil
}

func parseSourceFile(body []byte) (ParserInfo, bool) {
	match := parserAnnotation.FindSubmatch(body)
	if match == nil {
		return ParserInfo{}, false
	}
	parser := ParserInfo{
		Name:  string(match[1]),
		Title: string(match[2]),
	}
	if len(match) > 3 {
		parser.Lang = string(match[3])
	}
	if domain := domainAnnotation.FindSubmatch(body); domain != nil {
		parser.Domain = string(domain[1])
	}
	return parser, true
}

// LoadParsers reads a previously normalized parser list.
func LoadParsers(r io.Reader) ([]ParserInfo, error) {
	var parsers []ParserInfo
	if err := json.NewDecoder(r).Decode(&parsers); err != nil {
		return nil, fmt.Errorf("decode parser list: %w", err)
	}
	return parsers, nil
}

// LoadParsersFile reads a normalized parser list from disk.
func LoadParsersFile(path string) ([]ParserInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parser list: %w", err)
	}
	defer file.Close()
	return LoadParsers(file)
}
