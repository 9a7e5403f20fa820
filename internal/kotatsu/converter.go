package kotatsu

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"nekotatsu/internal/tachiyomi"
)

// libraryCategoryID is reserved for the default category every favourite
// joins; backup categories are numbered after it.
const libraryCategoryID = 1

// Converter maps a Tachiyomi backup onto Kotatsu records using the source
// catalog and the normalized parser list.
type Converter struct {
	catalog     tachiyomi.SourceCatalog
	byDomain    map[string]ParserInfo
	corrections map[string]string
	titleCaser  cases.Caser
	now         func() time.Time
}

// Stats summarizes one conversion run.
type Stats struct {
	MangaConverted int
	MangaSkipped   int
}

// NewConverter builds a converter from a normalized parser list and a source
// catalog index.
func NewConverter(parsersFile, sourcesFile io.Reader) (*Converter, error) {
	parsers, err := LoadParsers(parsersFile)
	if err != nil {
		return nil, err
	}
	catalog, err := tachiyomi.LoadSourceCatalog(sourcesFile)
	if err != nil {
		return nil, err
	}

	byDomain := make(map[string]ParserInfo, len(parsers))
	for _, parser := range parsers {
		if parser.Domain == "" {
			continue
		}
		byDomain[normalizeDomain(parser.Domain)] = parser
	}

	return &Converter{
		catalog:     catalog,
		byDomain:    byDomain,
		corrections: map[string]string{},
		titleCaser:  cases.Title(language.Und),
		now:         time.Now,
	}, nil
}

// AttachCorrectionScript loads source-to-parser correction rules. Each line
// has the form "source name => PARSER_NAME"; blank lines and lines starting
// with # are ignored.
func (c *Converter) AttachCorrectionScript(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		parts := strings.SplitN(text, "=>", 2)
		if len(parts) != 2 {
			return fmt.Errorf("correction script line %d: expected \"source => parser\", got %q", line, text)
		}
		source := strings.ToLower(strings.TrimSpace(parts[0]))
		parser := strings.TrimSpace(parts[1])
		if source == "" || parser == "" {
			return fmt.Errorf("correction script line %d: empty side in %q", line, text)
		}
		c.corrections[source] = parser
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read correction script: %w", err)
	}
	return nil
}

// ConvertBackup converts a decoded backup into Kotatsu records. Manga whose
// source cannot be matched to a parser are skipped with a warning.
func (c *Converter) ConvertBackup(backup *tachiyomi.Backup, libraryName string, logger *slog.Logger) (*Result, Stats) {
	now := c.now().UnixMilli()
	result := &Result{}
	stats := Stats{}

	result.Categories = append(result.Categories, Category{
		ID:        libraryCategoryID,
		CreatedAt: now,
		SortKey:   0,
		Title:     c.titleCaser.String(libraryName),
		Order:     "NEWEST",
		Track:     true,
		ShowInLib: true,
	})
	categoryIDs := make(map[int64]int64, len(backup.Categories))
	for i, category := range backup.Categories {
		id := int64(libraryCategoryID + 1 + i)
		categoryIDs[category.Order] = id
		result.Categories = append(result.Categories, Category{
			ID:        id,
			CreatedAt: now,
			SortKey:   i + 1,
			Title:     c.titleCaser.String(category.Name),
			Order:     "NEWEST",
			Track:     true,
			ShowInLib: true,
		})
	}

	for _, manga := range backup.Manga {
		parser, ok := c.resolveParser(manga, logger)
		if !ok {
			stats.MangaSkipped++
			continue
		}
		record := c.buildRecord(manga, parser)
		stats.MangaConverted++

		if manga.Favorite {
			result.Favourites = append(result.Favourites, Favourite{
				MangaID:    record.ID,
				CategoryID: libraryCategoryID,
				SortKey:    0,
				CreatedAt:  now,
				Manga:      record,
			})
			for _, order := range manga.Categories {
				id, ok := categoryIDs[order]
				if !ok {
					logger.Warn("backup references unknown category",
						slog.String("manga", manga.Title),
						slog.Int64("category_order", order))
					continue
				}
				result.Favourites = append(result.Favourites, Favourite{
					MangaID:    record.ID,
					CategoryID: id,
					SortKey:    0,
					CreatedAt:  now,
					Manga:      record,
				})
			}
		}

		if entry, ok := c.buildHistory(manga, parser, record); ok {
			result.History = append(result.History, entry)
		}
		result.Bookmarks = append(result.Bookmarks, c.buildBookmarks(manga, parser, record, now)...)

		logger.Debug("converted manga",
			slog.String("manga", manga.Title),
			slog.String("parser", parser.Name))
	}

	return result, stats
}

func (c *Converter) resolveParser(manga tachiyomi.Manga, logger *slog.Logger) (ParserInfo, bool) {
	source, ok := c.catalog[manga.Source]
	if !ok {
		logger.Warn("source id missing from catalog",
			slog.String("manga", manga.Title),
			slog.Int64("source_id", manga.Source))
		return ParserInfo{}, false
	}

	if name, ok := c.corrections[strings.ToLower(source.Name)]; ok {
		for _, parser := range c.byDomain {
			if parser.Name == name {
				return parser, true
			}
		}
		logger.Warn("correction rule names unknown parser",
			slog.String("manga", manga.Title),
			slog.String("parser", name))
		return ParserInfo{}, false
	}

	domain := normalizeDomain(source.BaseURL)
	if parser, ok := c.byDomain[domain]; ok {
		return parser, true
	}
	logger.Warn("no parser for source",
		slog.String("manga", manga.Title),
		slog.String("source", source.Name),
		slog.String("domain", domain))
	return ParserInfo{}, false
}

func (c *Converter) buildRecord(manga tachiyomi.Manga, parser ParserInfo) MangaRecord {
	source := c.catalog[manga.Source]
	record := MangaRecord{
		ID:        ID(parser.Name + manga.URL),
		Title:     manga.Title,
		URL:       manga.URL,
		PublicURL: strings.TrimSuffix(source.BaseURL, "/") + manga.URL,
		CoverURL:  manga.ThumbnailURL,
		Source:    parser.Name,
		Tags:      []string{},
	}
	if manga.Author != "" {
		author := manga.Author
		record.Author = &author
	}
	if len(manga.Genre) > 0 {
		record.Tags = append(record.Tags, manga.Genre...)
	}
	return record
}

func (c *Converter) buildHistory(manga tachiyomi.Manga, parser ParserInfo, record MangaRecord) (History, bool) {
	if len(manga.History) == 0 || len(manga.Chapters) == 0 {
		return History{}, false
	}

	lastRead := manga.History[0].LastRead
	for _, entry := range manga.History[1:] {
		if entry.LastRead > lastRead {
			lastRead = entry.LastRead
		}
	}

	chapters := append([]tachiyomi.Chapter(nil), manga.Chapters...)
	sort.Slice(chapters, func(i, j int) bool {
		return chapters[i].ChapterNumber < chapters[j].ChapterNumber
	})
	var latest *tachiyomi.Chapter
	for i := range chapters {
		if chapters[i].Read {
			latest = &chapters[i]
		}
	}
	if latest == nil {
		return History{}, false
	}

	maxNumber := chapters[len(chapters)-1].ChapterNumber
	percent := 0.0
	if maxNumber > 0 {
		percent = latest.ChapterNumber / maxNumber
	}

	return History{
		MangaID:   record.ID,
		CreatedAt: lastRead,
		UpdatedAt: lastRead,
		ChapterID: ID(parser.Name + latest.URL),
		Page:      latest.LastPageRead,
		Percent:   percent,
		Manga:     record,
	}, true
}

func (c *Converter) buildBookmarks(manga tachiyomi.Manga, parser ParserInfo, record MangaRecord, now int64) []Bookmark {
	var bookmarks []Bookmark
	for _, chapter := range manga.Chapters {
		if !chapter.Bookmark {
			continue
		}
		bookmarks = append(bookmarks, Bookmark{
			MangaID:   record.ID,
			ChapterID: ID(parser.Name + chapter.URL),
			Page:      chapter.LastPageRead,
			CreatedAt: now,
			Manga:     record,
		})
	}
	return bookmarks
}

func normalizeDomain(raw string) string {
	host := raw
	if strings.Contains(raw, "://") {
		if parsed, err := url.Parse(raw); err == nil && parsed.Host != "" {
			host = parsed.Host
		}
	}
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	return strings.TrimSuffix(host, "/")
}
