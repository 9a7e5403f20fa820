// Package kotatsu produces Kotatsu-side backup data: the record types the
// archive carries, the parser list derived from the parsers repository, and
// the converter that maps a Tachiyomi library onto them.
package kotatsu

import "time"

// AppID identifies this tool in generated index entries.
const AppID = "nekotatsu"

// MangaRecord is the manga payload embedded in favourites, history, and
// bookmark entries.
type MangaRecord struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	AltTitle      *string  `json:"alt_title"`
	URL           string   `json:"url"`
	PublicURL     string   `json:"public_url"`
	Rating        float64  `json:"rating"`
	NSFW          bool     `json:"nsfw"`
	CoverURL      string   `json:"cover_url"`
	LargeCoverURL *string  `json:"large_cover_url"`
	State         *string  `json:"state"`
	Author        *string  `json:"author"`
	Source        string   `json:"source"`
	Tags          []string `json:"tags"`
}

// History is one reading-progress entry.
type History struct {
	MangaID   int64       `json:"manga_id"`
	CreatedAt int64       `json:"created_at"`
	UpdatedAt int64       `json:"updated_at"`
	ChapterID int64       `json:"chapter_id"`
	Page      int64       `json:"page"`
	Scroll    float64     `json:"scroll"`
	Percent   float64     `json:"percent"`
	Manga     MangaRecord `json:"manga"`
}

// Category is one library category definition.
type Category struct {
	ID        int64  `json:"category_id"`
	CreatedAt int64  `json:"created_at"`
	SortKey   int    `json:"sort_key"`
	Title     string `json:"title"`
	Order     string `json:"order"`
	Track     bool   `json:"track"`
	ShowInLib bool   `json:"show_in_lib"`
}

// Favourite places a manga into a category.
type Favourite struct {
	MangaID    int64       `json:"manga_id"`
	CategoryID int64       `json:"category_id"`
	SortKey    int         `json:"sort_key"`
	CreatedAt  int64       `json:"created_at"`
	Manga      MangaRecord `json:"manga"`
}

// Bookmark marks a page within a chapter.
type Bookmark struct {
	MangaID   int64       `json:"manga_id"`
	PageID    int64       `json:"page_id"`
	ChapterID int64       `json:"chapter_id"`
	Page      int64       `json:"page"`
	Scroll    int64       `json:"scroll"`
	ImageURL  string      `json:"image_url"`
	CreatedAt int64       `json:"created_at"`
	Percent   float64     `json:"percent"`
	Manga     MangaRecord `json:"manga"`
}

// IndexEntry records which application produced the archive and when.
type IndexEntry struct {
	AppID      string `json:"app_id"`
	AppVersion string `json:"app_version"`
	CreatedAt  int64  `json:"created_at"`
}

// Result is the full output of one conversion run.
type Result struct {
	History    []History
	Categories []Category
	Favourites []Favourite
	Bookmarks  []Bookmark
}

// GenerateIndex builds the index entry stamped into every archive.
func GenerateIndex(appVersion string, now time.Time) IndexEntry {
	return IndexEntry{
		AppID:      AppID,
		AppVersion: appVersion,
		CreatedAt:  now.UnixMilli(),
	}
}

// ID computes the Kotatsu identifier for a string key. Kotatsu derives entity
// IDs from a polynomial rolling hash over the key, seeded with a large prime;
// identifiers must match what the app itself would compute for the same key.
func ID(key string) int64 {
	h := int64(1125899906842597)
	for _, r := range key {
		h = 31*h + int64(r)
	}
	return h
}
