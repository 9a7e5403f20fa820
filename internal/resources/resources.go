// Package resources defines the static table of remote datasets a
// conversion depends on. Other components look resources up here instead of
// hard-coding URLs or cache file names.
package resources

import (
	"errors"
	"fmt"
)

// Resource keys. The key is the stable identifier correlating settings
// overrides, cache files, and CLI entries.
const (
	KeySources = "sources"
	KeyParsers = "parsers"
	KeyScript  = "script"
)

// ErrUnknownResource reports a lookup for a key outside the schema.
var ErrUnknownResource = errors.New("unknown resource")

// Descriptor describes one remote dataset needed for conversion.
type Descriptor struct {
	Key           string
	DefaultURL    string
	CacheFileName string
	DisplayTitle  string
	// DerivedFileName names the file a post-download transform produces
	// from the cached download. Empty for resources consumed as-is.
	DerivedFileName string
	// Optional resources may be absent at conversion time.
	Optional bool
}

var descriptors = []Descriptor{
	{
		Key:           KeySources,
		DefaultURL:    "https://raw.githubusercontent.com/keiyoushi/extensions/repo/index.min.json",
		CacheFileName: "tachiyomi_sources.json",
		DisplayTitle:  "Tachiyomi source list",
	},
	{
		Key:             KeyParsers,
		DefaultURL:      "https://github.com/KotatsuApp/kotatsu-parsers/archive/refs/heads/master.zip",
		CacheFileName:   "kotatsu_parsers.zip",
		DisplayTitle:    "Kotatsu parsers repository",
		DerivedFileName: "kotatsu_parsers.json",
	},
	{
		Key:           KeyScript,
		CacheFileName: "correction_script.txt",
		DisplayTitle:  "Correction script",
		Optional:      true,
	},
}

// All returns the descriptors in their fixed, deterministic order.
func All() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Lookup returns the descriptor for key.
func Lookup(key string) (Descriptor, error) {
	for _, desc := range descriptors {
		if desc.Key == key {
			return desc, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownResource, key)
}

// ByFileName returns the descriptor whose cache file name matches name.
func ByFileName(name string) (Descriptor, bool) {
	for _, desc := range descriptors {
		if desc.CacheFileName == name {
			return desc, true
		}
	}
	return Descriptor{}, false
}
