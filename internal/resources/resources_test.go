package resources

import (
	"errors"
	"testing"
)

func TestAllIsStableAcrossCalls(t *testing.T) {
	first := All()
	second := All()

	if len(first) == 0 {
		t.Fatal("expected at least one descriptor")
	}
	if len(first) != len(second) {
		t.Fatalf("descriptor count changed between calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("descriptor %d differs between calls: %#v vs %#v", i, first[i], second[i])
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	mutated := All()
	mutated[0].CacheFileName = "clobbered"

	if All()[0].CacheFileName == "clobbered" {
		t.Fatal("All must not expose internal state")
	}
}

func TestCacheFileNamesAreUnique(t *testing.T) {
	seen := make(map[string]string)
	for _, desc := range All() {
		if prev, ok := seen[desc.CacheFileName]; ok {
			t.Fatalf("cache file %q shared by %q and %q", desc.CacheFileName, prev, desc.Key)
		}
		seen[desc.CacheFileName] = desc.Key
	}
}

func TestLookup(t *testing.T) {
	desc, err := Lookup(KeyParsers)
	if err != nil {
		t.Fatalf("Lookup parsers: %v", err)
	}
	if desc.CacheFileName != "kotatsu_parsers.zip" {
		t.Fatalf("unexpected cache file: %s", desc.CacheFileName)
	}
	if desc.DerivedFileName == "" {
		t.Fatal("parsers descriptor should name a derived file")
	}

	if _, err := Lookup("bogus"); !errors.Is(err, ErrUnknownResource) {
		t.Fatalf("expected ErrUnknownResource, got %v", err)
	}
}

func TestByFileName(t *testing.T) {
	desc, ok := ByFileName("kotatsu_parsers.zip")
	if !ok || desc.Key != KeyParsers {
		t.Fatalf("expected parsers descriptor, got %#v ok=%v", desc, ok)
	}
	if _, ok := ByFileName("nope.bin"); ok {
		t.Fatal("expected miss for unknown file name")
	}
}
