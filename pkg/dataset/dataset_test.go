package dataset

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"testing"
)

func intPtr(v int) *int { return &v }

func sampleStore() Store {
	return Store{
		1: {ID: 1, Title: "A", Year: intPtr(1999), Popularity: 5.5},
		2: {ID: 2, Title: "B", Year: nil, Popularity: 80.25},
		3: {ID: 3, Title: "C", Year: intPtr(2021), Popularity: 0.75},
	}
}

func TestRound2(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{7.777, 7.78},
		{5.0, 5.0},
		{0.004, 0.0},
		{81.347, 81.35},
	}
	for _, c := range cases {
		if got := Round2(c.in); got != c.want {
			t.Errorf("Round2(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := sampleStore()

	if err := Save(dir, Movie, store, false); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(dir, Movie)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != len(store) {
		t.Fatalf("expected %d records, got %d", len(store), len(loaded))
	}
	for id, want := range store {
		got, ok := loaded[id]
		if !ok {
			t.Fatalf("record %d missing after round trip", id)
		}
		if got.Title != want.Title || got.Popularity != want.Popularity {
			t.Errorf("record %d = %+v, want %+v", id, got, want)
		}
		if (got.Year == nil) != (want.Year == nil) {
			t.Errorf("record %d year nil-ness changed", id)
		}
		if got.Year != nil && want.Year != nil && *got.Year != *want.Year {
			t.Errorf("record %d year = %d, want %d", id, *got.Year, *want.Year)
		}
	}
}

func TestSaveOrdersByDescendingPopularity(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, Movie, sampleStore(), false); err != nil {
		t.Fatalf("save: %v", err)
	}

	artifact, err := ReadArtifact(dir, Movie)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if artifact.Count != 3 || len(artifact.Entries) != 3 {
		t.Fatalf("expected count 3, got count=%d entries=%d", artifact.Count, len(artifact.Entries))
	}
	for i := 1; i < len(artifact.Entries); i++ {
		if artifact.Entries[i-1].Popularity < artifact.Entries[i].Popularity {
			t.Fatalf("entries not sorted by descending popularity: %v", artifact.Entries)
		}
	}
	if artifact.GeneratedAt.IsZero() {
		t.Error("generated_at not set")
	}
}

func TestFinalSaveWritesCompressedCopy(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, Series, sampleStore(), false); err != nil {
		t.Fatalf("save: %v", err)
	}

	f, err := os.Open(Path(dir, Series) + ".gz")
	if err != nil {
		t.Fatalf("compressed copy missing: %v", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	var a Artifact
	if err := json.NewDecoder(zr).Decode(&a); err != nil {
		t.Fatalf("decode compressed copy: %v", err)
	}
	if a.Count != 3 {
		t.Errorf("compressed copy count = %d, want 3", a.Count)
	}
}

func TestCheckpointSaveSkipsCompression(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, Movie, sampleStore(), true); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(Path(dir, Movie)); err != nil {
		t.Fatalf("primary artifact missing after checkpoint: %v", err)
	}
	if _, err := os.Stat(Path(dir, Movie) + ".gz"); !os.IsNotExist(err) {
		t.Fatalf("checkpoint should not produce a compressed copy, stat err = %v", err)
	}
}

func TestSaveOverwritesPriorArtifact(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, Movie, sampleStore(), true); err != nil {
		t.Fatalf("first save: %v", err)
	}
	small := Store{9: {ID: 9, Title: "Z", Popularity: 1}}
	if err := Save(dir, Movie, small, true); err != nil {
		t.Fatalf("second save: %v", err)
	}
	loaded, err := Load(dir, Movie)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected full overwrite, got %d records", len(loaded))
	}
}

func TestLoadMissingArtifactIsEmptyStore(t *testing.T) {
	store, err := Load(t.TempDir(), Movie)
	if err != nil {
		t.Fatalf("first run load should not fail: %v", err)
	}
	if len(store) != 0 {
		t.Fatalf("expected empty store, got %d records", len(store))
	}
}

func TestLoadCorruptArtifactFails(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(Path(dir, Movie), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir, Movie); err == nil {
		t.Fatal("expected error for corrupt artifact")
	}
}
