package dataset

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ItemType selects one of the two independent datasets. Movies and
// series share an id space on the provider side but are never mixed.
type ItemType string

const (
	Movie  ItemType = "movie"
	Series ItemType = "series"
)

// Record is one enriched entry of the dataset. The short JSON keys keep
// the serialized artifact small; Year is a pointer so "unknown" survives
// a round trip as null.
type Record struct {
	ID         int64   `json:"i"`
	Title      string  `json:"t"`
	Year       *int    `json:"y"`
	Popularity float64 `json:"p"`
}

// Store is the in-memory dataset, keyed by provider id.
type Store map[int64]Record

// Artifact is the on-disk envelope. Entries are ordered by descending
// popularity, which compresses better; readers must not rely on order.
type Artifact struct {
	GeneratedAt time.Time `json:"generated_at"`
	Count       int       `json:"count"`
	Entries     []Record  `json:"entries"`
}

// Round2 rounds a popularity score to two decimal places.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Path returns the primary artifact path for an item type.
func Path(dataDir string, itemType ItemType) string {
	return filepath.Join(dataDir, string(itemType)+".json")
}

// Load reads the persisted dataset for an item type. A missing artifact
// is a normal first-run condition and yields an empty store.
func Load(dataDir string, itemType ItemType) (Store, error) {
	path := Path(dataDir, itemType)
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Store{}, nil
	}
	if err != nil {
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	store := make(Store, len(a.Entries))
	for _, r := range a.Entries {
		store[r.ID] = r
	}
	return store, nil
}

// ReadArtifact reads the full envelope, including its generation
// metadata. Used by operator commands; the reconciliation path only
// needs Load.
func ReadArtifact(dataDir string, itemType ItemType) (*Artifact, error) {
	path := Path(dataDir, itemType)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &a, nil
}

// Save serializes the store to the primary artifact, fully overwriting
// any previous one. Checkpoint saves exist purely for crash recovery
// and skip the compressed copy; a final save also writes the .gz
// distribution artifact next to the primary one.
func Save(dataDir string, itemType ItemType, store Store, checkpoint bool) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	entries := make([]Record, 0, len(store))
	for _, r := range store {
		entries = append(entries, r)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Popularity > entries[j].Popularity
	})

	a := Artifact{
		GeneratedAt: time.Now().UTC(),
		Count:       len(entries),
		Entries:     entries,
	}
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}

	path := Path(dataDir, itemType)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if checkpoint {
		return nil
	}

	gzPath := path + ".gz"
	f, err := os.Create(gzPath)
	if err != nil {
		return fmt.Errorf("write %s: %w", gzPath, err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write(b); err != nil {
		zw.Close()
		f.Close()
		return fmt.Errorf("compress %s: %w", gzPath, err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("compress %s: %w", gzPath, err)
	}
	return f.Close()
}
