package dataset

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// MigrateLegacy converts the pre-envelope artifact format into a Store.
// The legacy format was a bare JSON array with long field names
// (id/title/year/popularity); year could be null or missing. Entries
// without a numeric id are rejected rather than dropped: migration is a
// one-shot transform and silent loss would go unnoticed forever.
func MigrateLegacy(raw []byte) (Store, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("legacy artifact is not valid JSON")
	}

	root := gjson.ParseBytes(raw)
	arr := root
	if root.IsObject() {
		// Tolerate a half-migrated file that already has the envelope.
		arr = root.Get("entries")
	}
	if !arr.IsArray() {
		return nil, errors.New("legacy artifact is not an array of records")
	}

	store := Store{}
	var convErr error
	arr.ForEach(func(_, v gjson.Result) bool {
		id := v.Get("id")
		if !id.Exists() {
			id = v.Get("i")
		}
		if !id.Exists() || id.Type != gjson.Number {
			convErr = fmt.Errorf("legacy record without numeric id: %s", v.Raw)
			return false
		}

		title := v.Get("title")
		if !title.Exists() {
			title = v.Get("t")
		}
		pop := v.Get("popularity")
		if !pop.Exists() {
			pop = v.Get("p")
		}

		var year *int
		y := v.Get("year")
		if !y.Exists() {
			y = v.Get("y")
		}
		if y.Exists() && y.Type == gjson.Number {
			yv := int(y.Int())
			year = &yv
		}

		store[id.Int()] = Record{
			ID:         id.Int(),
			Title:      title.String(),
			Year:       year,
			Popularity: Round2(pop.Float()),
		}
		return true
	})
	if convErr != nil {
		return nil, convErr
	}
	return store, nil
}
