// internal/app/system/paging/paging.go

// Package paging implements keyset pagination for newest-first feeds.
// Cursors encode the sort key and document id of the boundary row, so a
// page stays stable while new rows are inserted ahead of it.
package paging

import (
	"net/http"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the default number of rows per page.
// Kept as an int because call sites add/subtract and then cast to int64
// for Mongo Find().SetLimit().
const PageSize = 50

// LimitPlusOne returns PageSize+1 as int64 for look-ahead pagination
// (fetch one extra document to detect hasNext).
func LimitPlusOne() int64 { return int64(PageSize + 1) }

// ParseCursors extracts the "before" and "after" cursor query parameters.
// At most one is honored; "before" wins when both are present.
func ParseCursors(r *http.Request) (before, after string) {
	before = query.Get(r, "before")
	if before != "" {
		return before, ""
	}
	return "", query.Get(r, "after")
}

// Direction indicates where the requested page sits relative to the cursor.
type Direction int

const (
	// Older pages continue down the feed: sort descending, window "lt".
	Older Direction = iota
	// Newer pages walk back up: sort ascending, window "gt", then Reverse.
	Newer
)

// KeysetConfig holds the decoded cursor and the query shape derived from it.
type KeysetConfig struct {
	Direction Direction
	SortOrder int // -1 for descending (older), 1 for ascending (newer)
	Cursor    *wafflemongo.Cursor
}

// ConfigureKeyset determines pagination direction and decodes the cursor.
// With no cursor the first (newest) page is served.
func ConfigureKeyset(before, after string) KeysetConfig {
	cfg := KeysetConfig{
		Direction: Older,
		SortOrder: -1,
	}

	if before != "" {
		cfg.Direction = Newer
		cfg.SortOrder = 1
		if c, ok := wafflemongo.DecodeCursor(before); ok {
			cfg.Cursor = &c
		}
	} else if after != "" {
		if c, ok := wafflemongo.DecodeCursor(after); ok {
			cfg.Cursor = &c
		}
	}

	return cfg
}

// ApplyToFind configures FindOptions with sort and limit for keyset
// pagination over sortField.
func (cfg KeysetConfig) ApplyToFind(find *options.FindOptions, sortField string) {
	find.SetSort(bson.D{
		{Key: sortField, Value: cfg.SortOrder},
		{Key: "_id", Value: cfg.SortOrder},
	}).SetLimit(LimitPlusOne())
}

// KeysetWindow returns the cursor condition for the query filter.
// Returns nil if no cursor is set.
func (cfg KeysetConfig) KeysetWindow(sortField string) bson.M {
	if cfg.Cursor == nil {
		return nil
	}
	dir := "lt"
	if cfg.Direction == Newer {
		dir = "gt"
	}
	return wafflemongo.KeysetWindow(sortField, dir, cfg.Cursor.CI, cfg.Cursor.ID)
}

// Result holds the output of TrimPage.
type Result struct {
	HasPrev bool
	HasNext bool
}

// TrimPage trims a slice fetched with LimitPlusOne down to PageSize.
// Call this after the Find. It modifies the slice in place and returns
// pagination indicators.
//
// Walking newer (before != ""):
//   - If len > PageSize, trim the last element (a newer page exists)
//   - HasNext is always true (we came from somewhere)
//
// Walking older or on the first page:
//   - If len > PageSize, trim to PageSize (an older page exists)
//   - HasPrev is true only if after != ""
func TrimPage[T any](rows *[]T, before, after string) Result {
	orig := len(*rows)
	var hasPrev, hasNext bool

	if before != "" {
		if orig > PageSize {
			*rows = (*rows)[:PageSize]
			hasPrev = true
		}
		hasNext = true
	} else {
		if orig > PageSize {
			*rows = (*rows)[:PageSize]
			hasNext = true
		}
		hasPrev = after != ""
	}

	return Result{HasPrev: hasPrev, HasNext: hasNext}
}

// Reverse reverses a slice in place. Use this after fetching a "newer"
// page to restore newest-first display order.
func Reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

// BuildCursors creates prev/next cursor strings from the first and last
// elements of a newest-first page. keyFn extracts the sort key from an
// element; idFn extracts the ObjectID.
func BuildCursors[T any](rows []T, keyFn func(T) string, idFn func(T) primitive.ObjectID) (prev, next string) {
	if len(rows) == 0 {
		return "", ""
	}
	first := rows[0]
	last := rows[len(rows)-1]
	prev = wafflemongo.EncodeCursor(keyFn(first), idFn(first))
	next = wafflemongo.EncodeCursor(keyFn(last), idFn(last))
	return prev, next
}
