package model

import (
	"cmp"
	"slices"
)

const DefaultQuantity = 1

type Item struct {
	ID        string    `json:"id"`
	GroupCode string    `json:"group_code"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Bought    bool      `json:"bought"`
	CreatedAt Timestamp `json:"created_at"`
}

// HistoryRecord mirrors an item at creation time. ItemID links it back to the
// originating item; records written by older clients carry an empty ItemID.
type HistoryRecord struct {
	ID        string    `json:"id"`
	GroupCode string    `json:"group_code"`
	ItemID    string    `json:"item_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Bought    bool      `json:"bought"`
	Deleted   bool      `json:"deleted"`
	CreatedAt Timestamp `json:"created_at"`
}

// Snapshot is the full materialized state of a group's live list. Version
// increases with every change to the list, so of two snapshots of the same
// group the one with the higher Version is newer.
type Snapshot struct {
	GroupCode string    `json:"group_code"`
	Version   int64     `json:"version"`
	Items     []Item    `json:"items"`
	At        Timestamp `json:"at"`
}

// Supersedes reports whether s may replace prev in a view. Snapshots of
// another group always do; snapshots of the same group must not be older.
func (s *Snapshot) Supersedes(prev *Snapshot) bool {
	if prev == nil || s.GroupCode != prev.GroupCode {
		return true
	}
	return s.Version >= prev.Version
}

// SortItems orders items ascending by creation time.
func SortItems(items []Item) {
	slices.SortFunc(items, func(a, b Item) int {
		return a.CreatedAt.Compare(b.CreatedAt.Time)
	})
}

// NormalizeItems applies the read-side defaults and ordering every consumer
// of a snapshot relies on.
func NormalizeItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	for i := range out {
		if out[i].Quantity < 1 {
			out[i].Quantity = DefaultQuantity
		}
	}
	SortItems(out)
	return out
}

// SortHistoryNewestFirst orders records by creation time, newest first.
func SortHistoryNewestFirst(records []HistoryRecord) {
	slices.SortFunc(records, func(a, b HistoryRecord) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
}
