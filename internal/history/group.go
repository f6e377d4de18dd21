package history

import (
	"fmt"
	"slices"
	"time"

	"github.com/dukerupert/basket/internal/model"
)

type Mode string

const (
	ByMonth Mode = "month"
	ByWeek  Mode = "week"
)

// ParseMode accepts "month" or "week".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ByMonth, ByWeek:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown grouping %q (want month or week)", s)
}

// Bucket is one labelled period of history.
type Bucket struct {
	Label   string
	Start   time.Time
	Records []model.HistoryRecord
}

// Label returns the bucket label for t: "March 2024" by month or
// "Week 11 - 2024" by ISO week.
func Label(t time.Time, mode Mode) string {
	if mode == ByWeek {
		year, week := t.ISOWeek()
		return fmt.Sprintf("Week %d - %d", week, year)
	}
	return fmt.Sprintf("%s %d", t.Month(), t.Year())
}

func bucketStart(t time.Time, mode Mode) time.Time {
	y, m, d := t.Date()
	if mode == ByWeek {
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
	}
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// Group buckets records in loc. Buckets are ordered oldest first; records
// within a bucket newest first. Records without a timestamp are skipped.
func Group(records []model.HistoryRecord, mode Mode, loc *time.Location) []Bucket {
	if loc == nil {
		loc = time.Local
	}

	index := make(map[string]int)
	var buckets []Bucket
	for _, rec := range records {
		if rec.CreatedAt.IsZero() {
			continue
		}
		t := rec.CreatedAt.In(loc)
		label := Label(t, mode)
		i, ok := index[label]
		if !ok {
			i = len(buckets)
			index[label] = i
			buckets = append(buckets, Bucket{Label: label, Start: bucketStart(t, mode)})
		}
		buckets[i].Records = append(buckets[i].Records, rec)
	}

	slices.SortFunc(buckets, func(a, b Bucket) int {
		return a.Start.Compare(b.Start)
	})
	for i := range buckets {
		model.SortHistoryNewestFirst(buckets[i].Records)
	}
	return buckets
}
