package history

import (
	"testing"
	"time"

	"github.com/dukerupert/basket/internal/model"
)

func TestLabel(t *testing.T) {
	ts := time.Date(2024, time.March, 14, 9, 0, 0, 0, time.UTC)
	if got := Label(ts, ByMonth); got != "March 2024" {
		t.Errorf("month label = %q, want March 2024", got)
	}
	if got := Label(ts, ByWeek); got != "Week 11 - 2024" {
		t.Errorf("week label = %q, want Week 11 - 2024", got)
	}

	// ISO week-year differs from the calendar year here.
	ts = time.Date(2024, time.December, 30, 9, 0, 0, 0, time.UTC)
	if got := Label(ts, ByWeek); got != "Week 1 - 2025" {
		t.Errorf("week label = %q, want Week 1 - 2025", got)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("week"); err != nil || m != ByWeek {
		t.Errorf("ParseMode(week) = %q, %v", m, err)
	}
	if _, err := ParseMode("year"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestGroupByMonthChronological(t *testing.T) {
	records := []model.HistoryRecord{
		record("mar-2", day(2024, time.March, 2)),
		record("jan", day(2024, time.January, 9)),
		record("mar-20", day(2024, time.March, 20)),
		record("aug-prev", day(2023, time.August, 1)),
		{ID: "no-date", Name: "x"},
	}

	buckets := Group(records, ByMonth, time.UTC)

	wantLabels := []string{"August 2023", "January 2024", "March 2024"}
	if len(buckets) != len(wantLabels) {
		t.Fatalf("buckets = %d, want %d", len(buckets), len(wantLabels))
	}
	for i, want := range wantLabels {
		if buckets[i].Label != want {
			t.Errorf("bucket %d = %q, want %q", i, buckets[i].Label, want)
		}
	}

	march := buckets[2].Records
	if len(march) != 2 || march[0].ID != "mar-20" || march[1].ID != "mar-2" {
		t.Errorf("march records = %+v, want newest first", march)
	}
}

func TestGroupByWeek(t *testing.T) {
	records := []model.HistoryRecord{
		record("tue", day(2024, time.March, 12)),
		record("sun", day(2024, time.March, 17)),
		record("next-mon", day(2024, time.March, 18)),
	}

	buckets := Group(records, ByWeek, time.UTC)
	if len(buckets) != 2 {
		t.Fatalf("buckets = %d, want 2", len(buckets))
	}
	if buckets[0].Label != "Week 11 - 2024" || len(buckets[0].Records) != 2 {
		t.Errorf("first bucket = %s with %d records", buckets[0].Label, len(buckets[0].Records))
	}
	if buckets[1].Label != "Week 12 - 2024" {
		t.Errorf("second bucket = %s, want Week 12 - 2024", buckets[1].Label)
	}
	if !buckets[0].Start.Equal(time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("week start = %s, want Monday March 11", buckets[0].Start)
	}
}

func TestGroupEmpty(t *testing.T) {
	if got := Group(nil, ByMonth, time.UTC); len(got) != 0 {
		t.Errorf("buckets = %d, want 0", len(got))
	}
}
