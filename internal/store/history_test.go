package store

import (
	"testing"
	"time"
)

func TestHistoryCreateAndMarkDeleted(t *testing.T) {
	gs, is, hs := setupTestDB(t)
	gs.Create("K3J9QZ", "Snacks", "device-a")

	item, _ := is.CreateItem("K3J9QZ", "Milk", 2)
	rec, err := hs.Create("K3J9QZ", item.ID, "Milk", 2, false)
	if err != nil {
		t.Fatalf("create history: %v", err)
	}
	if rec.ItemID != item.ID {
		t.Errorf("item_id = %q, want %q", rec.ItemID, item.ID)
	}
	if rec.Deleted {
		t.Error("expected deleted=false")
	}

	marked, err := hs.MarkDeleted("K3J9QZ", rec.ID)
	if err != nil {
		t.Fatalf("mark deleted: %v", err)
	}
	if !marked.Deleted {
		t.Error("expected deleted=true")
	}
	if marked.Name != "Milk" || marked.Quantity != 2 || marked.Bought {
		t.Errorf("mark deleted touched other fields: %+v", marked)
	}
}

func TestHistoryListNewestFirst(t *testing.T) {
	gs, _, hs := setupTestDB(t)
	gs.Create("K3J9QZ", "Snacks", "device-a")

	now := time.Now().UTC()
	hs.create("K3J9QZ", "", "Old", 1, false, now.AddDate(0, -3, 0))
	hs.create("K3J9QZ", "", "Mid", 1, false, now.AddDate(0, -1, 0))
	hs.create("K3J9QZ", "", "New", 1, false, now)

	records, err := hs.List("K3J9QZ")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"New", "Mid", "Old"}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i, name := range want {
		if records[i].Name != name {
			t.Errorf("records[%d].Name = %q, want %q", i, records[i].Name, name)
		}
	}
}

func TestHistoryDelete(t *testing.T) {
	gs, _, hs := setupTestDB(t)
	gs.Create("K3J9QZ", "Snacks", "device-a")

	rec, _ := hs.Create("K3J9QZ", "", "Bread", 1, false)
	existed, err := hs.Delete("K3J9QZ", rec.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !existed {
		t.Error("expected existed=true")
	}
	if got, _ := hs.Get("K3J9QZ", rec.ID); got != nil {
		t.Error("expected nil after delete")
	}

	marked, err := hs.MarkDeleted("K3J9QZ", rec.ID)
	if err != nil {
		t.Fatalf("mark deleted: %v", err)
	}
	if marked != nil {
		t.Error("expected nil when marking a deleted record")
	}
}
