package store

import (
	"testing"
)

func TestItemCRUD(t *testing.T) {
	gs, is, _ := setupTestDB(t)
	gs.Create("K3J9QZ", "Snacks", "device-a")

	// Create
	item, err := is.CreateItem("K3J9QZ", "Milk", 2)
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if item.ID == "" {
		t.Error("expected store-assigned id")
	}
	if item.Name != "Milk" {
		t.Errorf("name = %q, want %q", item.Name, "Milk")
	}
	if item.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", item.Quantity)
	}
	if item.Bought {
		t.Error("expected bought=false")
	}

	// Toggle
	updated, err := is.SetBought("K3J9QZ", item.ID, true)
	if err != nil {
		t.Fatalf("set bought: %v", err)
	}
	if !updated.Bought {
		t.Error("expected bought=true")
	}
	if updated.Name != "Milk" || updated.Quantity != 2 {
		t.Errorf("update touched other fields: %+v", updated)
	}

	// Delete
	existed, err := is.DeleteItem("K3J9QZ", item.ID)
	if err != nil {
		t.Fatalf("delete item: %v", err)
	}
	if !existed {
		t.Error("expected delete to report existing item")
	}
	got, err := is.GetItem("K3J9QZ", item.ID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestItemDefaultQuantity(t *testing.T) {
	gs, is, _ := setupTestDB(t)
	gs.Create("K3J9QZ", "Snacks", "device-a")

	item, err := is.CreateItem("K3J9QZ", "Eggs", 0)
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if item.Quantity != 1 {
		t.Errorf("quantity = %d, want 1", item.Quantity)
	}
}

func TestItemRequiresGroup(t *testing.T) {
	_, is, _ := setupTestDB(t)

	if _, err := is.CreateItem("NOPE00", "Milk", 1); err == nil {
		t.Error("expected foreign key error for unknown group")
	}
}

func TestListItemsOrderedAndScoped(t *testing.T) {
	gs, is, _ := setupTestDB(t)
	gs.Create("AAAAAA", "One", "device-a")
	gs.Create("BBBBBB", "Two", "device-a")

	names := []string{"Milk", "Bread", "Apples", "Coffee"}
	for _, n := range names {
		if _, err := is.CreateItem("AAAAAA", n, 1); err != nil {
			t.Fatalf("create %s: %v", n, err)
		}
	}
	is.CreateItem("BBBBBB", "Other group", 1)

	snap, err := is.Snapshot("AAAAAA")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	items := snap.Items
	if len(items) != len(names) {
		t.Fatalf("expected %d items, got %d", len(names), len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].CreatedAt.Before(items[i-1].CreatedAt.Time) {
			t.Errorf("items out of order at %d: %v before %v", i, items[i].CreatedAt, items[i-1].CreatedAt)
		}
	}
}

func TestSetBoughtMissingItem(t *testing.T) {
	gs, is, _ := setupTestDB(t)
	gs.Create("K3J9QZ", "Snacks", "device-a")

	item, err := is.SetBought("K3J9QZ", "missing", true)
	if err != nil {
		t.Fatalf("set bought: %v", err)
	}
	if item != nil {
		t.Error("expected nil for missing item")
	}

	existed, err := is.DeleteItem("K3J9QZ", "missing")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if existed {
		t.Error("expected existed=false")
	}
}

func TestSnapshotVersionAdvancesOnEveryChange(t *testing.T) {
	gs, is, _ := setupTestDB(t)
	gs.Create("K3J9QZ", "Snacks", "device-a")

	version := func() int64 {
		t.Helper()
		snap, err := is.Snapshot("K3J9QZ")
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		return snap.Version
	}

	v0 := version()

	item, err := is.CreateItem("K3J9QZ", "Milk", 1)
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	v1 := version()
	if v1 <= v0 {
		t.Errorf("version after create = %d, want > %d", v1, v0)
	}

	if _, err := is.SetBought("K3J9QZ", item.ID, true); err != nil {
		t.Fatalf("set bought: %v", err)
	}
	v2 := version()
	if v2 <= v1 {
		t.Errorf("version after toggle = %d, want > %d", v2, v1)
	}

	// Misses change nothing
	if _, err := is.SetBought("K3J9QZ", "missing", true); err != nil {
		t.Fatalf("set bought missing: %v", err)
	}
	if _, err := is.DeleteItem("K3J9QZ", "missing"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if got := version(); got != v2 {
		t.Errorf("version after misses = %d, want %d", got, v2)
	}

	if _, err := is.DeleteItem("K3J9QZ", item.ID); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	if got := version(); got <= v2 {
		t.Errorf("version after delete = %d, want > %d", got, v2)
	}
}

func TestSnapshotScopedToGroup(t *testing.T) {
	gs, is, _ := setupTestDB(t)
	gs.Create("K3J9QZ", "Snacks", "device-a")
	gs.Create("AAAAAA", "Other", "device-b")

	if _, err := is.CreateItem("AAAAAA", "Eggs", 1); err != nil {
		t.Fatalf("create item: %v", err)
	}

	snap, err := is.Snapshot("K3J9QZ")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Version != 0 || len(snap.Items) != 0 {
		t.Errorf("snapshot = version %d, %d items; want untouched group", snap.Version, len(snap.Items))
	}

	missing, err := is.Snapshot("ZZZZZZ")
	if err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil snapshot for missing group")
	}
}
