package store

import (
	"errors"
	"testing"

	"github.com/dukerupert/basket/internal/database"
)

func setupTestDB(t *testing.T) (*GroupStore, *GroceryStore, *HistoryStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewGroupStore(db), NewGroceryStore(db), NewHistoryStore(db)
}

func TestGroupCreate(t *testing.T) {
	gs, _, _ := setupTestDB(t)

	g, err := gs.Create("K3J9QZ", "Snacks", "device-a")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if g.Code != "K3J9QZ" {
		t.Errorf("code = %q, want %q", g.Code, "K3J9QZ")
	}
	if g.Name != "Snacks" {
		t.Errorf("name = %q, want %q", g.Name, "Snacks")
	}
	if len(g.Members) != 1 || g.Members[0].DeviceID != "device-a" {
		t.Errorf("members = %+v, want only device-a", g.Members)
	}
	if g.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestGroupCreateCodeTaken(t *testing.T) {
	gs, _, _ := setupTestDB(t)

	if _, err := gs.Create("AAAAAA", "First", "device-a"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := gs.Create("AAAAAA", "Second", "device-b")
	if !errors.Is(err, ErrCodeTaken) {
		t.Fatalf("err = %v, want ErrCodeTaken", err)
	}

	g, _ := gs.GetByCode("AAAAAA")
	if g.Name != "First" {
		t.Errorf("name = %q, want original group kept", g.Name)
	}
}

func TestGroupGetByCodeNotFound(t *testing.T) {
	gs, _, _ := setupTestDB(t)

	g, err := gs.GetByCode("NOPE00")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if g != nil {
		t.Error("expected nil for nonexistent group")
	}
}

func TestGroupAddMemberIdempotent(t *testing.T) {
	gs, _, _ := setupTestDB(t)
	gs.Create("K3J9QZ", "Snacks", "device-a")

	for i := 0; i < 2; i++ {
		g, err := gs.AddMember("K3J9QZ", "device-b")
		if err != nil {
			t.Fatalf("add member: %v", err)
		}
		if len(g.Members) != 2 {
			t.Fatalf("after join %d: members = %d, want 2", i+1, len(g.Members))
		}
	}
	if g, _ := gs.GetByCode("K3J9QZ"); !g.HasMember("device-b") {
		t.Error("expected device-b to be a member")
	}
}

func TestGroupAddMemberMissingGroup(t *testing.T) {
	gs, _, _ := setupTestDB(t)

	g, err := gs.AddMember("NOPE00", "device-b")
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if g != nil {
		t.Error("expected nil group")
	}
}

func TestGroupRemoveMember(t *testing.T) {
	gs, _, _ := setupTestDB(t)
	gs.Create("K3J9QZ", "Snacks", "device-a")
	gs.AddMember("K3J9QZ", "device-b")

	g, err := gs.RemoveMember("K3J9QZ", "device-a")
	if err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if len(g.Members) != 1 || g.Members[0].DeviceID != "device-b" {
		t.Errorf("members = %+v, want only device-b", g.Members)
	}

	// Removing a non-member leaves the set alone
	g, err = gs.RemoveMember("K3J9QZ", "device-z")
	if err != nil {
		t.Fatalf("remove non-member: %v", err)
	}
	if len(g.Members) != 1 {
		t.Errorf("members = %d, want 1", len(g.Members))
	}
}
