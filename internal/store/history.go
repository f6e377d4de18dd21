package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/basket/internal/model"
	"github.com/google/uuid"
)

type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func scanHistory(scanner interface{ Scan(...any) error }) (*model.HistoryRecord, error) {
	var r model.HistoryRecord
	var bought, deleted int
	var createdAt time.Time

	err := scanner.Scan(&r.ID, &r.GroupCode, &r.ItemID, &r.Name, &r.Quantity, &bought, &deleted, &createdAt)
	if err != nil {
		return nil, err
	}
	r.Bought = bought != 0
	r.Deleted = deleted != 0
	r.CreatedAt = model.NewTimestamp(createdAt)
	return &r, nil
}

const historyCols = `id, group_code, item_id, name, quantity, bought, deleted, created_at`

func (s *HistoryStore) Get(groupCode, id string) (*model.HistoryRecord, error) {
	row := s.db.QueryRow(`SELECT `+historyCols+` FROM grocery_history WHERE group_code = ? AND id = ?`, groupCode, id)
	r, err := scanHistory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return r, nil
}

// Create appends a history record. Records are never edited afterwards except
// through MarkDeleted.
func (s *HistoryStore) Create(groupCode, itemID, name string, quantity int, bought bool) (*model.HistoryRecord, error) {
	return s.create(groupCode, itemID, name, quantity, bought, time.Now().UTC())
}

func (s *HistoryStore) create(groupCode, itemID, name string, quantity int, bought bool, createdAt time.Time) (*model.HistoryRecord, error) {
	if quantity < 1 {
		quantity = model.DefaultQuantity
	}
	b := 0
	if bought {
		b = 1
	}
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO grocery_history (id, group_code, item_id, name, quantity, bought, deleted, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		id, groupCode, itemID, name, quantity, b, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert history: %w", err)
	}
	return s.Get(groupCode, id)
}

// List returns the group's history, newest first.
func (s *HistoryStore) List(groupCode string) ([]model.HistoryRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+historyCols+` FROM grocery_history WHERE group_code = ? ORDER BY created_at DESC`,
		groupCode,
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	records := []model.HistoryRecord{}
	for rows.Next() {
		r, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// MarkDeleted flips the deleted flag. Returns nil if the record is gone.
func (s *HistoryStore) MarkDeleted(groupCode, id string) (*model.HistoryRecord, error) {
	result, err := s.db.Exec(
		`UPDATE grocery_history SET deleted = 1 WHERE group_code = ? AND id = ?`,
		groupCode, id,
	)
	if err != nil {
		return nil, fmt.Errorf("mark history deleted: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.Get(groupCode, id)
}

// Delete removes a history record and reports whether it existed.
func (s *HistoryStore) Delete(groupCode, id string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM grocery_history WHERE group_code = ? AND id = ?`, groupCode, id)
	if err != nil {
		return false, fmt.Errorf("delete history: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
