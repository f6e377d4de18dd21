package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/basket/internal/model"
	"github.com/google/uuid"
)

type GroceryStore struct {
	db *sql.DB
}

func NewGroceryStore(db *sql.DB) *GroceryStore {
	return &GroceryStore{db: db}
}

func scanItem(scanner interface{ Scan(...any) error }) (*model.Item, error) {
	var item model.Item
	var bought int
	var createdAt time.Time

	err := scanner.Scan(&item.ID, &item.GroupCode, &item.Name, &item.Quantity, &bought, &createdAt)
	if err != nil {
		return nil, err
	}
	item.Bought = bought != 0
	item.CreatedAt = model.NewTimestamp(createdAt)
	return &item, nil
}

const itemCols = `id, group_code, name, quantity, bought, created_at`

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// bumpVersion advances the group's list version. It runs inside the same
// transaction as the change it versions.
func bumpVersion(tx *sql.Tx, groupCode string) error {
	if _, err := tx.Exec(`UPDATE groups SET list_version = list_version + 1 WHERE code = ?`, groupCode); err != nil {
		return fmt.Errorf("bump list version: %w", err)
	}
	return nil
}

func (s *GroceryStore) GetItem(groupCode, id string) (*model.Item, error) {
	row := s.db.QueryRow(`SELECT `+itemCols+` FROM grocery_items WHERE group_code = ? AND id = ?`, groupCode, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// CreateItem inserts an unbought item stamped with the server time.
func (s *GroceryStore) CreateItem(groupCode, name string, quantity int) (*model.Item, error) {
	if quantity < 1 {
		quantity = model.DefaultQuantity
	}
	id := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO grocery_items (id, group_code, name, quantity, bought, created_at) VALUES (?, ?, ?, ?, 0, ?)`,
		id, groupCode, name, quantity, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	if err := bumpVersion(tx, groupCode); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetItem(groupCode, id)
}

// Snapshot reads the group's list version and items in one transaction, so
// the items are exactly those of that version. Returns nil if the group does
// not exist.
func (s *GroceryStore) Snapshot(groupCode string) (*model.Snapshot, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var version int64
	err = tx.QueryRow(`SELECT list_version FROM groups WHERE code = ?`, groupCode).Scan(&version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get list version: %w", err)
	}

	items, err := listItems(tx, groupCode)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &model.Snapshot{GroupCode: groupCode, Version: version, Items: items, At: model.Now()}, nil
}

// listItems returns the group's live list ordered by creation time.
func listItems(q queryer, groupCode string) ([]model.Item, error) {
	rows, err := q.Query(
		`SELECT `+itemCols+` FROM grocery_items WHERE group_code = ? ORDER BY created_at ASC`,
		groupCode,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	model.SortItems(items)
	return items, nil
}

// SetBought updates the single bought field. Returns nil if the item is gone.
func (s *GroceryStore) SetBought(groupCode, id string, bought bool) (*model.Item, error) {
	b := 0
	if bought {
		b = 1
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE grocery_items SET bought = ? WHERE group_code = ? AND id = ?`,
		b, groupCode, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set bought: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	if err := bumpVersion(tx, groupCode); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetItem(groupCode, id)
}

// DeleteItem hard-deletes an item and reports whether it existed.
func (s *GroceryStore) DeleteItem(groupCode, id string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM grocery_items WHERE group_code = ? AND id = ?`, groupCode, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if err := bumpVersion(tx, groupCode); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}
