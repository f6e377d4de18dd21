package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/basket/internal/model"
)

// ErrCodeTaken is returned when a group is created under a code already in use.
var ErrCodeTaken = errors.New("group code already in use")

type GroupStore struct {
	db *sql.DB
}

func NewGroupStore(db *sql.DB) *GroupStore {
	return &GroupStore{db: db}
}

const groupCols = `code, name, created_at`

func scanGroup(scanner interface{ Scan(...any) error }) (*model.Group, error) {
	var g model.Group
	var createdAt time.Time
	if err := scanner.Scan(&g.Code, &g.Name, &createdAt); err != nil {
		return nil, err
	}
	g.CreatedAt = model.NewTimestamp(createdAt)
	return &g, nil
}

// Create writes a new group whose only member is deviceID.
func (s *GroupStore) Create(code, name, deviceID string) (*model.Group, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM groups WHERE code = ?)`, code).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check code: %w", err)
	}
	if exists {
		return nil, ErrCodeTaken
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(`INSERT INTO groups (code, name, created_at) VALUES (?, ?, ?)`, code, name, now); err != nil {
		return nil, fmt.Errorf("insert group: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO group_members (group_code, device_id, joined_at) VALUES (?, ?, ?)`,
		code, deviceID, now,
	); err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByCode(code)
}

// GetByCode returns the group with its members, or nil if it does not exist.
func (s *GroupStore) GetByCode(code string) (*model.Group, error) {
	row := s.db.QueryRow(`SELECT `+groupCols+` FROM groups WHERE code = ?`, code)
	g, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}

	members, err := s.ListMembers(code)
	if err != nil {
		return nil, err
	}
	g.Members = members
	return g, nil
}

func (s *GroupStore) Exists(code string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM groups WHERE code = ?)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("group exists: %w", err)
	}
	return exists, nil
}

func (s *GroupStore) ListMembers(code string) ([]model.Member, error) {
	rows, err := s.db.Query(
		`SELECT device_id, joined_at FROM group_members WHERE group_code = ? ORDER BY joined_at ASC, device_id ASC`,
		code,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []model.Member{}
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.DeviceID, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddMember adds deviceID to the membership set. Adding an existing member is
// a no-op. Returns nil if the group does not exist.
func (s *GroupStore) AddMember(code, deviceID string) (*model.Group, error) {
	exists, err := s.Exists(code)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	_, err = s.db.Exec(
		`INSERT INTO group_members (group_code, device_id, joined_at) VALUES (?, ?, ?)
		 ON CONFLICT(group_code, device_id) DO NOTHING`,
		code, deviceID, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	return s.GetByCode(code)
}

// RemoveMember removes deviceID from the membership set. Removing a device
// that is not a member is a no-op. Returns nil if the group does not exist.
func (s *GroupStore) RemoveMember(code, deviceID string) (*model.Group, error) {
	exists, err := s.Exists(code)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	_, err = s.db.Exec(`DELETE FROM group_members WHERE group_code = ? AND device_id = ?`, code, deviceID)
	if err != nil {
		return nil, fmt.Errorf("remove member: %w", err)
	}
	return s.GetByCode(code)
}
