package remote

import (
	"context"
	"net/http"

	"github.com/dukerupert/basket/internal/model"
)

// CreateGroup registers a new group with deviceID as its only member. A code
// already in use yields an error matching ErrConflict.
func (c *Client) CreateGroup(ctx context.Context, code, name, deviceID string) (*model.Group, error) {
	body := map[string]string{"code": code, "name": name, "device_id": deviceID}
	var g model.Group
	if err := c.do(ctx, http.MethodPost, "/api/groups", body, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) GetGroup(ctx context.Context, code string) (*model.Group, error) {
	var g model.Group
	if err := c.do(ctx, http.MethodGet, groupPath(code), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// AddMember is idempotent on the server side.
func (c *Client) AddMember(ctx context.Context, code, deviceID string) (*model.Group, error) {
	var g model.Group
	if err := c.do(ctx, http.MethodPost, groupPath(code, "members"), map[string]string{"device_id": deviceID}, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) RemoveMember(ctx context.Context, code, deviceID string) (*model.Group, error) {
	var g model.Group
	if err := c.do(ctx, http.MethodDelete, groupPath(code, "members", deviceID), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}
