package remote

import (
	"context"
	"net/http"

	"github.com/dukerupert/basket/internal/model"
)

func (c *Client) Snapshot(ctx context.Context, code string) (*model.Snapshot, error) {
	var snap model.Snapshot
	if err := c.do(ctx, http.MethodGet, groupPath(code, "items"), nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) CreateItem(ctx context.Context, code, name string, quantity int) (*model.Item, error) {
	body := map[string]any{"name": name, "quantity": quantity}
	var item model.Item
	if err := c.do(ctx, http.MethodPost, groupPath(code, "items"), body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) SetBought(ctx context.Context, code, id string, bought bool) (*model.Item, error) {
	var item model.Item
	if err := c.do(ctx, http.MethodPatch, groupPath(code, "items", id), map[string]bool{"bought": bought}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) DeleteItem(ctx context.Context, code, id string) error {
	return c.do(ctx, http.MethodDelete, groupPath(code, "items", id), nil, nil)
}

// ListHistory returns the group's history, newest first.
func (c *Client) ListHistory(ctx context.Context, code string) ([]model.HistoryRecord, error) {
	var records []model.HistoryRecord
	if err := c.do(ctx, http.MethodGet, groupPath(code, "history"), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) CreateHistory(ctx context.Context, code, itemID, name string, quantity int, bought bool) (*model.HistoryRecord, error) {
	body := map[string]any{
		"item_id":  itemID,
		"name":     name,
		"quantity": quantity,
		"bought":   bought,
	}
	var rec model.HistoryRecord
	if err := c.do(ctx, http.MethodPost, groupPath(code, "history"), body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) MarkHistoryDeleted(ctx context.Context, code, id string) (*model.HistoryRecord, error) {
	var rec model.HistoryRecord
	if err := c.do(ctx, http.MethodPatch, groupPath(code, "history", id), map[string]bool{"deleted": true}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) DeleteHistory(ctx context.Context, code, id string) error {
	return c.do(ctx, http.MethodDelete, groupPath(code, "history", id), nil, nil)
}
