// Package listsync mirrors a group's live grocery list and applies the
// device's add, toggle and delete actions to the list and its history.
package listsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/dukerupert/basket/internal/model"
)

var (
	ErrEmptyName    = errors.New("item name is required")
	ErrNoGroup      = errors.New("no active group")
	ErrItemNotFound = errors.New("item not found")
	ErrNotConfirmed = errors.New("action not confirmed")
)

// Backend is the remote list and history storage for a group.
type Backend interface {
	Snapshot(ctx context.Context, code string) (*model.Snapshot, error)
	Subscribe(ctx context.Context, code string, fn func(*model.Snapshot)) error
	CreateItem(ctx context.Context, code, name string, quantity int) (*model.Item, error)
	SetBought(ctx context.Context, code, id string, bought bool) (*model.Item, error)
	DeleteItem(ctx context.Context, code, id string) error
	ListHistory(ctx context.Context, code string) ([]model.HistoryRecord, error)
	CreateHistory(ctx context.Context, code, itemID, name string, quantity int, bought bool) (*model.HistoryRecord, error)
	MarkHistoryDeleted(ctx context.Context, code, id string) (*model.HistoryRecord, error)
}

// Session supplies the active group code.
type Session interface {
	GroupCode() string
}

// Confirm gates destructive actions. It returns true to proceed.
type Confirm func(prompt string) bool

type Controller struct {
	backend Backend
	session Session
	logger  *slog.Logger

	// notifyMu orders view changes and their callbacks
	notifyMu   sync.Mutex
	mu         sync.Mutex
	items      []model.Item
	applied    *model.Snapshot // header of the last applied snapshot, items unused
	onSnapshot func([]model.Item)
}

func NewController(backend Backend, session Session, logger *slog.Logger) *Controller {
	return &Controller{
		backend: backend,
		session: session,
		logger:  logger.With("component", "listsync"),
	}
}

// OnSnapshot registers fn to receive a copy of the view after every change.
// Calls arrive in the order the changes were applied. fn must not call back
// into the controller's list actions.
func (c *Controller) OnSnapshot(fn func([]model.Item)) {
	c.mu.Lock()
	c.onSnapshot = fn
	c.mu.Unlock()
}

// ParseQuantity turns user input into a quantity. Blank, non-numeric and
// values below one all yield model.DefaultQuantity.
func ParseQuantity(text string) int {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 {
		return model.DefaultQuantity
	}
	return n
}

func (c *Controller) groupCode() (string, error) {
	code := c.session.GroupCode()
	if code == "" {
		return "", ErrNoGroup
	}
	return code, nil
}

// Run subscribes to the active group's list and keeps the view current until
// ctx is cancelled or the stream ends.
func (c *Controller) Run(ctx context.Context) error {
	code, err := c.groupCode()
	if err != nil {
		return err
	}

	c.logger.Debug("subscribing", "group", code)
	err = c.backend.Subscribe(ctx, code, c.apply)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error("subscription ended", "group", code, "error", err)
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

// Load fetches the current snapshot once.
func (c *Controller) Load(ctx context.Context) ([]model.Item, error) {
	code, err := c.groupCode()
	if err != nil {
		return nil, err
	}

	snap, err := c.backend.Snapshot(ctx, code)
	if err != nil {
		c.logger.Error("load list", "group", code, "error", err)
		return nil, fmt.Errorf("load list: %w", err)
	}
	c.apply(snap)
	return c.Items(), nil
}

// apply replaces the view with snap unless the view already reflects a newer
// version of the same group's list.
func (c *Controller) apply(snap *model.Snapshot) {
	items := model.NormalizeItems(snap.Items)

	var stale bool
	var have int64
	c.update(func() ([]model.Item, bool) {
		if !snap.Supersedes(c.applied) {
			stale, have = true, c.applied.Version
			return nil, false
		}
		c.applied = &model.Snapshot{GroupCode: snap.GroupCode, Version: snap.Version, At: snap.At}
		return items, true
	})
	if stale {
		c.logger.Debug("ignoring stale snapshot", "group", snap.GroupCode, "version", snap.Version, "have", have)
	}
}

// update swaps in the view returned by next, which runs under the view lock
// and returns false to keep the current view.
func (c *Controller) update(next func() ([]model.Item, bool)) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	items, ok := next()
	if !ok {
		c.mu.Unlock()
		return
	}
	c.items = items
	fn := c.onSnapshot
	out := c.copyItemsLocked()
	c.mu.Unlock()

	if fn != nil {
		fn(out)
	}
}

// Items returns a copy of the current view.
func (c *Controller) Items() []model.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyItemsLocked()
}

func (c *Controller) copyItemsLocked() []model.Item {
	out := make([]model.Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Controller) find(id string) (model.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range c.items {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}

// Add writes a new item and its history record. The two writes are not
// atomic: if the history write fails the item stays on the list.
func (c *Controller) Add(ctx context.Context, name, quantityText string) (*model.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	code, err := c.groupCode()
	if err != nil {
		return nil, err
	}
	quantity := ParseQuantity(quantityText)

	item, err := c.backend.CreateItem(ctx, code, name, quantity)
	if err != nil {
		c.logger.Error("add item", "group", code, "name", name, "error", err)
		return nil, fmt.Errorf("add item: %w", err)
	}

	if _, err := c.backend.CreateHistory(ctx, code, item.ID, item.Name, item.Quantity, item.Bought); err != nil {
		c.logger.Error("record history", "group", code, "item", item.ID, "error", err)
		return item, fmt.Errorf("record history: %w", err)
	}

	c.logger.Debug("item added", "group", code, "item", item.ID, "quantity", quantity)
	return item, nil
}

// Toggle flips an item's bought flag in the view immediately, then writes it.
// A failed write is not rolled back; the next snapshot corrects the view.
func (c *Controller) Toggle(ctx context.Context, id string) (*model.Item, error) {
	code, err := c.groupCode()
	if err != nil {
		return nil, err
	}

	var found, bought bool
	c.update(func() ([]model.Item, bool) {
		items := c.copyItemsLocked()
		for i := range items {
			if items[i].ID == id {
				items[i].Bought = !items[i].Bought
				found, bought = true, items[i].Bought
				return items, true
			}
		}
		return nil, false
	})
	if !found {
		return nil, ErrItemNotFound
	}

	updated, err := c.backend.SetBought(ctx, code, id, bought)
	if err != nil {
		c.logger.Error("toggle item", "group", code, "item", id, "error", err)
		return nil, fmt.Errorf("toggle item: %w", err)
	}
	return updated, nil
}

// Delete removes an item after confirm approves, then marks its history
// record deleted. The record is matched by item id, falling back to the
// newest live record with the same name for records that carry no item id.
func (c *Controller) Delete(ctx context.Context, id string, confirm Confirm) error {
	code, err := c.groupCode()
	if err != nil {
		return err
	}
	item, ok := c.find(id)
	if !ok {
		return ErrItemNotFound
	}
	if confirm == nil || !confirm(fmt.Sprintf("Delete %q?", item.Name)) {
		return ErrNotConfirmed
	}

	if err := c.backend.DeleteItem(ctx, code, id); err != nil {
		c.logger.Error("delete item", "group", code, "item", id, "error", err)
		return fmt.Errorf("delete item: %w", err)
	}

	records, err := c.backend.ListHistory(ctx, code)
	if err != nil {
		c.logger.Error("list history", "group", code, "error", err)
		return fmt.Errorf("list history: %w", err)
	}

	rec := matchHistory(records, item)
	if rec == nil {
		c.logger.Warn("no history record for deleted item", "group", code, "item", id, "name", item.Name)
		return nil
	}
	if _, err := c.backend.MarkHistoryDeleted(ctx, code, rec.ID); err != nil {
		c.logger.Error("mark history deleted", "group", code, "record", rec.ID, "error", err)
		return fmt.Errorf("mark history deleted: %w", err)
	}
	return nil
}

// matchHistory picks the live record created for item.
func matchHistory(records []model.HistoryRecord, item model.Item) *model.HistoryRecord {
	for i := range records {
		if records[i].ItemID == item.ID && !records[i].Deleted {
			return &records[i]
		}
	}

	var best *model.HistoryRecord
	for i := range records {
		r := &records[i]
		if r.ItemID != "" || r.Deleted || r.Name != item.Name {
			continue
		}
		if best == nil || r.CreatedAt.After(best.CreatedAt.Time) {
			best = r
		}
	}
	return best
}
