package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukerupert/basket/internal/listsync"
	"github.com/dukerupert/basket/internal/model"
)

func (c *cli) addCmd() *cobra.Command {
	var quantity string
	cmd := &cobra.Command{
		Use:   "add <name...>",
		Short: "Add an item to the list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := c.app.List.Add(cmd.Context(), strings.Join(args, " "), quantity)
			if err != nil {
				return err
			}
			c.printer().success("Added %s x%d", item.Name, item.Quantity)
			return nil
		},
	}
	cmd.Flags().StringVarP(&quantity, "quantity", "q", "", "quantity (defaults to 1)")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the live list",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.printList(cmd)
		},
	}
}

func (c *cli) printList(cmd *cobra.Command) error {
	items, err := c.app.List.Load(cmd.Context())
	if err != nil {
		return err
	}
	c.renderItems(items)
	return nil
}

func (c *cli) renderItems(items []model.Item) {
	c.renderMarked(items, nil)
}

// renderMarked prints items with an optional one-character marker per id.
func (c *cli) renderMarked(items []model.Item, marks map[string]string) {
	p := c.printer()
	p.header("Grocery list %s", c.app.Session.GroupCode())
	if len(items) == 0 {
		p.line("  (empty)")
		return
	}
	for i, it := range items {
		mark := " "
		if m, ok := marks[it.ID]; ok {
			mark = m
		}
		if it.Bought {
			p.line("%s%s", mark, dimColor.Sprintf("%2d. [x] %s x%d", i+1, it.Name, it.Quantity))
			continue
		}
		p.line("%s%2d. [ ] %s x%d", mark, i+1, it.Name, it.Quantity)
	}
}

// changeTracker remembers the last rendered state of each item by id so a
// watch can mark what changed. It lives only as long as the watch.
type changeTracker struct {
	seen map[string]model.Item
}

// marks returns "+" for new items and "*" for changed ones, then records
// items as the new baseline. The first call marks nothing.
func (ct *changeTracker) marks(items []model.Item) map[string]string {
	out := make(map[string]string)
	first := ct.seen == nil
	next := make(map[string]model.Item, len(items))
	for _, it := range items {
		next[it.ID] = it
		if first {
			continue
		}
		prev, ok := ct.seen[it.ID]
		switch {
		case !ok:
			out[it.ID] = "+"
		case prev.Bought != it.Bought || prev.Quantity != it.Quantity || prev.Name != it.Name:
			out[it.ID] = "*"
		}
	}
	ct.seen = next
	return out
}

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the live list until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var tracker changeTracker
			c.app.List.OnSnapshot(func(items []model.Item) {
				c.printer().line("")
				c.renderMarked(items, tracker.marks(items))
			})
			defer c.app.List.OnSnapshot(nil)
			return c.app.List.Run(cmd.Context())
		},
	}
}

// resolveItem finds an item by its 1-based list position, its id, a unique
// id prefix or a unique case-insensitive name.
func resolveItem(items []model.Item, ref string) (model.Item, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(items) {
			return items[n-1], nil
		}
		return model.Item{}, listsync.ErrItemNotFound
	}

	var matches []model.Item
	for _, it := range items {
		if it.ID == ref {
			return it, nil
		}
		if strings.HasPrefix(it.ID, ref) || strings.EqualFold(it.Name, ref) {
			matches = append(matches, it)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return model.Item{}, listsync.ErrItemNotFound
	}
	return model.Item{}, fmt.Errorf("%q matches %d items, use the list number", ref, len(matches))
}

func (c *cli) toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <number|id|name>",
		Short: "Mark an item bought or not bought",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := c.app.List.Load(cmd.Context())
			if err != nil {
				return err
			}
			item, err := resolveItem(items, args[0])
			if err != nil {
				return err
			}
			updated, err := c.app.List.Toggle(cmd.Context(), item.ID)
			if err != nil {
				return err
			}
			state := "not bought"
			if updated.Bought {
				state = "bought"
			}
			c.printer().success("%s marked %s", updated.Name, state)
			return nil
		},
	}
}

func (c *cli) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <number|id|name>",
		Aliases: []string{"delete"},
		Short:   "Remove an item from the list",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := c.app.List.Load(cmd.Context())
			if err != nil {
				return err
			}
			item, err := resolveItem(items, args[0])
			if err != nil {
				return err
			}
			if err := c.app.List.Delete(cmd.Context(), item.ID, c.prompt.confirm); err != nil {
				return err
			}
			c.printer().success("Removed %s", item.Name)
			return nil
		},
	}
}
