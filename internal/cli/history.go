package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/basket/internal/history"
)

func (c *cli) historyCmd() *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show what the group has added, by month or week",
		Long: `history shows every item added to the active group over the last two
calendar months. Opening it also runs the monthly cleanup, which removes
older records at most once per month.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := history.ParseMode(by)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if _, err := c.app.History.Run(ctx, time.Now()); err != nil && !errors.Is(err, history.ErrNoGroup) {
				c.app.logger.Warn("history cleanup failed", "error", err)
			}

			code := c.app.Session.GroupCode()
			if code == "" {
				return history.ErrNoGroup
			}
			records, err := c.app.Remote.ListHistory(ctx, code)
			if err != nil {
				return err
			}

			p := c.printer()
			buckets := history.Group(records, mode, time.Local)
			if len(buckets) == 0 {
				p.line("No history yet.")
				return nil
			}
			for _, b := range buckets {
				p.header("%s", b.Label)
				for _, r := range b.Records {
					when := r.CreatedAt.In(time.Local).Format("Mon Jan 2 15:04")
					if r.Deleted {
						p.line("%s", dimColor.Sprintf("  %s  %s x%d (removed)", when, r.Name, r.Quantity))
						continue
					}
					p.line("  %s  %s x%d", when, r.Name, r.Quantity)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", string(history.ByMonth), "group by month or week")
	return cmd
}

func (c *cli) cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Run the monthly history cleanup now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.History.Run(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			p := c.printer()
			if res.Skipped {
				p.line("Cleanup already ran this month.")
				return nil
			}
			p.success("Removed %d of %d records older than %s.", res.Deleted, res.Scanned, res.Cutoff.Format("January 2006"))
			if res.Failed > 0 {
				failColor.Fprintf(c.out, "%d deletes failed: %v\n", res.Failed, res.Failures)
			}
			return nil
		},
	}
}
