package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukerupert/basket/internal/groups"
)

func (c *cli) startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Show the screen this device should start on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := c.app.Groups.Status()
			if err != nil {
				return err
			}
			p := c.printer()

			switch st.Route {
			case groups.RouteIntro:
				p.header("Welcome to basket")
				p.line("Create and share grocery lists in real time with friends and family.")
				if err := c.app.Groups.MarkIntroSeen(); err != nil {
					return err
				}
				p.line("")
				fallthrough
			case groups.RouteGroupSetup:
				p.line("You are not in a group yet.")
				p.line("  basket group create <name>   start a new group and get a code to share")
				p.line("  basket group join <code>     join a group someone shared with you")
				return nil
			default:
				return c.printList(cmd)
			}
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show device, group and membership",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := c.app.Groups.Status()
			if err != nil {
				return err
			}
			p := c.printer()
			p.line("device:  %s", st.DeviceID)
			p.line("server:  %s", c.app.Config.ServerURL)
			if st.GroupCode == "" {
				p.line("group:   none")
				return nil
			}
			p.line("group:   %s", codeColor.Sprint(st.GroupCode))

			if n, ok := c.app.Groups.MemberCount(cmd.Context()); ok {
				p.line("members: %d", n)
			} else {
				p.line("members: unknown")
			}
			return nil
		},
	}
}

func (c *cli) groupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Create, join or leave a group",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create a group and make it active",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				code, err := c.app.Groups.Create(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				p := c.printer()
				p.success("Group created.")
				p.line("Share this code so others can join: %s", codeColor.Sprint(code))
				return nil
			},
		},
		&cobra.Command{
			Use:   "join <code>",
			Short: "Join an existing group by its code",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				g, err := c.app.Groups.Join(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				c.printer().success("Joined %s (%s), %d members.", g.Name, g.Code, len(g.Members))
				return nil
			},
		},
		&cobra.Command{
			Use:   "leave",
			Short: "Leave the active group",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := c.app.Groups.Leave(cmd.Context(), c.prompt.confirm); err != nil {
					return err
				}
				c.printer().success("Left the group.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "members",
			Short: "Count members of the active group",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if c.app.Session.GroupCode() == "" {
					return groups.ErrNoGroup
				}
				n, ok := c.app.Groups.MemberCount(cmd.Context())
				if !ok {
					c.printer().line("unknown")
					return nil
				}
				c.printer().line("%d", n)
				return nil
			},
		},
	)
	return cmd
}
