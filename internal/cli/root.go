package cli

import (
	"bufio"
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/dukerupert/basket/internal/config"
	"github.com/dukerupert/basket/internal/logging"
)

type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configFile string
	serverURL  string
	debug      bool
	assumeYes  bool

	app    *App
	prompt *prompter
}

// Execute runs the client with args and returns the process exit code.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	root := NewRootCommand(in, out, errOut)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		printError(errOut, err)
		return 1
	}
	return 0
}

func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	c := &cli{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "basket",
		Short: "Shared grocery lists that stay in sync",
		Long: `basket keeps one grocery list per group in sync across every device in
the group. Create a group, share its six-character code, and everyone sees
items being added, ticked off and removed as it happens.`,
		PersistentPreRunE: c.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "config file (default $HOME/.basket/config.yaml)")
	flags.StringVar(&c.serverURL, "server", "", "basketd URL, overrides BASKET_SERVER_URL")
	flags.BoolVar(&c.debug, "debug", false, "log debug output to stderr")
	flags.BoolVarP(&c.assumeYes, "yes", "y", false, "answer yes to confirmation prompts")

	root.AddCommand(
		c.startCmd(),
		c.statusCmd(),
		c.groupCmd(),
		c.addCmd(),
		c.listCmd(),
		c.watchCmd(),
		c.toggleCmd(),
		c.removeCmd(),
		c.historyCmd(),
		c.cleanupCmd(),
	)
	return root
}

func (c *cli) setup(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadClient(c.configFile)
	if err != nil {
		return err
	}
	if c.serverURL != "" {
		cfg.ServerURL = c.serverURL
	}
	level := cfg.LogLevel
	if c.debug {
		level = "debug"
	}
	logger := logging.New(c.errOut, level, "text")

	c.app, err = NewApp(cfg, logger)
	if err != nil {
		return err
	}
	c.prompt = &prompter{in: bufio.NewReader(c.in), out: c.out, assumeYes: c.assumeYes}
	return nil
}

func (c *cli) printer() printer {
	return printer{out: c.out}
}
