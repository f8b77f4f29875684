// Package cmd holds the stockdash-cli commands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stockdash/internal/config"
	"stockdash/internal/util"
	"stockdash/pkg/stockdash"
)

// Version is the CLI version.
const Version = "0.1.0"

// app is the state shared by every subcommand once the root's pre-run has
// loaded config.
type app struct {
	cfgFile string
	apiURL  string
	timeout time.Duration
	verbose bool

	client *stockdash.Client
	log    *slog.Logger
}

// NewRootCmd builds the command tree. Output goes to the command's out
// writer; logs go to stderr.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "stockdash-cli",
		Short: "Query the stocks price API",
		Long: `Query the stocks price API from the shell.

Commands:
    symbols     list every symbol the API knows
    prices      show a page of a symbol's price history
    price-at    show the price on one date
    returns     show the cumulative return between two dates
    compare     cumulative returns for several symbols side by side
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default $STOCKDASH_CONFIG or config/stockdash.yaml)")
	root.PersistentFlags().StringVar(&a.apiURL, "api", "", "stocks API base URL (overrides config)")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "HTTP timeout (overrides config)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		newSymbolsCmd(a),
		newPricesCmd(a),
		newPriceAtCmd(a),
		newReturnsCmd(a),
		newCompareCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return NewRootCmd().ExecuteContext(ctx)
}

func (a *app) init(stderr io.Writer) error {
	path := a.cfgFile
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.Client.BaseURL = a.apiURL
	}
	if a.timeout > 0 {
		cfg.Client.Timeout = a.timeout
	}

	level := "error"
	if a.verbose {
		level = "debug"
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	a.log = util.NewLogger(level, "text", stderr)
	a.client = stockdash.NewClient(cfg.Client.BaseURL,
		stockdash.WithTimeout(cfg.Client.Timeout),
		stockdash.WithLogger(a.log),
	)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stockdash-cli %s\n", Version)
		},
	}
}
