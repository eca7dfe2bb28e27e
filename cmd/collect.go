package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/storefront-cli/internal/browser"
	"github.com/sells-group/storefront-cli/internal/collect"
	"github.com/sells-group/storefront-cli/internal/ledger"
)

var collectCmd = &cobra.Command{
	Use:   "collect <table>",
	Short: "Collect seller contact info for every pending row of a table",
	Long:  "Loads the contact table (.csv or .xlsx), computes the pending work queue, and processes rows one at a time in a single browser session. Type 'reload' or 'skip' during a challenge; Ctrl-C stops after the current row.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		l, err := ledger.Open(ledger.OpenBackend(args[0]))
		if err != nil {
			return eris.Wrapf(err, "open table %s", args[0])
		}

		journal, err := initJournal(cmd)
		if err != nil {
			return err
		}
		if journal != nil {
			defer journal.Close() //nolint:errcheck
			if err := journal.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate journal")
			}
		}

		session, err := browser.NewChromeSession(ctx, cfg.Browser)
		if err != nil {
			return eris.Wrap(err, "start browser")
		}
		defer session.Close() //nolint:errcheck

		// Manual login hand-off: authentication stays with the operator.
		if cfg.Browser.LoginURL != "" {
			if err := session.Navigate(ctx, cfg.Browser.LoginURL); err != nil {
				return eris.Wrap(err, "open login page")
			}
			fmt.Fprintln(os.Stderr, "Log in in the browser window, then press Enter to start.")
			if err := collect.AwaitConfirmation(os.Stdin); err != nil {
				return eris.Wrap(err, "await login confirmation")
			}
		}

		var j collect.Journal
		if journal != nil {
			j = journal
		}
		o := collect.NewOrchestrator(l, session, cfg.Collect, cfg.Selectors, os.Stdin, j)

		stats, err := o.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "collect run")
		}

		zap.L().Info("collection finished", zap.String("table", args[0]))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

func init() {
	rootCmd.AddCommand(collectCmd)
}
