package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/storefront-cli/internal/ledger"
	"github.com/sells-group/storefront-cli/internal/model"
)

var queueCmd = &cobra.Command{
	Use:   "queue <table>",
	Short: "Show the pending work queue without touching a browser",
	Long:  "Computes the same filtered, reversed work queue the collect command would process and prints it. Useful to check how much work a table still holds.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := ledger.Open(ledger.OpenBackend(args[0]))
		if err != nil {
			return eris.Wrapf(err, "open table %s", args[0])
		}

		queue := l.FilterWorkQueue(cfg.Collect.DomainMarker)
		if len(queue) == 0 {
			fmt.Fprintln(os.Stderr, "Work queue is empty.")
			return nil
		}

		formatQueue(os.Stdout, l, queue)
		fmt.Fprintf(os.Stderr, "%d of %d rows pending\n", len(queue), l.Len())
		return nil
	},
}

func formatQueue(out io.Writer, l *ledger.Ledger, queue []model.Record) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ROW\tCOMPANY\tURL\tPHONE\tEMAIL")
	for _, rec := range queue {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			l.RowPosition(rec.CompanyName),
			rec.CompanyName,
			rec.StoreURL,
			rec.UpdatedPhone,
			rec.UpdatedEmail,
		)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(queueCmd)
}
