package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/storefront-cli/internal/store"
)

// initJournal opens the run journal database, or returns nil when journaling
// is disabled.
func initJournal(_ *cobra.Command) (store.Store, error) {
	if cfg.Journal.Disabled {
		return nil, nil
	}
	dsn := cfg.Journal.Path
	if dsn == "" {
		dsn = "storefront_runs.db"
	}
	return store.NewSQLite(dsn)
}
