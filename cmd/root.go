package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/storefront-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "storefront-cli",
	Short: "Seller contact collection for marketplace storefronts",
	Long:  "Walks a contact table of storefront URLs, reveals the seller disclosure on each page, rides out verification challenges with operator help, and writes extracted phone/email back to the table.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
