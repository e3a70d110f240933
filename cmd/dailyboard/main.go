package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/dailyboard/internal/config"
)

// cliFlags override values read from the environment.
type cliFlags struct {
	dbPath string
	port   string
}

func newRootCmd() *cobra.Command {
	var flags cliFlags

	root := &cobra.Command{
		Use:   "dailyboard",
		Short: "Track Lost Ark dailies and weeklies across your roster",
		Long: `dailyboard keeps character groups built from the Lost Ark developer API
and a checklist of daily and weekly content per character.

Configuration is read from DAILYBOARD_* environment variables; flags
override the matching variable.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "database path (overrides DAILYBOARD_DB_PATH)")

	root.AddCommand(
		newServeCmd(&flags),
		newSearchCmd(&flags),
		newRefreshCmd(&flags),
		newMarketCmd(&flags),
		newTokenCmd(&flags),
	)
	return root
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(flags *cliFlags) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flags.dbPath != "" {
		cfg.DBPath = flags.dbPath
	}
	if flags.port != "" {
		cfg.Port = flags.port
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
