package main

import (
	"github.com/spf13/cobra"

	"cardstats/internal/cli"
	"cardstats/internal/config"
	applog "cardstats/internal/log"
)

type app struct {
	cfg    *config.Config
	logger *applog.Logger
	dbPath string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "cardstats-mirror",
		Short:         "Mirror published card statistics into SQLite",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			a.cfg = config.Load()
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			a.logger = cli.SetupLogger(a.cfg.LogLevel).WithComponent(applog.ComponentMirror)
			if a.dbPath == "" {
				a.dbPath = a.cfg.SQLiteDBPath
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "mirror database path (default SQLITE_DB_PATH)")

	cmd.AddCommand(newSyncCmd(a), newStatusCmd(a))
	return cmd
}
