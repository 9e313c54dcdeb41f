package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"cardstats/internal/storage"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print what the mirror holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := storage.NewSQLiteRepository(a.dbPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			counts, err := repo.Counts(cmd.Context())
			if err != nil {
				return err
			}
			version, dirty, err := storage.SchemaVersion(a.dbPath)
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), a.dbPath, counts, version, dirty)
			return nil
		},
	}
}

func printStatus(w io.Writer, path string, c storage.Counts, version uint, dirty bool) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "database:       %s\n", path)
	p.Fprintf(w, "schema version: %d", version)
	if dirty {
		p.Fprintf(w, " (dirty)")
	}
	fmt.Fprintln(w)
	p.Fprintf(w, "banks:          %d\n", c.Banks)
	p.Fprintf(w, "indexed months: %d\n", c.Months)
	p.Fprintf(w, "synced months:  %d\n", c.SyncedMonths)
	p.Fprintf(w, "records:        %d\n", c.Records)
	if c.LastSync.IsZero() {
		p.Fprintf(w, "last sync:      never\n")
		return
	}
	p.Fprintf(w, "last sync:      %s\n", c.LastSync.UTC().Format(time.RFC3339))
}
