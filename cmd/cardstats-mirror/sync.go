package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cardstats/internal/amqp"
	"cardstats/internal/backend"
	"cardstats/internal/core"
	applog "cardstats/internal/log"
	"cardstats/internal/storage"
	"cardstats/internal/worker"
)

func newSyncCmd(a *app) *cobra.Command {
	var (
		year        string
		concurrency int
		publish     bool
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy banks, index and months from the configured source",
		Long: `sync reads the bank directory, the month index and every indexed month from
DATA_BACKEND and replaces the mirror's copy. Each mirrored month is announced
on AMQP when AMQP_URL is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := core.ParseYearFilter(year)
			if err != nil {
				return err
			}
			if concurrency < 1 {
				concurrency = a.cfg.SyncConcurrency
			}
			return a.sync(cmd.Context(), filter, concurrency, publish)
		},
	}
	cmd.Flags().StringVar(&year, "year", "", "only sync months of this year")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "months fetched in parallel (default SYNC_CONCURRENCY)")
	cmd.Flags().BoolVar(&publish, "publish", true, "publish month refreshed events when AMQP_URL is set")
	return cmd
}

func (a *app) sync(ctx context.Context, year core.YearFilter, concurrency int, publish bool) error {
	backendCfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return err
	}
	if !backendCfg.Type.Remote() {
		var remote []string
		for _, t := range backend.GetBackendTypes() {
			if t.Remote() {
				remote = append(remote, t.String())
			}
		}
		return fmt.Errorf("cannot mirror DATA_BACKEND=%s into itself; use one of %v", backendCfg.Type, remote)
	}
	// Every month is read once; caching would only delay fresh data.
	backendCfg.CacheTTL = 0

	res, err := backend.NewFactory(a.logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create %s backend: %w", backendCfg.Type, err)
	}
	defer res.Close()

	repo, err := storage.NewSQLiteRepository(a.dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	var publisher worker.Publisher
	if publish && a.cfg.AMQPURL != "" {
		client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("connect to AMQP: %w", err)
		}
		defer client.Close()
		publisher = client
	}

	report, err := worker.NewSyncWorker(res.Source, repo, publisher, concurrency).Sync(ctx, year)
	a.logger.Operation(ctx, applog.OpSync, err,
		applog.FieldBackend, backendCfg.Type.String(),
		applog.FieldYear, year.String(),
		applog.FieldMonths, len(report.Months),
		applog.FieldRecords, report.Records)
	if err != nil {
		return err
	}

	fmt.Printf("mirrored %s: %d banks, %d months, %d records\n",
		a.dbPath, report.Banks, len(report.Months), report.Records)
	return nil
}
