// Package dashboard wires the statistics source, the aggregator and the chart
// renderer into the two phases of a dashboard session: startup and load.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"cardstats/internal/chart"
	"cardstats/internal/core"
	"cardstats/internal/log"
	"cardstats/internal/source"
	"cardstats/internal/stats"
)

// Element IDs shared with the page.
const (
	BankSelectID = "bankSelect"
	YearSelectID = "yearSelect"
	LoadButtonID = "loadBtn"
)

// Policy decides what a failed month does to a load.
type Policy string

const (
	// Abort fails the whole load and renders nothing.
	Abort Policy = "abort"
	// Skip drops failed months, renders the rest and reports them.
	Skip Policy = "skip"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", Abort:
		return Abort, nil
	case Skip:
		return Skip, nil
	default:
		return "", fmt.Errorf("unknown month failure policy %q", s)
	}
}

var ErrNotStarted = errors.New("dashboard not started")

// Session is what startup loaded: the bank directory, the month index and the
// two selectors built from them.
type Session struct {
	Banks []core.Bank
	Index []core.MonthIndexEntry
	Years []int

	BankSelector *Selector
	YearSelector *Selector
}

// Result is a successful load.
type Result struct {
	Year    core.YearFilter
	Bank    core.BankFilter
	Months  []core.MonthIndexEntry
	Data    core.ChartData
	Summary stats.Summary
	Skipped []MonthFailure
	Charts  chart.Rendered
}

// Config holds controller options
type Config struct {
	Policy Policy
	Logger *log.Logger
}

// Controller runs startup and load actions against a source. Loads are not
// serialized: concurrent loads all finish and the last one to render wins.
type Controller struct {
	src      source.Source
	renderer *chart.Renderer
	state    *chart.State
	policy   Policy
	logger   *log.Logger

	mu      sync.RWMutex
	session *Session
}

func New(src source.Source, renderer *chart.Renderer, state *chart.State, cfg Config) *Controller {
	if cfg.Policy == "" {
		cfg.Policy = Abort
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Wrap(nil, log.ComponentDashboard)
	}
	return &Controller{
		src:      src,
		renderer: renderer,
		state:    state,
		policy:   cfg.Policy,
		logger:   cfg.Logger,
	}
}

func (c *Controller) State() *chart.State { return c.state }

// Session returns the last successful startup.
func (c *Controller) Session() (*Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session, c.session != nil
}

// Startup fetches the bank directory and the month index concurrently. Either
// failure fails startup and keeps the previous session.
func (c *Controller) Startup(ctx context.Context) (*Session, error) {
	var (
		banks []core.Bank
		index []core.MonthIndexEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		banks, err = c.src.Banks(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		index, err = c.src.Index(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		c.logger.Operation(ctx, log.OpStartup, err)
		return nil, err
	}

	s := &Session{
		Banks:        banks,
		Index:        index,
		Years:        stats.Years(index),
		BankSelector: NewSelector(BankSelectID, Option{Value: "", Label: "All banks"}),
		YearSelector: NewSelector(YearSelectID, Option{Value: "", Label: "All years"}),
	}
	Populate(s.BankSelector, banks,
		func(b core.Bank) string { return string(b.ID) },
		func(b core.Bank) string { return b.Name })
	Populate(s.YearSelector, s.Years, strconv.Itoa, strconv.Itoa)

	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	c.logger.Operation(ctx, log.OpStartup, nil, "banks", len(banks), log.FieldMonths, len(index))
	return s, nil
}

// Load fetches every indexed month matching year, keeps the records of bank
// and renders them. Bank never decides which months are fetched.
func (c *Controller) Load(ctx context.Context, year core.YearFilter, bank core.BankFilter) (*Result, error) {
	s, ok := c.Session()
	if !ok {
		return nil, ErrNotStarted
	}

	months := stats.MonthsFor(s.Index, year)
	perMonth, failed := c.fetchMonths(ctx, months)

	res := &Result{Year: year, Bank: bank}
	if len(failed) > 0 {
		if c.policy == Abort {
			err := &LoadError{Failed: failed}
			c.logger.Operation(ctx, log.OpLoad, err, log.NewFields().WithFilter(year.String(), bank.String()).ToSlice()...)
			return nil, err
		}
		for _, f := range failed {
			c.logger.WarnContext(ctx, "skipping month",
				log.FieldPath, f.Path(), log.FieldError, f.Err.Error())
		}
		res.Skipped = failed
	}

	var records []core.StatRecord
	for i, m := range months {
		if perMonth[i] == nil {
			continue
		}
		res.Months = append(res.Months, m)
		records = append(records, perMonth[i]...)
	}
	records = stats.FilterByBank(records, bank)

	res.Data = stats.BuildCharts(records)
	res.Summary = stats.Summarize(res.Data)
	res.Charts = c.renderer.Render(c.state, res.Data)

	c.logger.Operation(ctx, log.OpLoad, nil,
		log.FieldYear, year.String(), log.FieldBank, bank.String(),
		log.FieldMonths, len(res.Months), log.FieldRecords, len(records))
	return res, nil
}

// fetchMonths fetches all months concurrently and waits for every one of
// them, so that all failures are reported. Results keep index order; a failed
// month leaves a nil slot.
func (c *Controller) fetchMonths(ctx context.Context, months []core.MonthIndexEntry) ([][]core.StatRecord, []MonthFailure) {
	out := make([][]core.StatRecord, len(months))
	errs := make([]error, len(months))

	var g errgroup.Group
	for i, m := range months {
		g.Go(func() error {
			recs, err := c.src.Month(ctx, m.Year, m.Month)
			if err != nil {
				errs[i] = err
				return nil
			}
			if recs == nil {
				recs = []core.StatRecord{}
			}
			out[i] = recs
			return nil
		})
	}
	_ = g.Wait()

	var failed []MonthFailure
	for i, err := range errs {
		if err != nil {
			failed = append(failed, MonthFailure{Month: months[i], Err: err})
		}
	}
	return out, failed
}
