// Package google reads the published statistics from a Google Sheets
// spreadsheet. The spreadsheet has a "banks" tab, an "index" tab and one tab
// per month named YYYY-MM, each starting with a header row.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"cardstats/internal/core"
	"cardstats/internal/source"
)

const (
	banksTab = "banks"
	indexTab = "index"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ source.Source = (*Client)(nil)

// NewFromEnv creates a Sheets client from service account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context, spreadsheetID string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	creds, err := credentialsFromEnv()
	if err != nil {
		return nil, err
	}

	return New(ctx, spreadsheetID,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
}

// New creates a client for the spreadsheet with explicit service options.
func New(ctx context.Context, spreadsheetID string, opts ...goption.ClientOption) (*Client, error) {
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID)
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func credentialsFromEnv() ([]byte, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (c *Client) Banks(ctx context.Context) ([]core.Bank, error) {
	values, err := c.read(ctx, banksTab, core.BanksPath)
	if err != nil {
		return nil, err
	}
	return parseBanks(values)
}

func (c *Client) Index(ctx context.Context) ([]core.MonthIndexEntry, error) {
	values, err := c.read(ctx, indexTab, core.IndexPath)
	if err != nil {
		return nil, err
	}
	return parseIndex(values)
}

func (c *Client) Month(ctx context.Context, year, month int) ([]core.StatRecord, error) {
	values, err := c.read(ctx, MonthTab(year, month), core.MonthPath(year, month))
	if err != nil {
		return nil, err
	}
	return parseMonth(values, year, month)
}

// MonthTab is the tab holding one month's figures.
func MonthTab(year, month int) string {
	return core.MonthLabel(year, month)
}

// read returns the whole tab. path is the resource the tab stands for and is
// what a failure reports.
func (c *Client) read(ctx context.Context, tab, path string) ([][]interface{}, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("'%s'!A:Z", tab)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fetchError(path, err)
	}
	return resp.Values, nil
}

// fetchError maps API failures to *core.FetchError. The API answers a
// missing tab with 400 "Unable to parse range".
func fetchError(path string, err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range") {
		return core.NewNotFound(path)
	}
	return &core.FetchError{Path: path, Status: gerr.Code}
}
