package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"cardstats/internal/core"
)

// fakeSheets serves values.get for the tabs it knows and answers other
// ranges like the real API answers a missing tab.
func fakeSheets(t *testing.T, tabs map[string][][]interface{}) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, rng, ok := strings.Cut(r.URL.Path, "/values/")
		if !ok {
			http.NotFound(w, r)
			return
		}
		tab := strings.Trim(strings.SplitN(rng, "!", 2)[0], "'")
		w.Header().Set("Content-Type", "application/json")

		if tab == "forbidden" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
			return
		}
		values, found := tabs[tab]
		if !found {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Unable to parse range: ` + rng + `"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"range": rng, "majorDimension": "ROWS", "values": values})
	}))
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), "sheet-1",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication())
	require.NoError(t, err)
	return c
}

func TestClientReadsTabs(t *testing.T) {
	c := fakeSheets(t, map[string][][]interface{}{
		"banks": {{"id", "name"}, {1, "Bank A"}, {"B2", ""}},
		"index": {{"year", "month"}, {2023, 1}, {2023, 2}},
		"2023-01": {
			{"bank_id", "credit_cards_outstanding", "debit_cards_outstanding", "cc_pos_value", "dc_pos_value"},
			{1, 100, nil, 1234.5, ""},
		},
	})
	ctx := context.Background()

	banks, err := c.Banks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Bank{{ID: "1", Name: "Bank A"}, {ID: "B2", Name: "B2"}}, banks)

	index, err := c.Index(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.MonthIndexEntry{{Year: 2023, Month: 1}, {Year: 2023, Month: 2}}, index)

	recs, err := c.Month(ctx, 2023, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, core.BankID("1"), recs[0].BankID)
	assert.Equal(t, 100.0, core.Value(recs[0].CreditCardsOutstanding))
	assert.Nil(t, recs[0].DebitCardsOutstanding)
	assert.Equal(t, 1234.5, core.Value(recs[0].CCPOSValue))
	assert.Nil(t, recs[0].DCPOSValue)
}

func TestClientMissingTabIsNotFound(t *testing.T) {
	c := fakeSheets(t, map[string][][]interface{}{})

	_, err := c.Month(context.Background(), 2023, 3)
	fe, ok := core.AsFetchError(err)
	require.True(t, ok, "got %v", err)
	assert.True(t, fe.NotFound())
	assert.Equal(t, "data/2023-03.json", err.Error())
}

func TestClientAPIErrorKeepsStatus(t *testing.T) {
	c := fakeSheets(t, nil)

	_, err := c.read(context.Background(), "forbidden", core.BanksPath)
	fe, ok := core.AsFetchError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, http.StatusForbidden, fe.Status)
	assert.Equal(t, core.BanksPath, fe.Path)
}

func TestNilServiceFails(t *testing.T) {
	_, err := (&Client{}).Banks(context.Background())
	assert.EqualError(t, err, "sheets service not initialized")
}

func TestNewFromEnvMissingSpreadsheetID(t *testing.T) {
	_, err := NewFromEnv(context.Background(), "  ")
	assert.EqualError(t, err, "missing GOOGLE_SPREADSHEET_ID")
}

func TestNewFromEnvMissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background(), "sheet-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestCredentialsFromFile(t *testing.T) {
	path := t.TempDir() + "/sa.json"
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600))
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", path)

	b, err := credentialsFromEnv()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"service_account"}`, string(b))
}
