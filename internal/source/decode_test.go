package source

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardstats/internal/core"
)

func TestDecodeBanks(t *testing.T) {
	banks, err := DecodeBanks([]byte(`[{"id":1,"name":"Bank A"},{"id":"2"}]`))
	require.NoError(t, err)
	assert.Equal(t, []core.Bank{{ID: "1", Name: "Bank A"}, {ID: "2", Name: "2"}}, banks)

	banks, err = DecodeBanks([]byte(`["AXIS  BANK", "", "HDFC Bank"]`))
	require.NoError(t, err)
	assert.Equal(t, []core.Bank{{ID: "AXIS BANK", Name: "AXIS BANK"}, {ID: "HDFC Bank", Name: "HDFC Bank"}}, banks)
}

func TestDecodeIndexIgnoresExtraFields(t *testing.T) {
	index, err := DecodeIndex([]byte(`[{"file":"2023-01.json","year":2023,"month":1,"path":"docs/data/2023-01.json"}]`))
	require.NoError(t, err)
	assert.Equal(t, []core.MonthIndexEntry{{Year: 2023, Month: 1}}, index)
}

func TestDecodeMonthPlainArray(t *testing.T) {
	records, err := DecodeMonth([]byte(`[{"bank_id":1,"year":2023,"month":2,"credit_cards_outstanding":10},{"bank_id":2}]`), 2023, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, core.BankID("1"), records[0].BankID)
	assert.Equal(t, 10.0, core.Value(records[0].CreditCardsOutstanding))
	assert.Equal(t, 2023, records[1].Year)
	assert.Equal(t, 2, records[1].Month)
}

func TestDecodeMonthEnvelope(t *testing.T) {
	data := []byte(`{
		"year": 2025, "month": 9,
		"schema": {"bank": "str"},
		"rows": [
			{"bank": " State  Bank ", "credit_cards_outstanding": 5, "debit_cards_outstanding": null}
		]
	}`)
	records, err := DecodeMonth(data, 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, core.BankID("State Bank"), records[0].BankID)
	assert.Equal(t, 2025, records[0].Year)
	assert.Equal(t, 9, records[0].Month)
	assert.Nil(t, records[0].DebitCardsOutstanding)
}

func TestDecodeParseErrorsAreUnwrapped(t *testing.T) {
	_, err := DecodeMonth([]byte(`[{"bank_id":`), 2023, 1)
	require.Error(t, err)
	var syntaxErr *json.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr), "got %T", err)

	_, err = DecodeIndex([]byte(`{"year":2023}`))
	var typeErr *json.UnmarshalTypeError
	assert.True(t, errors.As(err, &typeErr), "got %T", err)
}

type mapFetcher map[string]string

func (m mapFetcher) Fetch(_ context.Context, path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, core.NewNotFound(path)
	}
	return []byte(data), nil
}

func TestReader(t *testing.T) {
	r := NewReader(mapFetcher{
		core.BanksPath:          `[{"id":1,"name":"Bank A"}]`,
		core.IndexPath:          `[{"year":2023,"month":1}]`,
		core.MonthPath(2023, 1): `[{"bank_id":1,"year":2023,"month":1}]`,
	})
	ctx := context.Background()

	banks, err := r.Banks(ctx)
	require.NoError(t, err)
	assert.Len(t, banks, 1)

	index, err := r.Index(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.MonthIndexEntry{{Year: 2023, Month: 1}}, index)

	records, err := r.Month(ctx, 2023, 1)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = r.Month(ctx, 2023, 2)
	fe, ok := core.AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, "data/2023-02.json", fe.Error())
}
