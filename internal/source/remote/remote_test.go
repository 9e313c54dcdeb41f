package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"cardstats/internal/core"
	"cardstats/internal/source"
)

func newTestServer(t *testing.T, files map[string]string) (*httptest.Server, *[]string) {
	t.Helper()
	var mu sync.Mutex
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requested = append(requested, r.URL.Path)
		mu.Unlock()
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &requested
}

func TestFetchSuccessAndPathJoin(t *testing.T) {
	srv, requested := newTestServer(t, map[string]string{
		"/site/data/2023-03.json": `[{"bank_id":1,"year":2023,"month":3}]`,
	})
	c, err := New(srv.URL+"/site/", 0)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	r := source.NewReader(c)
	records, err := r.Month(context.Background(), 2023, 3)
	if err != nil {
		t.Fatalf("month: %v", err)
	}
	if len(records) != 1 || records[0].BankID != "1" {
		t.Fatalf("unexpected records: %+v", records)
	}
	if len(*requested) != 1 || (*requested)[0] != "/site/data/2023-03.json" {
		t.Fatalf("unexpected requests: %v", *requested)
	}
}

func TestFetchNonSuccessIsFetchError(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	u, _ := url.Parse(srv.URL)
	c := NewWithHTTPClient(u, srv.Client())

	_, err := c.Fetch(context.Background(), core.IndexPath)
	fe, ok := core.AsFetchError(err)
	if !ok {
		t.Fatalf("expected FetchError, got %T %v", err, err)
	}
	if fe.Error() != "data/index.json" || fe.Status != http.StatusNotFound {
		t.Fatalf("unexpected fetch error: %+v", fe)
	}
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c, err := New(srv.URL, 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = c.Fetch(context.Background(), core.BanksPath)
	if fe, ok := core.AsFetchError(err); !ok || fe.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 FetchError, got %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	for _, base := range []string{"", "ftp://example.com", "://bad"} {
		if _, err := New(base, 0); err == nil {
			t.Fatalf("expected error for base %q", base)
		}
	}
}
