package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"data/index.json":   `[{"year":2023,"month":1}]`,
		"data/banks.json":   `[{"id":1,"name":"Bank A"}]`,
		"data/2023-01.json": `[{"bank_id":1,"year":2023,"month":1,"credit_cards_outstanding":100}]`,
	}
	for name, body := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}
