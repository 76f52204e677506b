package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budgethub/internal/sheets"
)

func noSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	prev := sleep
	sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	t.Cleanup(func() { sleep = prev })
	return &waits
}

func TestRetryPolicy(t *testing.T) {
	waits := noSleep(t)
	p := RetryPolicy{Attempts: 4, Base: 100 * time.Millisecond, Max: 250 * time.Millisecond}

	calls := 0
	err := p.do(context.Background(), "test", func() error {
		calls++
		if calls < 3 {
			return &googleapi.Error{Code: http.StatusTooManyRequests}
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("err = %v, calls = %d", err, calls)
	}
	if len(*waits) != 2 || (*waits)[0] != 100*time.Millisecond || (*waits)[1] != 200*time.Millisecond {
		t.Fatalf("waits = %v", *waits)
	}

	calls = 0
	notFound := &googleapi.Error{Code: http.StatusNotFound}
	if err := p.do(context.Background(), "test", func() error { calls++; return notFound }); !errors.Is(err, notFound) || calls != 1 {
		t.Fatalf("permanent error retried: %v after %d calls", err, calls)
	}

	calls = 0
	unavailable := &googleapi.Error{Code: http.StatusServiceUnavailable}
	if err := p.do(context.Background(), "test", func() error { calls++; return unavailable }); !errors.Is(err, unavailable) || calls != 4 {
		t.Fatalf("err = %v after %d calls", err, calls)
	}
	if got := p.delay(5); got != 250*time.Millisecond {
		t.Fatalf("delay capped at %v", got)
	}
}

func TestQuoteTitle(t *testing.T) {
	if got := quoteTitle("Tom's 2025"); got != "'Tom''s 2025'" {
		t.Fatalf("quoteTitle = %q", got)
	}
}

func TestRowColors(t *testing.T) {
	red := &gsheet.Color{Red: 1}
	white := &gsheet.Color{Red: 1, Green: 1, Blue: 1}
	cell := func(c *gsheet.Color) *gsheet.RowData {
		return &gsheet.RowData{Values: []*gsheet.CellData{{EffectiveFormat: &gsheet.CellFormat{BackgroundColor: c}}}}
	}
	ss := &gsheet.Spreadsheet{Sheets: []*gsheet.Sheet{
		{Properties: &gsheet.SheetProperties{SheetId: 9}, Data: []*gsheet.GridData{{RowData: []*gsheet.RowData{cell(red)}}}},
		{Properties: &gsheet.SheetProperties{SheetId: 3}, Data: []*gsheet.GridData{{
			StartRow: 1,
			RowData:  []*gsheet.RowData{cell(white), {}, cell(red), nil},
		}}},
	}}

	got := rowColors(ss, 3)
	if len(got) != 1 || got[4] != "#ff0000" {
		t.Fatalf("rowColors = %v", got)
	}
	if len(rowColors(nil, 3)) != 0 {
		t.Fatal("nil spreadsheet")
	}
}

func TestCredentials(t *testing.T) {
	ctx := context.Background()
	if _, err := (Credentials{}).ClientOptions(ctx); err == nil || !strings.Contains(err.Error(), "missing oauth client") {
		t.Fatalf("err = %v", err)
	}
	if _, err := (Credentials{OAuthClientJSON: []byte("{}")}).ClientOptions(ctx); err == nil || !strings.Contains(err.Error(), "missing oauth token") {
		t.Fatalf("err = %v", err)
	}
	if _, err := (Credentials{OAuthClientJSON: []byte("invalid-json"), OAuthTokenJSON: []byte("{}")}).ClientOptions(ctx); err == nil || !strings.Contains(err.Error(), "oauth config") {
		t.Fatalf("err = %v", err)
	}

	client := `{"installed":{"client_id":"id","client_secret":"s","redirect_uris":["http://localhost"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`
	opts, err := (Credentials{OAuthClientJSON: []byte(client), OAuthTokenJSON: []byte(`{"access_token":"t"}`)}).ClientOptions(ctx)
	if err != nil || len(opts) != 1 {
		t.Fatalf("opts = %v, err = %v", opts, err)
	}
}

func TestLoadCredentials(t *testing.T) {
	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token.json")
	if err := os.WriteFile(tokenFile, []byte(`{"access_token":"t"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCredentials(CredentialSource{OAuthClientJSON: " {} ", OAuthTokenFile: tokenFile})
	if err != nil {
		t.Fatal(err)
	}
	if string(c.OAuthClientJSON) != "{}" || string(c.OAuthTokenJSON) != `{"access_token":"t"}` {
		t.Fatalf("credentials = %+v", c)
	}

	if _, err := LoadCredentials(CredentialSource{ServiceAccountFile: filepath.Join(dir, "missing.json")}); err == nil {
		t.Fatal("expected an error for a missing service account file")
	}

	c, err = LoadCredentials(CredentialSource{ServiceAccountJSON: `{"type":"service_account"}`, OAuthTokenFile: "/ignored"})
	if err != nil || len(c.ServiceAccountJSON) == 0 || c.OAuthTokenJSON != nil {
		t.Fatalf("service account must win: %+v, %v", c, err)
	}
}

func testSheetsService(t *testing.T, h http.HandlerFunc) *gsheet.Service {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(), goption.WithEndpoint(srv.URL+"/"), goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestClientResolve(t *testing.T) {
	var gets, adds atomic.Int32
	svc := testSheetsService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/spreadsheets/ss"):
			gets.Add(1)
			_, _ = w.Write([]byte(`{"sheets":[{"properties":{"sheetId":7,"title":"Budget"}}]}`))
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/spreadsheets/ss:batchUpdate"):
			adds.Add(1)
			_, _ = w.Write([]byte(`{"replies":[{"addSheet":{"properties":{"sheetId":42,"title":"New"}}}]}`))
		default:
			http.NotFound(w, r)
		}
	})
	c := NewClient(svc)
	ctx := context.Background()

	for range 2 {
		target, err := c.Resolve(ctx, "ss", "Budget")
		if err != nil {
			t.Fatal(err)
		}
		if target != (sheets.Target{SpreadsheetID: "ss", SheetID: 7, Title: "Budget"}) {
			t.Fatalf("target = %+v", target)
		}
	}
	if gets.Load() != 1 {
		t.Fatalf("spreadsheet fetched %d times, want cached", gets.Load())
	}

	created, err := c.Resolve(ctx, "ss", "New")
	if err != nil || created.SheetID != 42 || adds.Load() != 1 {
		t.Fatalf("created = %+v, err = %v, adds = %d", created, err, adds.Load())
	}

	if _, err := c.Resolve(ctx, "", "Budget"); err == nil {
		t.Fatal("expected an error without a spreadsheet id")
	}
}

func TestClientReadValues(t *testing.T) {
	svc := testSheetsService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("valueRenderOption") != "UNFORMATTED_VALUE" {
			http.Error(w, "bad render option", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"'Budget'!A1:Q2","values":[["Home","Jan"],["Salary",100]]}`))
	})
	c := NewClient(svc)
	values, err := c.ReadValues(context.Background(), sheets.Target{SpreadsheetID: "ss", SheetID: 1, Title: "Budget"})
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 2 || values[1][0] != "Salary" || values[1][1] != 100.0 {
		t.Fatalf("values = %v", values)
	}
}

func TestDriveStoreMissingBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/files") {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("spaces") != appDataFolder {
			http.Error(w, "wrong space", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"files":[]}`))
	}))
	t.Cleanup(srv.Close)
	svc, err := drive.NewService(context.Background(), goption.WithEndpoint(srv.URL+"/"), goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatal(err)
	}
	store := NewDriveStore(svc)

	if _, err := store.LoadBudget(context.Background(), "b1"); !errors.Is(err, sheets.ErrBudgetNotFound) {
		t.Fatalf("err = %v", err)
	}
	list, err := store.ListBudgets(context.Background())
	if err != nil || len(list) != 0 {
		t.Fatalf("list = %v, err = %v", list, err)
	}
}

func TestDocumentNames(t *testing.T) {
	if documentName("b1") != "budget-b1.json" {
		t.Fatal(documentName("b1"))
	}
	if got := escapeQuery(`it's\x`); got != `it\'s\\x` {
		t.Fatalf("escapeQuery = %q", got)
	}
}
