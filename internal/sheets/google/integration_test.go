//go:build integration

package google

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"budgethub/internal/core"
	"budgethub/internal/sheets/parse"
	"budgethub/internal/sheets/payload"
)

// Integration tests require real Google credentials.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_PushAndPull(t *testing.T) {
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	creds, err := LoadCredentials(CredentialSource{
		ServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		ServiceAccountFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
		OAuthClientJSON:    os.Getenv("GOOGLE_OAUTH_CLIENT_JSON"),
		OAuthClientFile:    os.Getenv("GOOGLE_OAUTH_CLIENT_FILE"),
		OAuthTokenJSON:     os.Getenv("GOOGLE_OAUTH_TOKEN_JSON"),
		OAuthTokenFile:     os.Getenv("GOOGLE_OAUTH_TOKEN_FILE"),
	})
	if err != nil {
		t.Skipf("credentials not available: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	svc, err := NewSheetsService(ctx, creds)
	if err != nil {
		t.Fatalf("sheets service: %v", err)
	}
	c := NewClient(svc)

	b := core.Budget{
		ID:    "integration",
		Title: "Integration",
		Sections: []core.Section{
			{ID: "inc", Name: "Income", Type: core.Income, ShowTotal: true, Color: "#d9ead3", Items: []core.Item{
				{ID: "salary", Name: "Salary", MonthlyValues: core.Monthly{1000, 1000, 1000}},
			}},
			{ID: "exp", Name: "Expenses", Type: core.Expense, ShowTotal: true, Items: []core.Item{
				{ID: "rent", Name: "Rent", MonthlyValues: core.Monthly{400, 400, 400}},
			}},
			{ID: "sum", Name: "Summary", Type: core.Summary},
		},
	}

	target, err := c.Resolve(ctx, spreadsheetID, fmt.Sprintf("it-%d", time.Now().Unix()))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	p := payload.Generate(b, target)
	if err := c.Clear(ctx, target); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := c.WriteValues(ctx, target, p.ValueRanges); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := c.ApplyFormatting(ctx, target, p.FormatRequests); err != nil {
		t.Fatalf("format: %v", err)
	}

	values, err := c.ReadValues(ctx, target)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	colors, err := c.ReadRowColors(ctx, target)
	if err != nil {
		t.Fatalf("colors: %v", err)
	}
	res := parse.Parse(b, parse.GridFromValues(values), colors)
	if len(res.Changes) != 0 {
		t.Fatalf("round trip produced changes via %s: %+v", res.Strategy, res.Changes)
	}
}
