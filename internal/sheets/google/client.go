// Package google implements the spreadsheet and document ports on top of
// the Google Sheets and Drive APIs.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gsheet "google.golang.org/api/sheets/v4"

	"budgethub/internal/cache"
	"budgethub/internal/layout"
	"budgethub/internal/log"
	"budgethub/internal/sheets"
	"budgethub/internal/sheets/payload"
)

// Client is a sheets.Gateway backed by the Sheets API.
type Client struct {
	svc     *gsheet.Service
	targets *cache.LRUCache[sheets.Target]
	retry   RetryPolicy
	logger  *slog.Logger
}

var _ sheets.Gateway = (*Client)(nil)

type Option func(*Client)

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithTargetCache replaces the cache of resolved tabs.
func WithTargetCache(lru *cache.LRUCache[sheets.Target]) Option {
	return func(c *Client) { c.targets = lru }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(svc *gsheet.Service, opts ...Option) *Client {
	c := &Client{
		svc:     svc,
		targets: cache.NewLRUCache[sheets.Target](64, 10*time.Minute),
		retry:   DefaultRetryPolicy,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	c.logger = c.logger.With(log.FieldComponent, log.ComponentSheets)
	return c
}

// TargetCache exposes the resolved tab cache for periodic cleanup.
func (c *Client) TargetCache() *cache.LRUCache[sheets.Target] {
	return c.targets
}

func targetKey(spreadsheetID, title string) string {
	return spreadsheetID + "\x00" + title
}

// quoteTitle renders a tab title for use in A1 notation.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func (c *Client) Resolve(ctx context.Context, spreadsheetID, title string) (sheets.Target, error) {
	if c.svc == nil {
		return sheets.Target{}, errors.New("sheets service not initialized")
	}
	if spreadsheetID == "" || title == "" {
		return sheets.Target{}, errors.New("resolve sheet: spreadsheet id and title are required")
	}
	return c.targets.GetOrLoad(ctx, targetKey(spreadsheetID, title), func(ctx context.Context) (sheets.Target, error) {
		return c.resolve(ctx, spreadsheetID, title)
	})
}

func (c *Client) resolve(ctx context.Context, spreadsheetID, title string) (sheets.Target, error) {
	var ss *gsheet.Spreadsheet
	err := c.retry.do(ctx, log.OpResolve, func() (err error) {
		ss, err = c.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties(sheetId,title)").Context(ctx).Do()
		return err
	})
	if err != nil {
		return sheets.Target{}, fmt.Errorf("get spreadsheet %s: %w", spreadsheetID, err)
	}
	if id, ok := findSheet(ss, title); ok {
		return sheets.Target{SpreadsheetID: spreadsheetID, SheetID: id, Title: title}, nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
	}}}
	var resp *gsheet.BatchUpdateSpreadsheetResponse
	err = c.retry.do(ctx, log.OpResolve, func() (err error) {
		resp, err = c.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return sheets.Target{}, fmt.Errorf("add sheet %q: %w", title, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return sheets.Target{}, fmt.Errorf("add sheet %q: empty reply", title)
	}
	id := resp.Replies[0].AddSheet.Properties.SheetId
	fields := log.NewFields().WithOperation(log.OpResolve).WithSheet(spreadsheetID, title)
	fields[log.FieldSheetID] = id
	c.logger.InfoContext(ctx, "Created sheet tab", fields.ToSlice()...)
	return sheets.Target{SpreadsheetID: spreadsheetID, SheetID: id, Title: title}, nil
}

func findSheet(ss *gsheet.Spreadsheet, title string) (int64, bool) {
	if ss == nil {
		return 0, false
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return sh.Properties.SheetId, true
		}
	}
	return 0, false
}

// forget drops a cached target after a failed call; the tab may have been
// renamed or deleted.
func (c *Client) forget(t sheets.Target, err error) error {
	if err != nil {
		c.targets.Delete(targetKey(t.SpreadsheetID, t.Title))
	}
	return err
}

func (c *Client) Clear(ctx context.Context, t sheets.Target) error {
	err := c.retry.do(ctx, "clear", func() error {
		_, err := c.svc.Spreadsheets.Values.Clear(t.SpreadsheetID, quoteTitle(t.Title), &gsheet.ClearValuesRequest{}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return c.forget(t, fmt.Errorf("clear %s: %w", t.Title, err))
	}
	return nil
}

// WriteValues writes all ranges in one batch with USER_ENTERED input, so
// strings starting with "=" become formulas.
func (c *Client) WriteValues(ctx context.Context, t sheets.Target, ranges []*gsheet.ValueRange) error {
	if len(ranges) == 0 {
		return nil
	}
	req := &gsheet.BatchUpdateValuesRequest{ValueInputOption: "USER_ENTERED", Data: ranges}
	err := c.retry.do(ctx, "write_values", func() error {
		_, err := c.svc.Spreadsheets.Values.BatchUpdate(t.SpreadsheetID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return c.forget(t, fmt.Errorf("write values to %s: %w", t.Title, err))
	}
	return nil
}

func (c *Client) ApplyFormatting(ctx context.Context, t sheets.Target, requests []*gsheet.Request) error {
	if len(requests) == 0 {
		return nil
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: requests}
	err := c.retry.do(ctx, "format", func() error {
		_, err := c.svc.Spreadsheets.BatchUpdate(t.SpreadsheetID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return c.forget(t, fmt.Errorf("format %s: %w", t.Title, err))
	}
	return nil
}

// ReadValues returns computed values: formulas come back as their results.
func (c *Client) ReadValues(ctx context.Context, t sheets.Target) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:%s", quoteTitle(t.Title), layout.ColumnLetter(layout.ColumnCount-1))
	var vr *gsheet.ValueRange
	err := c.retry.do(ctx, "read_values", func() (err error) {
		vr, err = c.svc.Spreadsheets.Values.Get(t.SpreadsheetID, rng).
			ValueRenderOption("UNFORMATTED_VALUE").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, c.forget(t, fmt.Errorf("read %s: %w", rng, err))
	}
	return vr.Values, nil
}

func (c *Client) ReadRowColors(ctx context.Context, t sheets.Target) (map[int]string, error) {
	rng := quoteTitle(t.Title) + "!A:A"
	var ss *gsheet.Spreadsheet
	err := c.retry.do(ctx, "read_colors", func() (err error) {
		ss, err = c.svc.Spreadsheets.Get(t.SpreadsheetID).
			Ranges(rng).
			IncludeGridData(true).
			Fields("sheets(properties.sheetId,data(startRow,rowData.values.effectiveFormat.backgroundColor))").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, c.forget(t, fmt.Errorf("read colors %s: %w", rng, err))
	}
	return rowColors(ss, t.SheetID), nil
}

// rowColors extracts label-cell backgrounds keyed by 1-based row. White
// and missing backgrounds are omitted.
func rowColors(ss *gsheet.Spreadsheet, sheetID int64) map[int]string {
	out := make(map[int]string)
	if ss == nil {
		return out
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.SheetId != sheetID {
			continue
		}
		for _, gd := range sh.Data {
			for i, rd := range gd.RowData {
				if rd == nil || len(rd.Values) == 0 || rd.Values[0] == nil || rd.Values[0].EffectiveFormat == nil {
					continue
				}
				hex := payload.HexColor(rd.Values[0].EffectiveFormat.BackgroundColor)
				if hex == "" || hex == "#ffffff" {
					continue
				}
				out[int(gd.StartRow)+i+1] = hex
			}
		}
	}
	return out
}
