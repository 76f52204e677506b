package payload

import (
	"budgethub/internal/layout"

	gsheet "google.golang.org/api/sheets/v4"
)

const (
	labelWidth  = 220
	valueWidth  = 90
	notesWidth  = 260
	numberStyle = "#,##0.00"
)

// formatRequests builds the formatting batch. The reset request must come
// first or colors from a previous sync survive.
func formatRequests(l layout.Layout, sheetID int64) []*gsheet.Request {
	rows := int64(l.LastRow())
	reqs := []*gsheet.Request{resetRequest(sheetID, rows)}

	for _, e := range l.Rows {
		if isBold(e.Kind) {
			reqs = append(reqs, boldRow(sheetID, e.Row))
		}
	}

	for _, e := range l.Rows {
		if c, ok := rowColor(e); ok {
			reqs = append(reqs, backgroundRow(sheetID, e.Row, c))
		}
	}

	if rows > 1 {
		reqs = append(reqs, &gsheet.Request{
			RepeatCell: &gsheet.RepeatCellRequest{
				Range: &gsheet.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    1,
					EndRowIndex:      rows,
					StartColumnIndex: layout.ColJan,
					EndColumnIndex:   layout.ColAverage + 1,
				},
				Cell: &gsheet.CellData{
					UserEnteredFormat: &gsheet.CellFormat{
						NumberFormat: &gsheet.NumberFormat{Type: "NUMBER", Pattern: numberStyle},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		})
	}

	reqs = append(reqs,
		columnWidth(sheetID, layout.ColLabel, layout.ColLabel+1, labelWidth),
		columnWidth(sheetID, layout.ColJan, layout.ColAverage+1, valueWidth),
		columnWidth(sheetID, layout.ColNotes, layout.ColNotes+1, notesWidth),
		&gsheet.Request{
			UpdateDimensionProperties: &gsheet.UpdateDimensionPropertiesRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: layout.ColMeta,
					EndIndex:   layout.ColMeta + 1,
				},
				Properties: &gsheet.DimensionProperties{HiddenByUser: true},
				Fields:     "hiddenByUser",
			},
		},
		&gsheet.Request{
			UpdateSheetProperties: &gsheet.UpdateSheetPropertiesRequest{
				Properties: &gsheet.SheetProperties{
					SheetId: sheetID,
					GridProperties: &gsheet.GridProperties{
						FrozenRowCount:    1,
						FrozenColumnCount: 1,
					},
				},
				Fields: "gridProperties.frozenRowCount,gridProperties.frozenColumnCount",
			},
		},
	)
	return reqs
}

func isBold(k layout.Kind) bool {
	switch k {
	case layout.KindHeader, layout.KindSectionHeader, layout.KindTotal,
		layout.KindExpenseGrandTotal, layout.KindSavingsGrandTotal,
		layout.KindRemaining, layout.KindRunningBalance:
		return true
	}
	return false
}

// rowColor picks the background of a row: section color on the section
// header and total rows, the item's own color on item rows.
func rowColor(e layout.Entry) (*gsheet.Color, bool) {
	switch e.Kind {
	case layout.KindSectionHeader, layout.KindTotal:
		return ParseHexColor(e.Section.Color)
	case layout.KindItem:
		if e.Item.Color != "" {
			return ParseHexColor(e.Item.Color)
		}
	}
	return nil, false
}

func rowRangeGrid(sheetID int64, row int) *gsheet.GridRange {
	return &gsheet.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    int64(row - 1),
		EndRowIndex:      int64(row),
		StartColumnIndex: 0,
		EndColumnIndex:   layout.ColumnCount,
	}
}

func resetRequest(sheetID, rows int64) *gsheet.Request {
	return &gsheet.Request{
		RepeatCell: &gsheet.RepeatCellRequest{
			Range: &gsheet.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    0,
				EndRowIndex:      rows,
				StartColumnIndex: 0,
				EndColumnIndex:   layout.ColumnCount,
			},
			Cell: &gsheet.CellData{
				UserEnteredFormat: &gsheet.CellFormat{
					BackgroundColor: white(),
					// Bold=false is the zero value and would be dropped otherwise.
					TextFormat: &gsheet.TextFormat{Bold: false, ForceSendFields: []string{"Bold"}},
				},
			},
			Fields: "userEnteredFormat.backgroundColor,userEnteredFormat.textFormat.bold",
		},
	}
}

func boldRow(sheetID int64, row int) *gsheet.Request {
	return &gsheet.Request{
		RepeatCell: &gsheet.RepeatCellRequest{
			Range: rowRangeGrid(sheetID, row),
			Cell: &gsheet.CellData{
				UserEnteredFormat: &gsheet.CellFormat{
					TextFormat: &gsheet.TextFormat{Bold: true},
				},
			},
			Fields: "userEnteredFormat.textFormat.bold",
		},
	}
}

func backgroundRow(sheetID int64, row int, c *gsheet.Color) *gsheet.Request {
	return &gsheet.Request{
		RepeatCell: &gsheet.RepeatCellRequest{
			Range: rowRangeGrid(sheetID, row),
			Cell: &gsheet.CellData{
				UserEnteredFormat: &gsheet.CellFormat{BackgroundColor: c},
			},
			Fields: "userEnteredFormat.backgroundColor",
		},
	}
}

func columnWidth(sheetID int64, start, end int, px int64) *gsheet.Request {
	return &gsheet.Request{
		UpdateDimensionProperties: &gsheet.UpdateDimensionPropertiesRequest{
			Range: &gsheet.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "COLUMNS",
				StartIndex: int64(start),
				EndIndex:   int64(end),
			},
			Properties: &gsheet.DimensionProperties{PixelSize: px},
			Fields:     "pixelSize",
		},
	}
}
