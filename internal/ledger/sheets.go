// internal/ledger/sheets.go
package ledger

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsOptions configures the Google Sheets client.
type SheetsOptions struct {
	CredentialsFile string
	CredentialsJSON string
	// Endpoint overrides the API base URL; tests point it at httptest.
	Endpoint   string
	HTTPClient *http.Client
}

// NewSheetsService builds an authenticated Sheets API client.
func NewSheetsService(ctx context.Context, opts SheetsOptions) (*sheets.Service, error) {
	clientOpts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	switch {
	case opts.HTTPClient != nil:
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	case opts.CredentialsJSON != "":
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(opts.CredentialsJSON)))
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	svc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// SheetsSheet is one worksheet of a Google spreadsheet.
type SheetsSheet struct {
	svc           *sheets.Service
	spreadsheetID string
	title         string

	mu      sync.Mutex
	sheetID *int64
}

func NewSheetsSheet(svc *sheets.Service, spreadsheetID, title string) *SheetsSheet {
	return &SheetsSheet{svc: svc, spreadsheetID: spreadsheetID, title: title}
}

func (s *SheetsSheet) columnRange(col int) string {
	letter := columnLetter(col)
	return sheetPrefix(s.title) + letter + ":" + letter
}

func (s *SheetsSheet) NextRow(ctx context.Context) (int, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.columnRange(1)).Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	return len(resp.Values) + 1, nil
}

func (s *SheetsSheet) update(ctx context.Context, rng string, values [][]interface{}) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}

func (s *SheetsSheet) WriteRow(ctx context.Context, row int, values []string) error {
	if len(values) == 0 {
		return nil
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	rng := a1(s.title, Range{StartRow: row, EndRow: row, StartCol: 1, EndCol: len(values)})
	return s.update(ctx, rng, [][]interface{}{cells})
}

func (s *SheetsSheet) WriteCell(ctx context.Context, row, col int, value string) error {
	return s.update(ctx, a1(s.title, Cell(row, col)), [][]interface{}{{value}})
}

func (s *SheetsSheet) WriteColumn(ctx context.Context, col, startRow int, values []string) error {
	if len(values) == 0 {
		return nil
	}
	rows := make([][]interface{}, len(values))
	for i, v := range values {
		rows[i] = []interface{}{v}
	}
	rng := a1(s.title, Range{StartRow: startRow, EndRow: startRow + len(values) - 1, StartCol: col, EndCol: col})
	return s.update(ctx, rng, rows)
}

func (s *SheetsSheet) ReadColumn(ctx context.Context, col int) ([]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.columnRange(col)).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(resp.Values))
	for i, row := range resp.Values {
		if len(row) > 0 && row[0] != nil {
			out[i] = fmt.Sprint(row[0])
		}
	}
	return out, nil
}

func (s *SheetsSheet) Colorize(ctx context.Context, r Range, kind ColorKind) error {
	id, err := s.resolveSheetID(ctx)
	if err != nil {
		return err
	}
	c := kind.RGB()
	req := &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          id,
				StartRowIndex:    int64(r.StartRow - 1),
				EndRowIndex:      int64(r.EndRow),
				StartColumnIndex: int64(r.StartCol - 1),
				EndColumnIndex:   int64(r.EndCol),
				ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					BackgroundColor: &sheets.Color{
						Red:             c.Red,
						Green:           c.Green,
						Blue:            c.Blue,
						ForceSendFields: []string{"Red", "Green", "Blue"},
					},
				},
			},
			Fields: "userEnteredFormat.backgroundColor",
		},
	}
	return s.batch(ctx, req)
}

func (s *SheetsSheet) DeleteRow(ctx context.Context, row int) error {
	id, err := s.resolveSheetID(ctx)
	if err != nil {
		return err
	}
	return s.batch(ctx, &sheets.Request{
		DeleteDimension: &sheets.DeleteDimensionRequest{
			Range: &sheets.DimensionRange{
				SheetId:         id,
				Dimension:       "ROWS",
				StartIndex:      int64(row - 1),
				EndIndex:        int64(row),
				ForceSendFields: []string{"SheetId", "StartIndex"},
			},
		},
	})
}

func (s *SheetsSheet) batch(ctx context.Context, reqs ...*sheets.Request) error {
	_, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).
		Do()
	return err
}

// resolveSheetID looks up the numeric sheet id for the title once.
func (s *SheetsSheet) resolveSheetID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sheetID != nil {
		return *s.sheetID, nil
	}
	resp, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for _, sh := range resp.Sheets {
		if sh.Properties != nil && (s.title == "" || sh.Properties.Title == s.title) {
			id := sh.Properties.SheetId
			s.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet %s", s.title, s.spreadsheetID)
}
