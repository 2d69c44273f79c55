package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const spreadsheetMime = "application/vnd.google-apps.spreadsheet"

// GoogleBackend keeps workbooks in Google Sheets. Drive is used to find
// workbooks by name and to share them.
type GoogleBackend struct {
	sheets *gsheets.Service
	drive  *drive.Service
	logger *zap.Logger
}

// NewGoogleBackend connects with a service-account credentials file
func NewGoogleBackend(ctx context.Context, credentialsFile string, logger *zap.Logger) (*GoogleBackend, error) {
	opts := []option.ClientOption{
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope, drive.DriveScope),
	}

	sheetsSvc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}

	return &GoogleBackend{sheets: sheetsSvc, drive: driveSvc, logger: logger}, nil
}

// OpenBook finds a spreadsheet by exact name
func (b *GoogleBackend) OpenBook(ctx context.Context, name string) (Book, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		strings.ReplaceAll(name, "'", `\'`), spreadsheetMime)

	list, err := b.drive.Files.List().Q(q).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("search workbook %s: %w", name, err)
	}
	if len(list.Files) == 0 {
		return nil, ErrBookNotFound
	}
	return &googleBook{backend: b, id: list.Files[0].Id, name: name}, nil
}

// CreateBook creates a new spreadsheet owned by the service account
func (b *GoogleBackend) CreateBook(ctx context.Context, name string) (Book, error) {
	ss, err := b.sheets.Spreadsheets.Create(&gsheets.Spreadsheet{
		Properties: &gsheets.SpreadsheetProperties{Title: name},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create spreadsheet %s: %w", name, err)
	}
	b.logger.Info("Created spreadsheet", zap.String("book", name), zap.String("id", ss.SpreadsheetId))
	return &googleBook{backend: b, id: ss.SpreadsheetId, name: name}, nil
}

type googleBook struct {
	backend *GoogleBackend
	id      string
	name    string
}

func (bk *googleBook) Name() string { return bk.name }

func (bk *googleBook) Share(ctx context.Context, email string) error {
	_, err := bk.backend.drive.Permissions.Create(bk.id, &drive.Permission{
		Type:         "user",
		Role:         "writer",
		EmailAddress: email,
	}).Context(ctx).Do()
	return err
}

func (bk *googleBook) Sheet(ctx context.Context, title string) (Sheet, error) {
	ss, err := bk.backend.sheets.Spreadsheets.Get(bk.id).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get spreadsheet %s: %w", bk.name, err)
	}

	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return &googleSheet{book: bk, title: title}, nil
		}
	}
	return nil, ErrSheetNotFound
}

func (bk *googleBook) AddSheet(ctx context.Context, title string, rows, cols int) (Sheet, error) {
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{
					Title: title,
					GridProperties: &gsheets.GridProperties{
						RowCount:    int64(rows),
						ColumnCount: int64(cols),
					},
				},
			},
		}},
	}
	if _, err := bk.backend.sheets.Spreadsheets.BatchUpdate(bk.id, req).Context(ctx).Do(); err != nil {
		return nil, fmt.Errorf("add sheet %s: %w", title, err)
	}
	return &googleSheet{book: bk, title: title}, nil
}

type googleSheet struct {
	book  *googleBook
	title string
}

func (s *googleSheet) Title() string { return s.title }

func (s *googleSheet) rangeOf(cell string) string {
	return fmt.Sprintf("'%s'!%s", s.title, cell)
}

func (s *googleSheet) AppendRows(ctx context.Context, rows [][]string) error {
	_, err := s.book.backend.sheets.Spreadsheets.Values.
		Append(s.book.id, s.rangeOf("A1"), &gsheets.ValueRange{Values: toValues(rows)}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func (s *googleSheet) UpdateCell(ctx context.Context, cell, value string) error {
	_, err := s.book.backend.sheets.Spreadsheets.Values.
		Update(s.book.id, s.rangeOf(cell), &gsheets.ValueRange{Values: [][]interface{}{{value}}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (s *googleSheet) Values(ctx context.Context) ([][]string, error) {
	vr, err := s.book.backend.sheets.Spreadsheets.Values.Get(s.book.id, fmt.Sprintf("'%s'", s.title)).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	out := make([][]string, len(vr.Values))
	for i, row := range vr.Values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = fmt.Sprint(v)
		}
	}
	return out, nil
}

func toValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		out[i] = make([]interface{}, len(row))
		for j, v := range row {
			out[i][j] = v
		}
	}
	return out
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
