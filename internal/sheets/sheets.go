// Package sheets maintains the attendance spreadsheet: one workbook per month
// holding one sheet per day.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"attendance/internal/domain"

	"go.uber.org/zap"
)

var (
	// ErrBookNotFound is returned by a Backend when no workbook has the name
	ErrBookNotFound = errors.New("workbook not found")
	// ErrSheetNotFound is returned by a Book when no sheet has the title
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrTargetMissing means the stored workbook or sheet reference no longer
	// resolves. The attendance sheet is the record of truth, so callers treat
	// this as fatal.
	ErrTargetMissing = errors.New("attendance sheet target missing")
	// ErrNoSnapshot is returned by Locate before any rows have been cached
	ErrNoSnapshot = errors.New("no sheet data cached")
	// ErrUserNotFound is returned by Locate when the cached rows do not
	// contain the user
	ErrUserNotFound = errors.New("user not in cached sheet data")
)

// Backend opens and creates workbooks on a spreadsheet service
type Backend interface {
	OpenBook(ctx context.Context, name string) (Book, error)
	CreateBook(ctx context.Context, name string) (Book, error)
}

// Book is a single workbook
type Book interface {
	Name() string
	Share(ctx context.Context, email string) error
	Sheet(ctx context.Context, title string) (Sheet, error)
	AddSheet(ctx context.Context, title string, rows, cols int) (Sheet, error)
}

// Sheet is a single worksheet inside a workbook
type Sheet interface {
	Title() string
	AppendRows(ctx context.Context, rows [][]string) error
	UpdateCell(ctx context.Context, cell, value string) error
	Values(ctx context.Context) ([][]string, error)
}

// Status reports what Create did
type Status int

const (
	StatusExisted Status = iota
	StatusCreated
)

func (s Status) String() string {
	if s == StatusCreated {
		return "created"
	}
	return "existed"
}

// Gateway tracks the current day's sheet and a cached copy of its rows
type Gateway struct {
	backend Backend
	admin   string
	now     func() time.Time
	logger  *zap.Logger

	mu        sync.Mutex
	bookName  string
	sheetName string
	book      Book
	snapshot  [][]string
}

// Option configures a Gateway
type Option func(*Gateway)

// WithClock overrides the time source used to derive workbook and sheet names
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		g.now = now
	}
}

// NewGateway creates a gateway that shares new workbooks with admin
func NewGateway(backend Backend, admin string, logger *zap.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		backend: backend,
		admin:   admin,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Target returns the current workbook and sheet names
func (g *Gateway) Target() (book, sheet string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bookName, g.sheetName
}

// Create points the gateway at today's sheet, creating the monthly workbook
// and the daily sheet when they do not exist yet.
func (g *Gateway) Create(ctx context.Context) (Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.create(ctx)
}

func (g *Gateway) create(ctx context.Context) (Status, error) {
	day := domain.Day{Date: g.now()}
	bookName := day.BookName()
	sheetName := day.SheetName()

	g.logger.Info("Preparing attendance sheet",
		zap.String("book", bookName),
		zap.String("sheet", sheetName),
	)

	book, err := g.backend.OpenBook(ctx, bookName)
	switch {
	case errors.Is(err, ErrBookNotFound):
		g.logger.Info("Workbook not found, creating", zap.String("book", bookName))
		book, err = g.backend.CreateBook(ctx, bookName)
		if err != nil {
			return StatusExisted, fmt.Errorf("create workbook %s: %w", bookName, err)
		}
		if g.admin != "" {
			g.logger.Info("Sharing workbook with admin", zap.String("email", g.admin))
			if err := book.Share(ctx, g.admin); err != nil {
				return StatusExisted, fmt.Errorf("share workbook %s: %w", bookName, err)
			}
		}
	case err != nil:
		return StatusExisted, fmt.Errorf("open workbook %s: %w", bookName, err)
	}

	_, err = book.Sheet(ctx, sheetName)
	if err == nil {
		g.logger.Info("Sheet already exists", zap.String("sheet", sheetName))
		g.setTarget(bookName, sheetName, book)
		return StatusExisted, nil
	}
	if !errors.Is(err, ErrSheetNotFound) {
		return StatusExisted, fmt.Errorf("open sheet %s: %w", sheetName, err)
	}

	if _, err := book.AddSheet(ctx, sheetName, domain.SheetRows, domain.SheetColumns); err != nil {
		return StatusExisted, fmt.Errorf("add sheet %s: %w", sheetName, err)
	}
	g.setTarget(bookName, sheetName, book)
	g.snapshot = nil

	g.logger.Info("Created sheet", zap.String("book", bookName), zap.String("sheet", sheetName))
	return StatusCreated, nil
}

// setTarget switches the gateway to a resolved workbook and sheet. The cached
// rows only survive when the target is unchanged.
func (g *Gateway) setTarget(bookName, sheetName string, book Book) {
	if bookName != g.bookName || sheetName != g.sheetName {
		g.snapshot = nil
	}
	g.bookName = bookName
	g.sheetName = sheetName
	g.replaceBook(book)
}

// replaceBook stores book, closing the previous handle when the backend
// hands out closable books
func (g *Gateway) replaceBook(book Book) {
	if g.book != nil && g.book != book {
		if c, ok := g.book.(io.Closer); ok {
			if err := c.Close(); err != nil {
				g.logger.Warn("Failed to close workbook", zap.String("book", g.book.Name()), zap.Error(err))
			}
		}
	}
	g.book = book
}

// Append adds rows to today's sheet. A workbook or sheet that disappeared is
// recreated first; recreation through Append never seeds the sheet.
func (g *Gateway) Append(ctx context.Context, rows [][]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Info("Appending rows to workbook", zap.Int("rows", len(rows)))

	if g.bookName == "" {
		if _, err := g.create(ctx); err != nil {
			return err
		}
	}

	book, err := g.backend.OpenBook(ctx, g.bookName)
	if errors.Is(err, ErrBookNotFound) {
		g.logger.Warn("Workbook not found, recreating", zap.String("book", g.bookName))
		if _, err := g.create(ctx); err != nil {
			return err
		}
		book, err = g.book, nil
	}
	if err != nil {
		return fmt.Errorf("open workbook %s: %w", g.bookName, err)
	}
	g.replaceBook(book)

	sheet, err := book.Sheet(ctx, g.sheetName)
	if errors.Is(err, ErrSheetNotFound) {
		g.logger.Warn("Sheet not found, recreating", zap.String("sheet", g.sheetName))
		if _, err := g.create(ctx); err != nil {
			return err
		}
		sheet, err = g.book.Sheet(ctx, g.sheetName)
	}
	if err != nil {
		return fmt.Errorf("open sheet %s: %w", g.sheetName, err)
	}

	if err := sheet.AppendRows(ctx, rows); err != nil {
		return fmt.Errorf("append to %s/%s: %w", g.bookName, g.sheetName, err)
	}
	return nil
}

// UpdateCell writes value into cell of today's sheet using the stored
// workbook reference. A missing workbook or sheet yields ErrTargetMissing.
func (g *Gateway) UpdateCell(ctx context.Context, cell, value string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Info("Updating cell", zap.String("cell", cell))

	if g.book == nil {
		return fmt.Errorf("%w: workbook not created", ErrTargetMissing)
	}

	sheet, err := g.book.Sheet(ctx, g.sheetName)
	if errors.Is(err, ErrSheetNotFound) || errors.Is(err, ErrBookNotFound) {
		return fmt.Errorf("%w: %s/%s: %v", ErrTargetMissing, g.bookName, g.sheetName, err)
	}
	if err != nil {
		return fmt.Errorf("open sheet %s: %w", g.sheetName, err)
	}

	if err := sheet.UpdateCell(ctx, cell, value); err != nil {
		return fmt.Errorf("update %s in %s/%s: %w", cell, g.bookName, g.sheetName, err)
	}
	return nil
}

// Refresh reloads the cached rows of today's sheet
func (g *Gateway) Refresh(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.book == nil {
		return fmt.Errorf("%w: workbook not created", ErrTargetMissing)
	}

	sheet, err := g.book.Sheet(ctx, g.sheetName)
	if err != nil {
		return fmt.Errorf("open sheet %s: %w", g.sheetName, err)
	}

	values, err := sheet.Values(ctx)
	if err != nil {
		return fmt.Errorf("read %s/%s: %w", g.bookName, g.sheetName, err)
	}
	g.snapshot = values

	g.logger.Info("Refreshed sheet snapshot", zap.Int("rows", len(values)))
	return nil
}

// Locate returns the status cell of the user's row in the cached rows
func (g *Gateway) Locate(userID int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.snapshot) == 0 {
		return "", ErrNoSnapshot
	}

	for i, row := range g.snapshot {
		if id, ok := domain.RowUserID(row); ok && id == userID {
			return domain.StatusCell(i + 1), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUserNotFound, strconv.FormatInt(userID, 10))
}
