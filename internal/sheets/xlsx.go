package sheets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// XLSXBackend stores each workbook as an .xlsx file in a local directory.
// Open workbooks are kept per name until closed.
type XLSXBackend struct {
	dir    string
	logger *zap.Logger
	mu     sync.Mutex
	books  map[string]*xlsxBook
}

// NewXLSXBackend creates the directory if needed
func NewXLSXBackend(dir string, logger *zap.Logger) (*XLSXBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create xlsx dir: %w", err)
	}
	return &XLSXBackend{dir: dir, logger: logger, books: make(map[string]*xlsxBook)}, nil
}

// Close closes every open workbook
func (b *XLSXBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for name, bk := range b.books {
		if err := bk.closeLocked(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(b.books, name)
	}
	return errors.Join(errs...)
}

// forget drops and closes a cached workbook. Callers hold b.mu.
func (b *XLSXBackend) forget(name string) {
	if bk, ok := b.books[name]; ok {
		delete(b.books, name)
		if err := bk.closeLocked(); err != nil {
			b.logger.Warn("Failed to close workbook", zap.String("book", name), zap.Error(err))
		}
	}
}

func (b *XLSXBackend) path(name string) string {
	return filepath.Join(b.dir, name+".xlsx")
}

// OpenBook returns the open workbook or opens its file
func (b *XLSXBackend) OpenBook(_ context.Context, name string) (Book, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.path(name)
	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		b.forget(name)
		return nil, ErrBookNotFound
	}
	if bk, ok := b.books[name]; ok {
		return bk, nil
	}

	f, err := excelize.OpenFile(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	bk := &xlsxBook{backend: b, name: name, path: p, file: f}
	b.books[name] = bk
	return bk, nil
}

// CreateBook writes a new empty workbook file
func (b *XLSXBackend) CreateBook(_ context.Context, name string) (Book, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.forget(name)

	p := b.path(name)
	f := excelize.NewFile()
	if err := f.SaveAs(p); err != nil {
		f.Close()
		return nil, fmt.Errorf("save %s: %w", p, err)
	}
	bk := &xlsxBook{backend: b, name: name, path: p, file: f}
	b.books[name] = bk
	return bk, nil
}

type xlsxBook struct {
	backend *XLSXBackend
	name    string
	path    string
	file    *excelize.File
	closed  bool
}

func (bk *xlsxBook) Name() string { return bk.name }

// Close releases the workbook file
func (bk *xlsxBook) Close() error {
	bk.backend.mu.Lock()
	defer bk.backend.mu.Unlock()

	if bk.backend.books[bk.name] == bk {
		delete(bk.backend.books, bk.name)
	}
	return bk.closeLocked()
}

func (bk *xlsxBook) closeLocked() error {
	if bk.closed {
		return nil
	}
	bk.closed = true
	return bk.file.Close()
}

// Share is a no-op for local files
func (bk *xlsxBook) Share(_ context.Context, email string) error {
	bk.backend.logger.Debug("Skipping share for local workbook",
		zap.String("book", bk.name),
		zap.String("email", email),
	)
	return nil
}

func (bk *xlsxBook) Sheet(_ context.Context, title string) (Sheet, error) {
	bk.backend.mu.Lock()
	defer bk.backend.mu.Unlock()

	if _, err := os.Stat(bk.path); errors.Is(err, fs.ErrNotExist) {
		return nil, ErrBookNotFound
	}

	idx, err := bk.file.GetSheetIndex(title)
	if err != nil {
		return nil, fmt.Errorf("lookup sheet %s: %w", title, err)
	}
	if idx == -1 {
		return nil, ErrSheetNotFound
	}
	return &xlsxSheet{book: bk, title: title}, nil
}

// AddSheet creates a sheet. Local sheets grow on demand, so rows and cols are
// not enforced.
func (bk *xlsxBook) AddSheet(_ context.Context, title string, _, _ int) (Sheet, error) {
	bk.backend.mu.Lock()
	defer bk.backend.mu.Unlock()

	if _, err := bk.file.NewSheet(title); err != nil {
		return nil, fmt.Errorf("new sheet %s: %w", title, err)
	}
	if err := bk.file.Save(); err != nil {
		return nil, fmt.Errorf("save %s: %w", bk.path, err)
	}
	return &xlsxSheet{book: bk, title: title}, nil
}

type xlsxSheet struct {
	book  *xlsxBook
	title string
}

func (s *xlsxSheet) Title() string { return s.title }

func (s *xlsxSheet) AppendRows(_ context.Context, rows [][]string) error {
	s.book.backend.mu.Lock()
	defer s.book.backend.mu.Unlock()

	f := s.book.file
	existing, err := f.GetRows(s.title)
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}

	next := len(existing) + 1
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, next+i)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(s.title, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", next+i, err)
		}
	}
	return f.Save()
}

func (s *xlsxSheet) UpdateCell(_ context.Context, cell, value string) error {
	s.book.backend.mu.Lock()
	defer s.book.backend.mu.Unlock()

	if err := s.book.file.SetCellValue(s.title, cell, value); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	return s.book.file.Save()
}

func (s *xlsxSheet) Values(_ context.Context) ([][]string, error) {
	s.book.backend.mu.Lock()
	defer s.book.backend.mu.Unlock()

	return s.book.file.GetRows(s.title)
}
