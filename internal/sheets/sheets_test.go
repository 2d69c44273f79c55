package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"attendance/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memBackend is an in-memory Backend that counts creations
type memBackend struct {
	books        map[string]*memBook
	createdBooks int
	openErr      error
}

func newMemBackend() *memBackend {
	return &memBackend{books: make(map[string]*memBook)}
}

func (b *memBackend) OpenBook(_ context.Context, name string) (Book, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	bk, ok := b.books[name]
	if !ok {
		return nil, ErrBookNotFound
	}
	return bk, nil
}

func (b *memBackend) CreateBook(_ context.Context, name string) (Book, error) {
	b.createdBooks++
	bk := &memBook{name: name, sheets: make(map[string]*memSheet)}
	b.books[name] = bk
	return bk, nil
}

type memBook struct {
	name          string
	sheets        map[string]*memSheet
	sharedWith    []string
	createdSheets int
	closed        int
}

func (bk *memBook) Name() string { return bk.name }

func (bk *memBook) Close() error {
	bk.closed++
	return nil
}

func (bk *memBook) Share(_ context.Context, email string) error {
	bk.sharedWith = append(bk.sharedWith, email)
	return nil
}

func (bk *memBook) Sheet(_ context.Context, title string) (Sheet, error) {
	sh, ok := bk.sheets[title]
	if !ok {
		return nil, ErrSheetNotFound
	}
	return sh, nil
}

func (bk *memBook) AddSheet(_ context.Context, title string, rows, cols int) (Sheet, error) {
	bk.createdSheets++
	sh := &memSheet{title: title, rows: rows, cols: cols}
	bk.sheets[title] = sh
	return sh, nil
}

type memSheet struct {
	title      string
	rows, cols int
	values     [][]string
	cells      map[string]string
}

func (s *memSheet) Title() string { return s.title }

func (s *memSheet) AppendRows(_ context.Context, rows [][]string) error {
	s.values = append(s.values, rows...)
	return nil
}

func (s *memSheet) UpdateCell(_ context.Context, cell, value string) error {
	if s.cells == nil {
		s.cells = make(map[string]string)
	}
	s.cells[cell] = value
	return nil
}

func (s *memSheet) Values(_ context.Context) ([][]string, error) {
	return s.values, nil
}

func fixedClock(t time.Time) Option {
	return WithClock(func() time.Time { return t })
}

var day1 = time.Date(2026, 10, 16, 4, 0, 0, 0, time.UTC)

func TestGateway_CreateTwiceSameDay(t *testing.T) {
	backend := newMemBackend()
	g := NewGateway(backend, "admin@example.com", zap.NewNop(), fixedClock(day1))

	status, err := g.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, status)

	status, err = g.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusExisted, status)

	book := backend.books["Attendance_Oct2026"]
	require.NotNil(t, book)
	assert.Equal(t, 1, backend.createdBooks)
	assert.Equal(t, 1, book.createdSheets)
	assert.Equal(t, []string{"admin@example.com"}, book.sharedWith)

	sheet := book.sheets["16Oct"]
	require.NotNil(t, sheet)
	assert.Equal(t, domain.SheetRows, sheet.rows)
	assert.Equal(t, domain.SheetColumns, sheet.cols)

	bookName, sheetName := g.Target()
	assert.Equal(t, "Attendance_Oct2026", bookName)
	assert.Equal(t, "16Oct", sheetName)
}

func TestGateway_CreateNextDayReusesWorkbook(t *testing.T) {
	backend := newMemBackend()
	now := day1
	g := NewGateway(backend, "", zap.NewNop(), WithClock(func() time.Time { return now }))

	_, err := g.Create(context.Background())
	require.NoError(t, err)

	now = now.AddDate(0, 0, 1)
	status, err := g.Create(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusCreated, status)
	assert.Equal(t, 1, backend.createdBooks)
	assert.Len(t, backend.books["Attendance_Oct2026"].sheets, 2)
	assert.Empty(t, backend.books["Attendance_Oct2026"].sharedWith)
}

func TestGateway_CreateOpenError(t *testing.T) {
	backend := newMemBackend()
	backend.openErr = errors.New("quota exceeded")
	g := NewGateway(backend, "", zap.NewNop(), fixedClock(day1))

	_, err := g.Create(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, backend.createdBooks)
}

func TestGateway_AppendRecreatesMissingWorkbook(t *testing.T) {
	backend := newMemBackend()
	g := NewGateway(backend, "", zap.NewNop(), fixedClock(day1))

	_, err := g.Create(context.Background())
	require.NoError(t, err)

	lost := backend.books["Attendance_Oct2026"]
	delete(backend.books, "Attendance_Oct2026")

	err = g.Append(context.Background(), [][]string{{"EXEC", "John Doe", "IT", "", "1"}})
	require.NoError(t, err)

	assert.Equal(t, 2, backend.createdBooks)
	assert.Equal(t, 1, lost.closed)
	sheet := backend.books["Attendance_Oct2026"].sheets["16Oct"]
	require.NotNil(t, sheet)
	assert.Len(t, sheet.values, 1)
}

func TestGateway_AppendWithoutCreate(t *testing.T) {
	backend := newMemBackend()
	g := NewGateway(backend, "", zap.NewNop(), fixedClock(day1))

	err := g.Append(context.Background(), [][]string{domain.AttendanceHeader})
	require.NoError(t, err)

	assert.Len(t, backend.books["Attendance_Oct2026"].sheets["16Oct"].values, 1)
}

func TestGateway_UpdateCell(t *testing.T) {
	backend := newMemBackend()
	g := NewGateway(backend, "", zap.NewNop(), fixedClock(day1))

	err := g.UpdateCell(context.Background(), "D2", "Leave")
	assert.ErrorIs(t, err, ErrTargetMissing)

	_, err = g.Create(context.Background())
	require.NoError(t, err)

	require.NoError(t, g.UpdateCell(context.Background(), "D2", "Leave"))
	assert.Equal(t, "Leave", backend.books["Attendance_Oct2026"].sheets["16Oct"].cells["D2"])

	delete(backend.books["Attendance_Oct2026"].sheets, "16Oct")
	err = g.UpdateCell(context.Background(), "D2", "Present")
	assert.ErrorIs(t, err, ErrTargetMissing)
}

func TestGateway_Locate(t *testing.T) {
	backend := newMemBackend()
	g := NewGateway(backend, "", zap.NewNop(), fixedClock(day1))

	_, err := g.Locate(1)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, err = g.Create(context.Background())
	require.NoError(t, err)
	require.NoError(t, g.Append(context.Background(), [][]string{
		domain.AttendanceHeader,
		{"EXEC", "Ann", "HR", "", "11"},
		{"MGR", "Bob", "IT", "", "22"},
	}))
	require.NoError(t, g.Refresh(context.Background()))

	cell, err := g.Locate(22)
	require.NoError(t, err)
	assert.Equal(t, "D3", cell)

	cell, err = g.Locate(11)
	require.NoError(t, err)
	assert.Equal(t, "D2", cell)

	_, err = g.Locate(33)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NotErrorIs(t, err, ErrNoSnapshot)
}

func TestGateway_RefreshBeforeCreate(t *testing.T) {
	g := NewGateway(newMemBackend(), "", zap.NewNop(), fixedClock(day1))

	err := g.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrTargetMissing)
}

func TestGateway_FailedRolloverKeepsPreviousTarget(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	now := day1
	g := NewGateway(backend, "", zap.NewNop(), WithClock(func() time.Time { return now }))

	_, err := g.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, g.Append(ctx, [][]string{
		domain.AttendanceHeader,
		{"EXEC", "Ann", "HR", "", "11"},
	}))
	require.NoError(t, g.Refresh(ctx))

	now = now.AddDate(0, 0, 1)
	backend.openErr = errors.New("backend unavailable")

	_, err = g.Create(ctx)
	require.Error(t, err)

	bookName, sheetName := g.Target()
	assert.Equal(t, "Attendance_Oct2026", bookName)
	assert.Equal(t, "16Oct", sheetName)

	cell, err := g.Locate(11)
	require.NoError(t, err)
	assert.Equal(t, "D2", cell)

	require.NoError(t, g.UpdateCell(ctx, cell, "Present"))
	assert.Equal(t, "Present", backend.books["Attendance_Oct2026"].sheets["16Oct"].cells["D2"])
}

func TestGateway_RolloverDropsSnapshot(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	now := day1
	g := NewGateway(backend, "", zap.NewNop(), WithClock(func() time.Time { return now }))

	_, err := g.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, g.Append(ctx, [][]string{{"EXEC", "Ann", "HR", "", "11"}}))
	require.NoError(t, g.Refresh(ctx))

	now = now.AddDate(0, 0, 1)
	status, err := g.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, status)

	_, err = g.Locate(11)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestGateway_NewMonthClosesPreviousWorkbook(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	now := time.Date(2026, 10, 31, 4, 0, 0, 0, time.UTC)
	g := NewGateway(backend, "", zap.NewNop(), WithClock(func() time.Time { return now }))

	_, err := g.Create(ctx)
	require.NoError(t, err)

	now = now.AddDate(0, 0, 1)
	_, err = g.Create(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, backend.books["Attendance_Oct2026"].closed)
	assert.Equal(t, 0, backend.books["Attendance_Nov2026"].closed)

	bookName, sheetName := g.Target()
	assert.Equal(t, "Attendance_Nov2026", bookName)
	assert.Equal(t, "01Nov", sheetName)
}
