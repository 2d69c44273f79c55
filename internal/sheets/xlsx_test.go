package sheets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"attendance/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestXLSXBackend_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewXLSXBackend(dir, zap.NewNop())
	require.NoError(t, err)

	defer backend.Close()

	g := NewGateway(backend, "admin@example.com", zap.NewNop(), fixedClock(day1))
	ctx := context.Background()

	status, err := g.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, status)
	assert.FileExists(t, filepath.Join(dir, "Attendance_Oct2026.xlsx"))

	status, err = g.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusExisted, status)

	require.NoError(t, g.Append(ctx, [][]string{
		domain.AttendanceHeader,
		domain.AttendanceRow(domain.User{UserID: 7, Title: "EXEC", Name: "John Doe", Department: "IT"}),
	}))
	require.NoError(t, g.Refresh(ctx))

	cell, err := g.Locate(7)
	require.NoError(t, err)
	assert.Equal(t, "D2", cell)

	require.NoError(t, g.UpdateCell(ctx, cell, "Leave"))

	f, err := excelize.OpenFile(filepath.Join(dir, "Attendance_Oct2026.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	values, err := f.GetRows("16Oct")
	require.NoError(t, err)

	require.Len(t, values, 2)
	assert.Equal(t, domain.AttendanceHeader, values[0])
	assert.Equal(t, []string{"EXEC", "John Doe", "IT", "Leave", "7"}, values[1])
}

func TestXLSXBackend_MissingBook(t *testing.T) {
	backend, err := NewXLSXBackend(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	_, err = backend.OpenBook(context.Background(), "Attendance_Jan2027")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestXLSXBackend_DeletedFileIsTargetMissing(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewXLSXBackend(dir, zap.NewNop())
	require.NoError(t, err)

	g := NewGateway(backend, "", zap.NewNop(), fixedClock(day1))
	_, err = g.Create(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "Attendance_Oct2026.xlsx")))

	err = g.UpdateCell(context.Background(), "D2", "Leave")
	assert.ErrorIs(t, err, ErrTargetMissing)
}

func TestXLSXBackend_ReusesOpenWorkbook(t *testing.T) {
	ctx := context.Background()
	backend, err := NewXLSXBackend(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	defer backend.Close()

	created, err := backend.CreateBook(ctx, "Attendance_Oct2026")
	require.NoError(t, err)

	first, err := backend.OpenBook(ctx, "Attendance_Oct2026")
	require.NoError(t, err)
	second, err := backend.OpenBook(ctx, "Attendance_Oct2026")
	require.NoError(t, err)

	assert.Same(t, created, first)
	assert.Same(t, first, second)

	require.NoError(t, first.(*xlsxBook).Close())
	assert.NoError(t, first.(*xlsxBook).Close())

	reopened, err := backend.OpenBook(ctx, "Attendance_Oct2026")
	require.NoError(t, err)
	assert.NotSame(t, first, reopened)
}
