package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"attendance/internal/metrics"
	"attendance/internal/sheets"

	"go.uber.org/zap"
)

const maxStatusLength = 50

var (
	// ErrInvalidStatus is returned for an empty or overlong status
	ErrInvalidStatus = errors.New("status must be 1-50 characters")
	// ErrNotOnSheet is returned when today's sheet has no row for the user
	ErrNotOnSheet = errors.New("user is not on today's sheet")
	// ErrSheetNotReady is returned before today's sheet has been loaded
	ErrSheetNotReady = errors.New("today's sheet is not ready")
)

// SheetLocator finds and writes a user's status cell
type SheetLocator interface {
	Locate(userID int64) (string, error)
	UpdateCell(ctx context.Context, cell, value string) error
}

// AttendanceService records daily statuses
type AttendanceService struct {
	sheet   SheetLocator
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(sheet SheetLocator, m *metrics.Metrics, logger *zap.Logger) *AttendanceService {
	return &AttendanceService{
		sheet:   sheet,
		metrics: m,
		logger:  logger,
	}
}

// NormalizeStatus trims the status and checks its length
func NormalizeStatus(status string) (string, error) {
	status = strings.TrimSpace(status)
	if n := utf8.RuneCountInString(status); n == 0 || n > maxStatusLength {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// UpdateStatus writes status into the user's row of today's sheet. A wrapped
// sheets.ErrTargetMissing is passed through for the caller to halt on.
func (s *AttendanceService) UpdateStatus(ctx context.Context, userID int64, status string) error {
	status, err := NormalizeStatus(status)
	if err != nil {
		s.metrics.StatusUpdate("invalid")
		return err
	}

	s.logger.Info("Updating attendance status",
		zap.Int64("user_id", userID),
		zap.String("status", status),
	)

	cell, err := s.sheet.Locate(userID)
	switch {
	case errors.Is(err, sheets.ErrNoSnapshot):
		s.metrics.StatusUpdate("not_ready")
		return ErrSheetNotReady
	case errors.Is(err, sheets.ErrUserNotFound):
		s.metrics.StatusUpdate("not_found")
		return ErrNotOnSheet
	case err != nil:
		s.metrics.StatusUpdate("failed")
		return fmt.Errorf("locate user %d: %w", userID, err)
	}

	if err := s.sheet.UpdateCell(ctx, cell, status); err != nil {
		s.metrics.StatusUpdate("failed")
		return fmt.Errorf("update status for %d: %w", userID, err)
	}

	s.metrics.StatusUpdate("updated")
	return nil
}
