package service

import (
	"context"
	"fmt"

	"attendance/internal/domain"
	"attendance/internal/metrics"
	"attendance/internal/repository"
	"attendance/internal/sheets"

	"go.uber.org/zap"
)

// SheetWriter prepares and fills the day's attendance sheet
type SheetWriter interface {
	Create(ctx context.Context) (sheets.Status, error)
	Append(ctx context.Context, rows [][]string) error
	Refresh(ctx context.Context) error
}

// RolloverService switches attendance tracking to a new daily sheet
type RolloverService struct {
	userRepo repository.UserRepository
	sheet    SheetWriter
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewRolloverService creates a new rollover service
func NewRolloverService(
	userRepo repository.UserRepository,
	sheet SheetWriter,
	m *metrics.Metrics,
	logger *zap.Logger,
) *RolloverService {
	return &RolloverService{
		userRepo: userRepo,
		sheet:    sheet,
		metrics:  m,
		logger:   logger,
	}
}

// Run prepares today's sheet. A freshly created sheet is seeded once with
// the header and every approved user; the cached rows are reloaded either way.
func (s *RolloverService) Run(ctx context.Context) error {
	s.logger.Info("Starting daily rollover")

	status, err := s.sheet.Create(ctx)
	if err != nil {
		s.metrics.Rollover("failed")
		return fmt.Errorf("create sheet: %w", err)
	}

	if status == sheets.StatusCreated {
		users, err := s.userRepo.ListApproved(ctx)
		if err != nil {
			s.metrics.Rollover("failed")
			return fmt.Errorf("list approved users: %w", err)
		}

		rows := make([][]string, 0, len(users)+1)
		rows = append(rows, domain.AttendanceHeader)
		for _, u := range users {
			rows = append(rows, domain.AttendanceRow(u))
		}

		if err := s.sheet.Append(ctx, rows); err != nil {
			s.metrics.Rollover("failed")
			return fmt.Errorf("seed sheet: %w", err)
		}
		s.logger.Info("Seeded attendance sheet", zap.Int("users", len(users)))
	}

	if err := s.sheet.Refresh(ctx); err != nil {
		s.metrics.Rollover("failed")
		return fmt.Errorf("refresh sheet: %w", err)
	}

	s.metrics.Rollover(status.String())
	s.logger.Info("Rollover completed", zap.Stringer("status", status))
	return nil
}
