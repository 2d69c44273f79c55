package service

import (
	"context"
	"errors"
	"fmt"

	"attendance/internal/domain"
	"attendance/internal/metrics"
	"attendance/internal/repository"

	"go.uber.org/zap"
)

// ErrNoApprover is returned when neither a department IC nor an admin exists
var ErrNoApprover = errors.New("no approver available")

// Notifier delivers an approval request with approve and reject actions
// carrying subjectID.
type Notifier interface {
	RequestApproval(ctx context.Context, chatID int64, text string, subjectID int64) error
}

// ApprovalService routes registrations to approvers and applies decisions
type ApprovalService struct {
	userRepo repository.UserRepository
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewApprovalService creates a new approval service
func NewApprovalService(
	userRepo repository.UserRepository,
	notifier Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ApprovalService {
	return &ApprovalService{
		userRepo: userRepo,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// Dispatch asks the department's IC, or failing that an admin, to review reg
func (s *ApprovalService) Dispatch(ctx context.Context, reg domain.Registration) error {
	s.logger.Info("Sending notification to person in charge",
		zap.Int64("user_id", reg.UserID),
		zap.String("department", reg.Department),
	)

	ic, err := s.userRepo.FindDepartmentIC(ctx, reg.Department)
	if err != nil {
		return fmt.Errorf("find department IC: %w", err)
	}
	if ic != nil {
		text := fmt.Sprintf("%s %s is requesting to join your team.", reg.Title, reg.Name)
		return s.notify(ctx, ic, text, reg.UserID)
	}

	admin, err := s.userRepo.FindAdmin(ctx)
	if err != nil {
		return fmt.Errorf("find admin: %w", err)
	}
	if admin == nil {
		return ErrNoApprover
	}

	text := fmt.Sprintf("%s %s is requesting to join the %s department.", reg.Title, reg.Name, reg.Department)
	return s.notify(ctx, admin, text, reg.UserID)
}

func (s *ApprovalService) notify(ctx context.Context, approver *domain.User, text string, subjectID int64) error {
	if err := s.notifier.RequestApproval(ctx, approver.ChatID, text, subjectID); err != nil {
		return fmt.Errorf("notify %s %d: %w", approver.Role, approver.UserID, err)
	}
	s.logger.Info("Approval requested",
		zap.Int64("approver_id", approver.UserID),
		zap.String("role", string(approver.Role)),
		zap.Int64("subject_id", subjectID),
	)
	return nil
}

// Decide applies an approver's decision and returns the text that replaces
// the approval request.
func (s *ApprovalService) Decide(ctx context.Context, decision domain.Decision, subjectID int64) (string, error) {
	err := s.userRepo.SetStatus(ctx, subjectID, decision.Status())
	if errors.Is(err, domain.ErrNotPending) {
		s.logger.Info("Decision on processed registration ignored",
			zap.Int64("subject_id", subjectID),
			zap.String("decision", string(decision)),
		)
		s.metrics.Decision("stale")
		return fmt.Sprintf("%d has already been processed.", subjectID), nil
	}
	if err != nil {
		s.metrics.Decision("failed")
		return "", fmt.Errorf("set status for %d: %w", subjectID, err)
	}

	s.logger.Info("Registration decided",
		zap.Int64("subject_id", subjectID),
		zap.String("decision", string(decision)),
	)

	if decision == domain.DecisionApprove {
		s.metrics.Decision("approved")
		return fmt.Sprintf("Approved %d", subjectID), nil
	}
	s.metrics.Decision("rejected")
	return fmt.Sprintf("Rejected %d", subjectID), nil
}
