package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"attendance/internal/domain"
	"attendance/internal/metrics"
	"attendance/internal/repository"

	"go.uber.org/zap"
)

// Dispatcher routes a new registration to an approver
type Dispatcher interface {
	Dispatch(ctx context.Context, reg domain.Registration) error
}

// RegistrationService runs registration dialogs and applies their effects
type RegistrationService struct {
	userRepo   repository.UserRepository
	dispatcher Dispatcher
	metrics    *metrics.Metrics
	logger     *zap.Logger

	// in-memory dialogs keyed by user id
	sessions map[int64]domain.Session
	mu       sync.Mutex
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(
	userRepo repository.UserRepository,
	dispatcher Dispatcher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		userRepo:   userRepo,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger,
		sessions:   make(map[int64]domain.Session),
	}
}

// Active reports whether the user has a dialog in progress
func (s *RegistrationService) Active(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[userID]
	return ok
}

// Begin handles /register. Known users get their account status, unknown
// users start a new dialog.
func (s *RegistrationService) Begin(ctx context.Context, userID, chatID int64) string {
	if s.Active(userID) {
		reply, _ := s.Handle(ctx, userID, domain.Input{Kind: domain.InputUnknown})
		return reply
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to look up user", zap.Int64("user_id", userID), zap.Error(err))
		return domain.MsgGenericError
	}

	if user != nil {
		s.logger.Info("Registration requested by known user",
			zap.Int64("user_id", userID),
			zap.Int("acc_status", int(user.AccStatus)),
		)
		switch user.AccStatus {
		case domain.StatusApproved:
			return fmt.Sprintf(domain.MsgAlreadyApproved, user.Name)
		case domain.StatusRejected:
			return fmt.Sprintf(domain.MsgAlreadyRejected, user.Name)
		default:
			return fmt.Sprintf(domain.MsgAlreadyPending, user.Name)
		}
	}

	session, effect := domain.NewSession(userID, chatID)

	s.mu.Lock()
	s.sessions[userID] = session
	s.mu.Unlock()

	s.logger.Info("Registration started", zap.Int64("user_id", userID))
	return effect.Reply
}

// Cancel handles /cancel
func (s *RegistrationService) Cancel(ctx context.Context, userID int64) string {
	reply, ok := s.Handle(ctx, userID, domain.Input{Kind: domain.InputCancel})
	if !ok {
		return domain.MsgNothingToCancel
	}
	return reply
}

// Handle feeds one input into the user's dialog. ok is false when the user
// has no dialog in progress.
func (s *RegistrationService) Handle(ctx context.Context, userID int64, in domain.Input) (reply string, ok bool) {
	s.mu.Lock()
	session, exists := s.sessions[userID]
	if !exists {
		s.mu.Unlock()
		return "", false
	}

	next, effect := domain.Transition(session, in)
	if next.State.Active() {
		s.sessions[userID] = next
	} else {
		delete(s.sessions, userID)
	}
	s.mu.Unlock()

	s.logger.Debug("Registration transition",
		zap.Int64("user_id", userID),
		zap.Stringer("from", session.State),
		zap.Stringer("to", next.State),
	)

	switch next.State {
	case domain.StateCancelled:
		s.logger.Info("Registration cancelled", zap.Int64("user_id", userID))
		s.metrics.Registration("cancelled")
	case domain.StateError:
		s.logger.Warn("Unrecognised input during registration, session ended", zap.Int64("user_id", userID))
		s.metrics.Registration("aborted")
	}

	if effect.Submit != nil {
		return s.submit(ctx, *effect.Submit), true
	}
	return effect.Reply, true
}

// submit stores the registration and asks an approver for a decision. The
// approver is notified even if the insert failed.
func (s *RegistrationService) submit(ctx context.Context, reg domain.Registration) string {
	reply := domain.MsgRegistered

	err := s.userRepo.Create(ctx, reg.NewUser())
	switch {
	case errors.Is(err, domain.ErrUserExists):
		s.logger.Warn("User already registered", zap.Int64("user_id", reg.UserID))
		s.metrics.Registration("duplicate")
		reply = domain.MsgGenericError
	case err != nil:
		s.logger.Error("Failed to save registration", zap.Int64("user_id", reg.UserID), zap.Error(err))
		s.metrics.Registration("failed")
		reply = domain.MsgGenericError
	default:
		s.logger.Info("User registered",
			zap.Int64("user_id", reg.UserID),
			zap.String("department", reg.Department),
		)
		s.metrics.Registration("registered")
	}

	if err := s.dispatcher.Dispatch(ctx, reg); err != nil {
		s.logger.Warn("Failed to notify approver", zap.Int64("user_id", reg.UserID), zap.Error(err))
	}
	return reply
}
