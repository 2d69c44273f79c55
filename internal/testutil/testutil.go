package testutil

import (
	"time"

	"attendance/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestUser creates a test user with the given account status
func NewTestUser(userID int64, status domain.AccStatus) *domain.User {
	return &domain.User{
		UserID:     userID,
		ChatID:     userID * 10,
		Name:       "John Doe",
		Title:      "EXEC",
		Department: "IT",
		Role:       domain.RoleUser,
		AccStatus:  status,
		CreatedAt:  time.Now(),
	}
}

// NewTestApprover creates a test user holding an approver role
func NewTestApprover(userID int64, role domain.Role, department string) *domain.User {
	return &domain.User{
		UserID:     userID,
		ChatID:     userID * 10,
		Name:       "Jane Roe",
		Title:      "MGR",
		Department: department,
		Role:       role,
		AccStatus:  domain.StatusApproved,
		CreatedAt:  time.Now(),
	}
}

// NewTestRegistration creates a completed registration
func NewTestRegistration(userID int64) domain.Registration {
	return domain.Registration{
		UserID:     userID,
		ChatID:     userID * 10,
		Name:       "John Doe",
		Title:      "EXEC",
		Department: "IT",
	}
}
