package repository

import (
	"context"

	"attendance/internal/domain"
)

// UserRepository defines user data operations
type UserRepository interface {
	// GetByID returns nil, nil when the user is not registered
	GetByID(ctx context.Context, userID int64) (*domain.User, error)
	Create(ctx context.Context, user domain.User) error
	SetStatus(ctx context.Context, userID int64, status domain.AccStatus) error
	// FindDepartmentIC returns nil, nil when the department has no IC
	FindDepartmentIC(ctx context.Context, department string) (*domain.User, error)
	// FindAdmin returns nil, nil when no admin exists
	FindAdmin(ctx context.Context) (*domain.User, error)
	ListApproved(ctx context.Context) ([]domain.User, error)
}
