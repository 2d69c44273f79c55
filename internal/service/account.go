package service

import (
	"context"

	"attendance/internal/domain"
	"attendance/internal/repository"
)

// AccountService answers account status questions
type AccountService struct {
	userRepo repository.UserRepository
}

// NewAccountService creates a new account service
func NewAccountService(userRepo repository.UserRepository) *AccountService {
	return &AccountService{userRepo: userRepo}
}

// IsApproved checks if the user has an approved account
func (s *AccountService) IsApproved(ctx context.Context, userID int64) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user != nil && user.AccStatus == domain.StatusApproved, nil
}
