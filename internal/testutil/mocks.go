package testutil

import (
	"context"

	"attendance/internal/domain"
	"attendance/internal/sheets"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock for UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) SetStatus(ctx context.Context, userID int64, status domain.AccStatus) error {
	args := m.Called(ctx, userID, status)
	return args.Error(0)
}

func (m *MockUserRepository) FindDepartmentIC(ctx context.Context, department string) (*domain.User, error) {
	args := m.Called(ctx, department)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindAdmin(ctx context.Context) (*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListApproved(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

// MockNotifier is a mock for the approval notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) RequestApproval(ctx context.Context, chatID int64, text string, subjectID int64) error {
	args := m.Called(ctx, chatID, text, subjectID)
	return args.Error(0)
}

// MockDispatcher is a mock for the approval dispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, reg domain.Registration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}

// MockSheetGateway is a mock for the attendance spreadsheet gateway
type MockSheetGateway struct {
	mock.Mock
}

func (m *MockSheetGateway) Create(ctx context.Context) (sheets.Status, error) {
	args := m.Called(ctx)
	return args.Get(0).(sheets.Status), args.Error(1)
}

func (m *MockSheetGateway) Append(ctx context.Context, rows [][]string) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockSheetGateway) Refresh(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSheetGateway) Locate(userID int64) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *MockSheetGateway) UpdateCell(ctx context.Context, cell, value string) error {
	args := m.Called(ctx, cell, value)
	return args.Error(0)
}
