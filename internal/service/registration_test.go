package service

import (
	"context"
	"errors"
	"testing"

	"attendance/internal/domain"
	"attendance/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newRegistration(repo *testutil.MockUserRepository, d *testutil.MockDispatcher) *RegistrationService {
	return NewRegistrationService(repo, d, nil, testutil.NewTestLogger())
}

func TestRegistrationService_BeginKnownUser(t *testing.T) {
	tests := []struct {
		name     string
		status   domain.AccStatus
		expected string
	}{
		{
			name:     "approved",
			status:   domain.StatusApproved,
			expected: "Hello John Doe. You have already been registered into the database.",
		},
		{
			name:     "rejected",
			status:   domain.StatusRejected,
			expected: "Hello John Doe. Your application has been rejected. Please contact your supervisor.",
		},
		{
			name:     "pending",
			status:   domain.StatusPending,
			expected: "Hello John Doe. Your account is pending approval. Please check back in a few hours.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(testutil.MockUserRepository)
			repo.On("GetByID", mock.Anything, int64(1)).Return(testutil.NewTestUser(1, tt.status), nil)

			svc := newRegistration(repo, new(testutil.MockDispatcher))

			reply := svc.Begin(context.Background(), 1, 10)

			assert.Equal(t, tt.expected, reply)
			assert.False(t, svc.Active(1))
			repo.AssertExpectations(t)
		})
	}
}

func TestRegistrationService_BeginLookupError(t *testing.T) {
	repo := new(testutil.MockUserRepository)
	repo.On("GetByID", mock.Anything, int64(1)).Return(nil, errors.New("connection refused"))

	svc := newRegistration(repo, new(testutil.MockDispatcher))

	assert.Equal(t, domain.MsgGenericError, svc.Begin(context.Background(), 1, 10))
	assert.False(t, svc.Active(1))
}

func TestRegistrationService_FullDialog(t *testing.T) {
	ctx := context.Background()
	repo := new(testutil.MockUserRepository)
	dispatcher := new(testutil.MockDispatcher)

	reg := testutil.NewTestRegistration(1)
	repo.On("GetByID", mock.Anything, int64(1)).Return(nil, nil)
	repo.On("Create", mock.Anything, reg.NewUser()).Return(nil)
	dispatcher.On("Dispatch", mock.Anything, reg).Return(nil)

	svc := newRegistration(repo, dispatcher)

	assert.Equal(t, domain.MsgWelcome, svc.Begin(ctx, 1, 10))
	assert.True(t, svc.Active(1))

	reply, ok := svc.Handle(ctx, 1, domain.TextInput("John Doe"))
	assert.True(t, ok)
	assert.Equal(t, domain.MsgAskTitle, reply)

	reply, _ = svc.Handle(ctx, 1, domain.TextInput("exec"))
	assert.Equal(t, domain.MsgAskDepartment, reply)

	reply, _ = svc.Handle(ctx, 1, domain.TextInput("IT"))
	assert.Equal(t, domain.MsgRegistered, reply)
	assert.False(t, svc.Active(1))

	repo.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
}

func TestRegistrationService_InsertFailureStillNotifies(t *testing.T) {
	ctx := context.Background()
	repo := new(testutil.MockUserRepository)
	dispatcher := new(testutil.MockDispatcher)

	repo.On("GetByID", mock.Anything, int64(1)).Return(nil, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	dispatcher.On("Dispatch", mock.Anything, testutil.NewTestRegistration(1)).Return(nil)

	svc := newRegistration(repo, dispatcher)
	svc.Begin(ctx, 1, 10)
	svc.Handle(ctx, 1, domain.TextInput("John Doe"))
	svc.Handle(ctx, 1, domain.TextInput("EXEC"))
	reply, _ := svc.Handle(ctx, 1, domain.TextInput("IT"))

	assert.Equal(t, domain.MsgGenericError, reply)
	dispatcher.AssertExpectations(t)
}

func TestRegistrationService_DuplicateInsertStillNotifies(t *testing.T) {
	ctx := context.Background()
	repo := new(testutil.MockUserRepository)
	dispatcher := new(testutil.MockDispatcher)

	repo.On("GetByID", mock.Anything, int64(1)).Return(nil, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrUserExists)
	dispatcher.On("Dispatch", mock.Anything, testutil.NewTestRegistration(1)).Return(nil)

	svc := newRegistration(repo, dispatcher)
	svc.Begin(ctx, 1, 10)
	svc.Handle(ctx, 1, domain.TextInput("John Doe"))
	svc.Handle(ctx, 1, domain.TextInput("EXEC"))
	reply, _ := svc.Handle(ctx, 1, domain.TextInput("IT"))

	assert.Equal(t, domain.MsgGenericError, reply)
	dispatcher.AssertExpectations(t)
}

func TestRegistrationService_DispatchErrorKeepsReply(t *testing.T) {
	ctx := context.Background()
	repo := new(testutil.MockUserRepository)
	dispatcher := new(testutil.MockDispatcher)

	repo.On("GetByID", mock.Anything, int64(1)).Return(nil, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(ErrNoApprover)

	svc := newRegistration(repo, dispatcher)
	svc.Begin(ctx, 1, 10)
	svc.Handle(ctx, 1, domain.TextInput("John Doe"))
	svc.Handle(ctx, 1, domain.TextInput("EXEC"))
	reply, _ := svc.Handle(ctx, 1, domain.TextInput("IT"))

	assert.Equal(t, domain.MsgRegistered, reply)
}

func TestRegistrationService_Cancel(t *testing.T) {
	ctx := context.Background()
	repo := new(testutil.MockUserRepository)
	repo.On("GetByID", mock.Anything, int64(1)).Return(nil, nil)

	svc := newRegistration(repo, new(testutil.MockDispatcher))

	assert.Equal(t, domain.MsgNothingToCancel, svc.Cancel(ctx, 1))

	svc.Begin(ctx, 1, 10)
	svc.Handle(ctx, 1, domain.TextInput("John Doe"))

	assert.Equal(t, domain.MsgCancelled, svc.Cancel(ctx, 1))
	assert.False(t, svc.Active(1))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegistrationService_UnknownInputEndsSession(t *testing.T) {
	ctx := context.Background()
	repo := new(testutil.MockUserRepository)
	repo.On("GetByID", mock.Anything, int64(1)).Return(nil, nil)

	svc := newRegistration(repo, new(testutil.MockDispatcher))
	svc.Begin(ctx, 1, 10)

	reply, ok := svc.Handle(ctx, 1, domain.Input{Kind: domain.InputUnknown})

	assert.True(t, ok)
	assert.Equal(t, domain.MsgGenericError, reply)
	assert.False(t, svc.Active(1))
}

func TestRegistrationService_RegisterDuringDialog(t *testing.T) {
	ctx := context.Background()
	repo := new(testutil.MockUserRepository)
	repo.On("GetByID", mock.Anything, int64(1)).Return(nil, nil).Once()

	svc := newRegistration(repo, new(testutil.MockDispatcher))
	svc.Begin(ctx, 1, 10)

	assert.Equal(t, domain.MsgGenericError, svc.Begin(ctx, 1, 10))
	assert.False(t, svc.Active(1))
	repo.AssertExpectations(t)
}

func TestRegistrationService_HandleWithoutSession(t *testing.T) {
	svc := newRegistration(new(testutil.MockUserRepository), new(testutil.MockDispatcher))

	reply, ok := svc.Handle(context.Background(), 1, domain.TextInput("hello"))

	assert.False(t, ok)
	assert.Empty(t, reply)
}

func TestRegistrationService_SessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	repo := new(testutil.MockUserRepository)
	repo.On("GetByID", mock.Anything, mock.Anything).Return(nil, nil)

	svc := newRegistration(repo, new(testutil.MockDispatcher))
	svc.Begin(ctx, 1, 10)
	svc.Begin(ctx, 2, 20)

	reply, _ := svc.Handle(ctx, 1, domain.TextInput("Ann"))
	assert.Equal(t, domain.MsgAskTitle, reply)

	reply, _ = svc.Handle(ctx, 2, domain.TextInput("Bob 2"))
	assert.Equal(t, domain.MsgInvalidName, reply)

	assert.Equal(t, domain.MsgCancelled, svc.Cancel(ctx, 2))
	assert.True(t, svc.Active(1))
}
