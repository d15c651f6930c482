package mocks

import (
	"context"

	"travelenda/internal/auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*auth.User, *auth.Tokens, error) {
	args := m.Called(ctx, email, password, metadata)
	return userArg(args, 0), tokensArg(args, 1), args.Error(2)
}

func (m *MockProvider) SignIn(ctx context.Context, email, password string) (*auth.User, *auth.Tokens, error) {
	args := m.Called(ctx, email, password)
	return userArg(args, 0), tokensArg(args, 1), args.Error(2)
}

func (m *MockProvider) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

func (m *MockProvider) ResetPassword(ctx context.Context, email, redirectTo string) error {
	args := m.Called(ctx, email, redirectTo)
	return args.Error(0)
}

func (m *MockProvider) User(ctx context.Context, accessToken string) (*auth.User, error) {
	args := m.Called(ctx, accessToken)
	return userArg(args, 0), args.Error(1)
}

func userArg(args mock.Arguments, i int) *auth.User {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).(*auth.User)
}

func tokensArg(args mock.Arguments, i int) *auth.Tokens {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).(*auth.Tokens)
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*auth.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Profile), args.Error(1)
}

func (m *MockRepository) CreateProfile(ctx context.Context, profile *auth.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, updates map[string]interface{}) (*auth.Profile, error) {
	args := m.Called(ctx, userID, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Profile), args.Error(1)
}
