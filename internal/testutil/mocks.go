package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"trackerdeploy/internal/db"
)

// MockEnvironmentStore is a testify mock of db.EnvironmentStore
type MockEnvironmentStore struct {
	mock.Mock
}

var _ db.EnvironmentStore = (*MockEnvironmentStore)(nil)

func (m *MockEnvironmentStore) Create(ctx context.Context, env *db.Environment) error {
	args := m.Called(ctx, env)
	return args.Error(0)
}

func (m *MockEnvironmentStore) GetByName(ctx context.Context, name string) (*db.Environment, error) {
	args := m.Called(ctx, name)
	if env, ok := args.Get(0).(*db.Environment); ok {
		return env, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEnvironmentStore) List(ctx context.Context) ([]*db.Environment, error) {
	args := m.Called(ctx)
	if envs, ok := args.Get(0).([]*db.Environment); ok {
		return envs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEnvironmentStore) ListPage(ctx context.Context, opts db.PaginationOptions) ([]*db.Environment, int, error) {
	args := m.Called(ctx, opts)
	if envs, ok := args.Get(0).([]*db.Environment); ok {
		return envs, args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

func (m *MockEnvironmentStore) UpdateState(ctx context.Context, name string, update db.StateUpdate) error {
	args := m.Called(ctx, name, update)
	return args.Error(0)
}

func (m *MockEnvironmentStore) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
