package department

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tcmclinic/telemed/pkg/cache"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Create(ctx context.Context, req *types.CreateDepartmentRequest) (*types.Department, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Department), args.Error(1)
}

func (m *mockAPI) Get(ctx context.Context, id string) (*types.Department, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Department), args.Error(1)
}

func (m *mockAPI) GetByCode(ctx context.Context, code string) (*types.Department, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Department), args.Error(1)
}

func (m *mockAPI) Update(ctx context.Context, id string, updates *types.DepartmentUpdates) (*types.Department, error) {
	args := m.Called(ctx, id, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Department), args.Error(1)
}

func (m *mockAPI) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAPI) List(ctx context.Context, page, perPage int) ([]*types.Department, int, error) {
	args := m.Called(ctx, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*types.Department), args.Int(1), args.Error(2)
}

// With caching disabled the decorator must pass every call through to the
// inner service on every invocation.
func TestCachedServicePassThroughWhenDisabled(t *testing.T) {
	log := logger.New("error")
	disabled, err := cache.New("", log)
	require.NoError(t, err)

	inner := &mockAPI{}
	svc := NewCachedService(inner, disabled, log)
	ctx := context.Background()

	deps := []*types.Department{{ID: "d1", Code: "TCM01", Name: "Acupuncture"}}
	inner.On("List", ctx, 1, 20).Return(deps, 1, nil).Twice()

	for i := 0; i < 2; i++ {
		got, total, err := svc.List(ctx, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, deps, got)
	}
	inner.AssertExpectations(t)
}

func TestCachedServiceGetPassThrough(t *testing.T) {
	log := logger.New("error")
	disabled, err := cache.New("", log)
	require.NoError(t, err)

	inner := &mockAPI{}
	svc := NewCachedService(inner, disabled, log)
	ctx := context.Background()

	inner.On("Get", ctx, "d1").Return(&types.Department{ID: "d1"}, nil).Once()

	dep, err := svc.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "d1", dep.ID)
	inner.AssertExpectations(t)
}

func TestCachedServicePropagatesErrors(t *testing.T) {
	log := logger.New("error")
	disabled, err := cache.New("", log)
	require.NoError(t, err)

	inner := &mockAPI{}
	svc := NewCachedService(inner, disabled, log)
	ctx := context.Background()

	inner.On("Get", ctx, "missing").Return(nil, types.NewNotFoundError("department not found"))

	_, err = svc.Get(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, types.ErrorKindNotFound, types.AsAppError(err).Kind)
}
