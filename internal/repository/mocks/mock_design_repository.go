package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/locaith/locaith-design/internal/model"
	"github.com/locaith/locaith-design/internal/repository"
)

type MockDesignRepository struct {
	mock.Mock
}

func (m *MockDesignRepository) Upsert(ctx context.Context, d *model.Design) (*model.Design, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Design), args.Error(1)
}

func (m *MockDesignRepository) FindByID(ctx context.Context, id string) (*model.Design, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Design), args.Error(1)
}

func (m *MockDesignRepository) ListByOwner(ctx context.Context, ownerID string, pq repository.PageQuery) (*repository.PageResult[model.Design], error) {
	args := m.Called(ctx, ownerID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Design]), args.Error(1)
}

func (m *MockDesignRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
