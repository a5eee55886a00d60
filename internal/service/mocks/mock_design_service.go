package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/locaith/locaith-design/internal/codec"
	"github.com/locaith/locaith-design/internal/model"
	"github.com/locaith/locaith-design/internal/service"
)

type MockDesignService struct {
	mock.Mock
}

func (m *MockDesignService) Save(ctx context.Context, d *model.Design) (*model.Design, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Design), args.Error(1)
}

func (m *MockDesignService) Get(ctx context.Context, ownerID, id string) (*model.Design, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Design), args.Error(1)
}

func (m *MockDesignService) Display(d *model.Design) string {
	return codec.Substitute(d.Content, d.Assets)
}

func (m *MockDesignService) List(ctx context.Context, ownerID string, limit, offset int) (*service.DesignListResult, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DesignListResult), args.Error(1)
}

func (m *MockDesignService) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockDesignService) AddAsset(ctx context.Context, ownerID, id, data string, imgCtx model.ImageContext, description string) (*model.Design, error) {
	args := m.Called(ctx, ownerID, id, data, imgCtx, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Design), args.Error(1)
}

func (m *MockDesignService) UpdateAsset(ctx context.Context, ownerID, id, assetID string, imgCtx model.ImageContext, description string) (*model.Design, error) {
	args := m.Called(ctx, ownerID, id, assetID, imgCtx, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Design), args.Error(1)
}

func (m *MockDesignService) RemoveAsset(ctx context.Context, ownerID, id, assetID string) (*model.Design, error) {
	args := m.Called(ctx, ownerID, id, assetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Design), args.Error(1)
}
