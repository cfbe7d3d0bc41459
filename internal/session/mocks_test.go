package session

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ragdesk/internal/gateway"
	"ragdesk/internal/models"
)

// ============================================================================
// Mock Gateway
// ============================================================================

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ListModels(ctx context.Context) (*gateway.ModelListResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.ModelListResponse), args.Error(1)
}

func (m *MockGateway) ListCollections(ctx context.Context) (*gateway.CollectionListResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CollectionListResponse), args.Error(1)
}

func (m *MockGateway) CollectionStats(ctx context.Context) (models.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.Stats), args.Error(1)
}

func (m *MockGateway) CreateCollection(ctx context.Context, name string) (*gateway.CreateCollectionResponse, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CreateCollectionResponse), args.Error(1)
}

func (m *MockGateway) DeleteCollection(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockGateway) Upload(ctx context.Context, req *gateway.UploadRequest) (*gateway.UploadResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.UploadResponse), args.Error(1)
}

func (m *MockGateway) Chat(ctx context.Context, req *gateway.ChatRequest) (*gateway.ChatResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.ChatResponse), args.Error(1)
}

// ============================================================================
// Shared Expectations
// ============================================================================

// expectRefresh sets up one successful list+stats round trip.
func expectRefresh(gw *MockGateway, collections []models.Collection, stats models.Stats) {
	gw.On("ListCollections", mock.Anything).Return(&gateway.CollectionListResponse{Collections: collections}, nil).Once()
	gw.On("CollectionStats", mock.Anything).Return(stats, nil).Once()
}
