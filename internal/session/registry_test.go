package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"ragdesk/internal/gateway"
	"ragdesk/internal/models"
)

// ============================================================================
// Test Setup
// ============================================================================

func setupTestRegistry(t *testing.T) (*Registry, *MockGateway) {
	gw := new(MockGateway)
	return NewRegistry(gw, zap.NewNop()), gw
}

func serverCollections() []models.Collection {
	return []models.Collection{
		{Name: "pdf", Count: 2, IsDefault: true},
		{Name: "text", Count: 0, IsDefault: true},
		{Name: "code", Count: 0, IsDefault: true},
		{Name: "office", Count: 0, IsDefault: true},
		{Name: "other", Count: 0, IsDefault: true},
		{Name: "research", Count: 3},
	}
}

func serverStats() models.Stats {
	return models.Stats{"pdf": 2, "text": 0, "code": 0, "office": 0, "other": 0, "research": 3, "total": 5}
}

// ============================================================================
// Tests
// ============================================================================

func TestNewRegistryStartsWithDefaultBuckets(t *testing.T) {
	registry, _ := setupTestRegistry(t)

	collections := registry.Collections()
	assert.Len(t, collections, 5)
	for _, coll := range collections {
		assert.True(t, coll.IsDefault)
		assert.Zero(t, coll.Count)
	}
	assert.Nil(t, registry.Stats())
	assert.Nil(t, registry.FilterSnapshot())
}

func TestRefreshReplacesStateWholesale(t *testing.T) {
	registry, gw := setupTestRegistry(t)
	expectRefresh(gw, serverCollections(), serverStats())

	registry.Refresh(context.Background())

	assert.Len(t, registry.Collections(), 6)
	assert.Equal(t, 5, registry.Stats().Total())
	assert.Equal(t, 3, registry.Stats().CountFor("research"))
	gw.AssertExpectations(t)
}

func TestRefreshFailureKeepsPriorState(t *testing.T) {
	registry, gw := setupTestRegistry(t)
	expectRefresh(gw, serverCollections(), serverStats())
	registry.Refresh(context.Background())

	unreachable := &gateway.APIError{Kind: gateway.KindUnreachable, Err: errors.New("connection refused")}
	gw.On("ListCollections", mock.Anything).Return(nil, unreachable).Once()
	gw.On("CollectionStats", mock.Anything).Return(nil, unreachable).Once()

	registry.Refresh(context.Background())

	assert.Len(t, registry.Collections(), 6, "failed refresh must not clear collections")
	assert.Equal(t, 5, registry.Stats().Total(), "failed refresh must not clear stats")
	gw.AssertExpectations(t)
}

func TestToggleFilterIsItsOwnInverse(t *testing.T) {
	registry, _ := setupTestRegistry(t)

	registry.ToggleFilter("pdf")
	assert.True(t, registry.FilterHas("pdf"))
	assert.Equal(t, []string{"pdf"}, registry.FilterSnapshot())

	registry.ToggleFilter("pdf")
	assert.False(t, registry.FilterHas("pdf"))
	assert.Nil(t, registry.FilterSnapshot())
}

func TestToggleFilterDoesNotValidateIds(t *testing.T) {
	registry, _ := setupTestRegistry(t)

	registry.ToggleFilter("no-such-collection")
	assert.True(t, registry.FilterHas("no-such-collection"))
}

func TestFilterSnapshotIsSortedAndNilWhenEmpty(t *testing.T) {
	registry, _ := setupTestRegistry(t)

	assert.Nil(t, registry.FilterSnapshot())

	registry.ToggleFilter("text")
	registry.ToggleFilter("code")
	registry.ToggleFilter("pdf")
	assert.Equal(t, []string{"code", "pdf", "text"}, registry.FilterSnapshot())
}

func TestCreateRejectsBlankNamesLocally(t *testing.T) {
	registry, gw := setupTestRegistry(t)

	assert.ErrorIs(t, registry.Create(context.Background(), ""), ErrEmptyName)
	assert.ErrorIs(t, registry.Create(context.Background(), "   "), ErrEmptyName)
	gw.AssertNotCalled(t, "CreateCollection", mock.Anything, mock.Anything)
}

func TestCreateRefreshesOnSuccess(t *testing.T) {
	registry, gw := setupTestRegistry(t)

	gw.On("CreateCollection", mock.Anything, "research").
		Return(&gateway.CreateCollectionResponse{Status: "success", CollectionName: "research"}, nil).Once()
	expectRefresh(gw, serverCollections(), serverStats())

	err := registry.Create(context.Background(), "research")

	assert.NoError(t, err)
	assert.Len(t, registry.Collections(), 6)
	gw.AssertExpectations(t)
}

func TestCreateSurfacesServerDetailVerbatim(t *testing.T) {
	registry, gw := setupTestRegistry(t)

	rejected := &gateway.APIError{
		Kind:       gateway.KindServerRejected,
		StatusCode: 400,
		Detail:     "Collection already exists",
	}
	gw.On("CreateCollection", mock.Anything, "research").Return(nil, rejected).Once()

	err := registry.Create(context.Background(), "research")

	assert.Equal(t, "Collection already exists", gateway.Detail(err))
	assert.Len(t, registry.Collections(), 5, "failed create must not change local state")
	gw.AssertNotCalled(t, "ListCollections", mock.Anything)
}

func TestDeleteRefreshesAndLeavesFilterEntryInert(t *testing.T) {
	registry, gw := setupTestRegistry(t)
	registry.ToggleFilter("research")

	gw.On("DeleteCollection", mock.Anything, "research").Return(nil).Once()
	expectRefresh(gw, serverCollections()[:5], models.Stats{"total": 2})

	err := registry.Delete(context.Background(), "research")

	assert.NoError(t, err)
	assert.True(t, registry.FilterHas("research"), "filter entry for deleted collection stays, inert")
	gw.AssertExpectations(t)
}

func TestDeleteSurfacesNotFound(t *testing.T) {
	registry, gw := setupTestRegistry(t)

	rejected := &gateway.APIError{
		Kind:       gateway.KindServerRejected,
		StatusCode: 404,
		Detail:     "Collection not found",
	}
	gw.On("DeleteCollection", mock.Anything, "ghost").Return(rejected).Once()

	err := registry.Delete(context.Background(), "ghost")

	assert.Equal(t, "Collection not found", gateway.Detail(err))
	gw.AssertNotCalled(t, "ListCollections", mock.Anything)
}

func TestRegistryNotifiesOnChange(t *testing.T) {
	registry, gw := setupTestRegistry(t)
	expectRefresh(gw, serverCollections(), serverStats())

	changes := 0
	registry.OnChange(func() { changes++ })

	registry.ToggleFilter("pdf")
	registry.Refresh(context.Background())

	assert.Equal(t, 2, changes)
}
