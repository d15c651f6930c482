package destinations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"travelenda/internal/liteapi"
	"travelenda/internal/liteapi/mocks"
	"travelenda/pkg/cache"
	"travelenda/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestService_Suggest(t *testing.T) {
	inventory := new(mocks.MockClient)
	svc := NewService(inventory, nil, logger.Discard())

	inventory.On("SearchDestinations", mock.Anything, "par", 5).Return([]liteapi.Destination{paris}, nil)

	got := svc.Suggest(context.Background(), "  Par ", 5)

	assert.Equal(t, []liteapi.Destination{paris}, got)
	inventory.AssertExpectations(t)
}

func TestService_SuggestShortQuery(t *testing.T) {
	inventory := new(mocks.MockClient)
	svc := NewService(inventory, nil, logger.Discard())

	got := svc.Suggest(context.Background(), "P", 5)

	assert.Empty(t, got)
	assert.NotNil(t, got)
	inventory.AssertNotCalled(t, "SearchDestinations", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_SuggestDegradesOnFailure(t *testing.T) {
	inventory := new(mocks.MockClient)
	svc := NewService(inventory, nil, logger.Discard())

	inventory.On("SearchDestinations", mock.Anything, "rome", DefaultLimit).
		Return(nil, &liteapi.APIError{Op: "search_destinations", StatusCode: http.StatusBadGateway})

	got := svc.Suggest(context.Background(), "Rome", 0)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestService_SuggestUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	inventory := new(mocks.MockClient)
	svc := NewService(inventory, cache.NewService(client), logger.Discard())

	inventory.On("SearchDestinations", mock.Anything, "par", MaxLimit).Return([]liteapi.Destination{paris}, nil).Once()

	first := svc.Suggest(context.Background(), "Par", 50)
	second := svc.Suggest(context.Background(), "PAR", 50)

	assert.Equal(t, first, second)
	inventory.AssertNumberOfCalls(t, "SearchDestinations", 1)
}

func TestController_Suggest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	inventory := new(mocks.MockClient)
	inventory.On("SearchDestinations", mock.Anything, "par", 3).
		Return(nil, &liteapi.APIError{Op: "search_destinations", Code: liteapi.CodeTimeout})

	r := gin.New()
	SetupDestinationRoutes(r.Group("/api/v1"), NewController(NewService(inventory, nil, logger.Discard())))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/destinations?q=Par&limit=3", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Suggestions []liteapi.Destination `json:"suggestions"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotNil(t, resp.Data.Suggestions)
	assert.Empty(t, resp.Data.Suggestions)
}

func TestServiceFetcher(t *testing.T) {
	inventory := new(mocks.MockClient)
	inventory.On("SearchDestinations", mock.Anything, "par", 4).Return([]liteapi.Destination{paris}, nil)

	fetch := ServiceFetcher(NewService(inventory, nil, logger.Discard()), 4)
	got, err := fetch(context.Background(), "Par")

	require.NoError(t, err)
	assert.Len(t, got, 1)
}
