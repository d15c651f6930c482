package hotels

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"travelenda/internal/liteapi"
	"travelenda/internal/liteapi/mocks"
	"travelenda/internal/pricing"
	"travelenda/internal/search"
	"travelenda/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTestRouter(inventory liteapi.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := NewService(inventory, nil, pricing.DefaultRules(), logger.Discard())
	SetupHotelRoutes(r.Group("/api/v1"), NewController(svc, search.NewBuilder("USD", fixedNow)))
	return r
}

const parisParams = "destination=Paris&checkin=2024-02-15&checkout=2024-02-18&adults=2&children=0&rooms=1"

func TestController_SearchHotels(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setup          func(m *mocks.MockClient)
		expectedStatus int
		retryable      bool
	}{
		{
			name:  "results",
			query: parisParams + "&stars=5&sort=rating",
			setup: func(m *mocks.MockClient) {
				m.On("SearchHotels", mock.Anything, mock.Anything).
					Return(&liteapi.SearchResult{Hotels: []liteapi.HotelSummary{{ID: "h1"}}, Total: 1}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid dates",
			query:          "destination=Paris&checkin=2024-02-18&checkout=2024-02-15",
			setup:          func(m *mocks.MockClient) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid sort",
			query:          parisParams + "&sort=cheapest",
			setup:          func(m *mocks.MockClient) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "provider unavailable",
			query: parisParams,
			setup: func(m *mocks.MockClient) {
				m.On("SearchHotels", mock.Anything, mock.Anything).
					Return(nil, &liteapi.APIError{Op: "search_hotels", StatusCode: http.StatusServiceUnavailable})
			},
			expectedStatus: http.StatusBadGateway,
			retryable:      true,
		},
		{
			name:  "provider timeout",
			query: parisParams,
			setup: func(m *mocks.MockClient) {
				m.On("SearchHotels", mock.Anything, mock.Anything).
					Return(nil, &liteapi.APIError{Op: "search_hotels", Code: liteapi.CodeTimeout})
			},
			expectedStatus: http.StatusGatewayTimeout,
			retryable:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inventory := new(mocks.MockClient)
			tt.setup(inventory)
			router := setupTestRouter(inventory)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/hotels?"+tt.query, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.retryable {
				var resp struct {
					Errors struct {
						Retryable bool `json:"retryable"`
					} `json:"errors"`
				}
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.True(t, resp.Errors.Retryable)
			}
			inventory.AssertExpectations(t)
		})
	}
}

func TestController_GetHotel(t *testing.T) {
	inventory := new(mocks.MockClient)
	inventory.On("GetHotel", mock.Anything, "h1").
		Return(&liteapi.Hotel{HotelSummary: liteapi.HotelSummary{ID: "h1", Name: "Le Marais"}}, nil)
	inventory.On("GetRoomRates", mock.Anything, mock.Anything).Return([]liteapi.RoomRate{deluxeRate()}, nil)
	router := setupTestRouter(inventory)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hotels/h1?"+parisParams, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data Details `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 3, resp.Data.Nights)
	require.Len(t, resp.Data.Rates, 1)
	assert.Equal(t, 529.00, resp.Data.Rates[0].Quote.Total)
}
