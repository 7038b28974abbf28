package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fairway/pkg/errors"
	"fairway/pkg/logger"
	"fairway/pkg/model"
)

// Mock service for testing
type mockRentalService struct {
	createFunc       func(ctx context.Context, req *model.RentalRequest, now time.Time) (*model.Rental, error)
	availabilityFunc func(ctx context.Context, start time.Time, holes int, now time.Time) ([]int, error)
	cancelFunc       func(ctx context.Context, id string, now time.Time) (*model.Rental, error)
}

func (m *mockRentalService) Create(ctx context.Context, req *model.RentalRequest, now time.Time) (*model.Rental, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req, now)
	}
	return &model.Rental{ID: "aaaaaaaaaaaaaaaaaaaaaaaa"}, nil
}

func (m *mockRentalService) Availability(ctx context.Context, start time.Time, holes int, now time.Time) ([]int, error) {
	if m.availabilityFunc != nil {
		return m.availabilityFunc(ctx, start, holes, now)
	}
	return []int{}, nil
}

func (m *mockRentalService) Cancel(ctx context.Context, id string, now time.Time) (*model.Rental, error) {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, id, now)
	}
	return &model.Rental{ID: id, Status: model.RentalStatusCancelled}, nil
}

func (m *mockRentalService) GetByID(ctx context.Context, id string) (*model.Rental, error) {
	return &model.Rental{ID: id}, nil
}

func (m *mockRentalService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Rental, int64, error) {
	return []*model.Rental{}, 0, nil
}

func (m *mockRentalService) SearchByCart(ctx context.Context, cartID int, startTime, endTime *time.Time, limit int, offset int64) ([]*model.Rental, int64, error) {
	return []*model.Rental{}, 0, nil
}

func testHandler(svc *mockRentalService) *RentalHandler {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return NewRentalHandler(svc, log)
}

func TestCreate_StatusMapping(t *testing.T) {
	body := `{"cart_id":1,"renter_name":"Kari Nordmann","phone":"+4791234567","holes":9,` +
		`"start_time":"2026-06-02T10:00:00Z","notification_method":"sms"}`

	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "success returns 201",
			wantStatus: http.StatusCreated,
		},
		{
			name:       "slot conflict returns 409",
			serviceErr: apperrors.Conflict("Cart 1 is already booked for an overlapping interval"),
			wantStatus: http.StatusConflict,
			wantCode:   apperrors.CodeConflict,
		},
		{
			name:       "lock contention returns 503",
			serviceErr: apperrors.Transient("Another booking for this cart is in progress. Please try again.", nil),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apperrors.CodeUnavailable,
		},
		{
			name:       "validation failure returns 422",
			serviceErr: apperrors.Validation("Rental validation failed", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   apperrors.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testHandler(&mockRentalService{
				createFunc: func(ctx context.Context, req *model.RentalRequest, now time.Time) (*model.Rental, error) {
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &model.Rental{ID: "aaaaaaaaaaaaaaaaaaaaaaaa", CartID: req.CartID}, nil
				},
			})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/rentals", strings.NewReader(body))
			rec := httptest.NewRecorder()
			h.Create(rec, req, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				var resp struct {
					Code string `json:"code"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantCode, resp.Code)
			}
		})
	}
}

func TestCreate_InvalidBody(t *testing.T) {
	h := testHandler(&mockRentalService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rentals", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Create(rec, req, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailability(t *testing.T) {
	t.Run("passes parsed parameters to the service", func(t *testing.T) {
		var gotStart time.Time
		var gotHoles int
		h := testHandler(&mockRentalService{
			availabilityFunc: func(ctx context.Context, start time.Time, holes int, now time.Time) ([]int, error) {
				gotStart = start
				gotHoles = holes
				return []int{1, 4}, nil
			},
		})

		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/availability?start_time=2026-06-02T10:00:00Z&holes=18", nil)
		rec := httptest.NewRecorder()
		h.Availability(rec, req, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, time.Date(2026, 6, 2, 10, 0, 0, 0, time.UTC), gotStart)
		assert.Equal(t, 18, gotHoles)

		var resp struct {
			Data struct {
				CartIDs []int `json:"cart_ids"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, []int{1, 4}, resp.Data.CartIDs)
	})

	t.Run("missing start_time returns 400", func(t *testing.T) {
		h := testHandler(&mockRentalService{})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/availability?holes=9", nil)
		rec := httptest.NewRecorder()
		h.Availability(rec, req, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed start_time returns 400", func(t *testing.T) {
		h := testHandler(&mockRentalService{})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/availability?start_time=tomorrow&holes=9", nil)
		rec := httptest.NewRecorder()
		h.Availability(rec, req, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store outage surfaces as 503", func(t *testing.T) {
		h := testHandler(&mockRentalService{
			availabilityFunc: func(ctx context.Context, start time.Time, holes int, now time.Time) ([]int, error) {
				return nil, apperrors.Transient("Failed to check availability", nil)
			},
		})
		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/availability?start_time=2026-06-02T10:00:00Z&holes=9", nil)
		rec := httptest.NewRecorder()
		h.Availability(rec, req, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestCancel(t *testing.T) {
	t.Run("repeat cancel returns 409", func(t *testing.T) {
		h := testHandler(&mockRentalService{
			cancelFunc: func(ctx context.Context, id string, now time.Time) (*model.Rental, error) {
				return nil, apperrors.Conflict("Rental is already cancelled")
			},
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/rentals/id/abc/cancel", nil)
		rec := httptest.NewRecorder()
		h.Cancel(rec, req, httprouter.Params{{Key: "id", Value: "abc"}})

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("successful cancel returns the cancelled rental", func(t *testing.T) {
		h := testHandler(&mockRentalService{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/rentals/id/abc/cancel", nil)
		rec := httptest.NewRecorder()
		h.Cancel(rec, req, httprouter.Params{{Key: "id", Value: "abc"}})

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data model.Rental `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, model.RentalStatusCancelled, resp.Data.Status)
	})
}

func TestSearch_RequiresCartID(t *testing.T) {
	h := testHandler(&mockRentalService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rentals/search", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
