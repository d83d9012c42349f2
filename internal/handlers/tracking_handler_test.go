package handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/lkalantari/askout/internal/model"
	"github.com/lkalantari/askout/internal/services"
	xhttp "github.com/lkalantari/askout/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTrackingService struct {
	mock.Mock
}

func (m *MockTrackingService) Track(ctx context.Context, trackingToken string) (*model.TrackingInfo, error) {
	args := m.Called(ctx, trackingToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TrackingInfo), args.Error(1)
}

func TestTrackingHandler_GetTracking(t *testing.T) {
	t.Run("pending message has null response", func(t *testing.T) {
		svc := new(MockTrackingService)
		handler := NewTrackingHandler(svc)

		info := &model.TrackingInfo{
			Message: model.TrackingMessageView{
				ID:         7,
				SenderName: "Alex",
				ExpiresAt:  time.Now().Add(time.Hour),
			},
			Response: nil,
		}
		svc.On("Track", mock.Anything, "trk-token").Return(info, nil)

		ctx := setupTestContext("GET", "/api/v1/tracking/trk-token", nil)
		ctx.SetUserValue("trackingToken", "trk-token")
		xhttp.NoStoreMiddleware(handler.GetTracking)(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		assert.Equal(t, "no-store, max-age=0", string(ctx.Response.Header.Peek("Cache-Control")))

		var response map[string]json.RawMessage
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		assert.Equal(t, "null", string(response["response"]))
	})

	t.Run("answered message includes the response", func(t *testing.T) {
		svc := new(MockTrackingService)
		handler := NewTrackingHandler(svc)

		info := &model.TrackingInfo{
			Message: model.TrackingMessageView{ID: 7, SenderName: "Alex"},
			Response: &model.ResponseView{
				ResponseType:     model.ResponseYes,
				SelectedActivity: model.ActivityWalk,
				RespondedAt:      time.Now(),
			},
		}
		svc.On("Track", mock.Anything, "trk-token").Return(info, nil)

		ctx := setupTestContext("GET", "/api/v1/tracking/trk-token", nil)
		ctx.SetUserValue("trackingToken", "trk-token")
		handler.GetTracking(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response model.TrackingInfo
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		require.NotNil(t, response.Response)
		assert.Equal(t, model.ResponseYes, response.Response.ResponseType)
	})

	t.Run("unknown tracking token returns 404 with no-store", func(t *testing.T) {
		svc := new(MockTrackingService)
		handler := NewTrackingHandler(svc)

		svc.On("Track", mock.Anything, "nope").Return(nil, services.ErrNotFound)

		ctx := setupTestContext("GET", "/api/v1/tracking/nope", nil)
		ctx.SetUserValue("trackingToken", "nope")
		xhttp.NoStoreMiddleware(handler.GetTracking)(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
		assert.Equal(t, "no-store, max-age=0", string(ctx.Response.Header.Peek("Cache-Control")))
	})
}
