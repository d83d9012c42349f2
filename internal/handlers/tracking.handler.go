package handlers

import (
	"context"
	"errors"

	"github.com/fasthttp/router"
	"github.com/lkalantari/askout/internal/model"
	"github.com/lkalantari/askout/internal/services"
	xhttp "github.com/lkalantari/askout/pkg/http"
)

type TrackingService interface {
	Track(ctx context.Context, trackingToken string) (*model.TrackingInfo, error)
}

type TrackingHandler struct {
	svc TrackingService
}

func RegisterTrackingRoutes(e *router.Group, h *TrackingHandler) {
	// the sender polls this endpoint, stale cached answers would hide the response
	e.GET("/tracking/{trackingToken}", xhttp.NoStoreMiddleware(h.GetTracking))
}

func NewTrackingHandler(trackingService TrackingService) *TrackingHandler {
	return &TrackingHandler{
		svc: trackingService,
	}
}

func (h *TrackingHandler) GetTracking(ctx *xhttp.RequestCtx) {
	trackingToken := param(ctx, "trackingToken")

	info, err := h.svc.Track(ctx, trackingToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			writeError(ctx, xhttp.StatusNotFound, "message not found")
		default:
			writeError(ctx, xhttp.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(ctx, xhttp.StatusOK, info)
}
