package handlers

import (
	"context"
	"errors"

	"github.com/fasthttp/router"
	"github.com/lkalantari/askout/internal/model"
	"github.com/lkalantari/askout/internal/services"
	xhttp "github.com/lkalantari/askout/pkg/http"
)

type ResponseService interface {
	SubmitResponse(ctx context.Context, p model.ResponseCreateRequest) (*model.Response, error)
}

type ResponseHandler struct {
	svc ResponseService
}

func RegisterResponseRoutes(e *router.Group, h *ResponseHandler) {
	e.POST("/responses", h.SubmitResponse)
}

func NewResponseHandler(responseService ResponseService) *ResponseHandler {
	return &ResponseHandler{
		svc: responseService,
	}
}

func (h *ResponseHandler) SubmitResponse(ctx *xhttp.RequestCtx) {
	var req model.ResponseCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.svc.SubmitResponse(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			writeError(ctx, xhttp.StatusNotFound, "message not found")
		case errors.Is(err, services.ErrAlreadyResponded):
			writeError(ctx, xhttp.StatusConflict, "message has already been answered")
		case errors.Is(err, services.ErrInvalidActivity):
			writeError(ctx, xhttp.StatusBadRequest, err.Error())
		default:
			writeError(ctx, xhttp.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(ctx, xhttp.StatusOK, resp)
}
