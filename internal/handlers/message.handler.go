package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fasthttp/router"
	"github.com/lkalantari/askout/internal/model"
	"github.com/lkalantari/askout/internal/services"
	xhttp "github.com/lkalantari/askout/pkg/http"
)

type MessageService interface {
	Create(ctx context.Context, p model.MessageCreateRequest) (*model.MessageCreated, error)
	Retrieve(ctx context.Context, accessToken string) (*model.MessageView, error)
	MarkOpened(ctx context.Context, accessToken string) error
}

type MessageHandler struct {
	svc MessageService
}

func RegisterMessageRoutes(e *router.Group, h *MessageHandler) {
	e.POST("/messages", h.CreateMessage)
	e.GET("/messages/{accessToken}", h.GetMessage)
	e.PATCH("/messages/{accessToken}", h.MarkOpened)
}

func NewMessageHandler(messageService MessageService) *MessageHandler {
	return &MessageHandler{
		svc: messageService,
	}
}

/* --------------------------------- Routes ----------------------------------- */

func (h *MessageHandler) CreateMessage(ctx *xhttp.RequestCtx) {
	var req model.MessageCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}

	created, err := h.svc.Create(ctx, req)
	if err != nil {
		writeError(ctx, xhttp.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(ctx, xhttp.StatusOK, created)
}

func (h *MessageHandler) GetMessage(ctx *xhttp.RequestCtx) {
	accessToken := param(ctx, "accessToken")

	view, err := h.svc.Retrieve(ctx, accessToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			writeError(ctx, xhttp.StatusNotFound, "message not found")
		case errors.Is(err, services.ErrExpired):
			writeError(ctx, xhttp.StatusGone, "message has expired")
		case errors.Is(err, services.ErrAlreadyResponded):
			writeError(ctx, xhttp.StatusGone, "message has already been answered")
		default:
			writeError(ctx, xhttp.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(ctx, xhttp.StatusOK, view)
}

func (h *MessageHandler) MarkOpened(ctx *xhttp.RequestCtx) {
	accessToken := param(ctx, "accessToken")

	if err := h.svc.MarkOpened(ctx, accessToken); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			writeError(ctx, xhttp.StatusNotFound, "message not found")
		default:
			writeError(ctx, xhttp.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]bool{"success": true})
}

/* --------------------------------- Helpers ----------------------------------- */

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

func param(ctx *xhttp.RequestCtx, name string) string {
	if v, ok := ctx.UserValue(name).(string); ok {
		return v
	}
	return ""
}
