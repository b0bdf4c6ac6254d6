package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskdeck/backend/api/transport"
	"github.com/taskdeck/backend/pkg/httpcontext"
	reminderUC "github.com/taskdeck/backend/usecase/reminder"
)

type ReminderHandler struct {
	baseHandler
	uc *reminderUC.UseCase
}

func NewReminderHandler(uc *reminderUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ReminderHandler {
	return &ReminderHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Schedule reminder
// @Tags reminders
// @Router /api/v1/workitems/{id}/reminders [post]
func (h *ReminderHandler) Schedule(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	workItemID := h.pathParam(ctx, "id")
	if workItemID == "" {
		h.badRequest(ctx, "missing work item id")
		return
	}

	var req transport.ReminderScheduleRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}
	fireAt, err := time.Parse(time.RFC3339, req.FireAt)
	if err != nil {
		h.badRequest(ctx, "fire_at must be RFC3339")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := h.uc.Schedule(stdCtx, actor, workItemID, fireAt, req.Message)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, map[string]string{"reminder_id": id})
}

// @Summary List reminders of a work item
// @Tags reminders
// @Router /api/v1/workitems/{id}/reminders [get]
func (h *ReminderHandler) List(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	workItemID := h.pathParam(ctx, "id")
	if workItemID == "" {
		h.badRequest(ctx, "missing work item id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	reminders, err := h.uc.ListForWorkItem(stdCtx, actor, workItemID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, reminders)
}

// @Summary Get reminder
// @Tags reminders
// @Router /api/v1/reminders/{id} [get]
func (h *ReminderHandler) Get(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	id := h.pathParam(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing reminder id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	reminder, err := h.uc.Get(stdCtx, actor, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, reminder)
}

// @Summary Reschedule reminder
// @Tags reminders
// @Router /api/v1/reminders/{id}/reschedule [post]
func (h *ReminderHandler) Reschedule(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	id := h.pathParam(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing reminder id")
		return
	}

	var req transport.ReminderRescheduleRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}
	fireAt, err := time.Parse(time.RFC3339, req.FireAt)
	if err != nil {
		h.badRequest(ctx, "fire_at must be RFC3339")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Reschedule(stdCtx, actor, id, fireAt); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Cancel reminder
// @Tags reminders
// @Router /api/v1/reminders/{id}/cancel [post]
func (h *ReminderHandler) Cancel(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	id := h.pathParam(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing reminder id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Cancel(stdCtx, actor, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Trigger reminder now
// @Tags reminders
// @Router /api/v1/reminders/{id}/trigger [post]
func (h *ReminderHandler) TriggerNow(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	id := h.pathParam(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing reminder id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.TriggerNow(stdCtx, actor, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusAccepted, nil)
}
