package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskdeck/backend/api/transport"
	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/pkg/httpcontext"
	workitemUC "github.com/taskdeck/backend/usecase/workitem"
)

type WorkItemHandler struct {
	baseHandler
	uc *workitemUC.UseCase
}

func NewWorkItemHandler(uc *workitemUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *WorkItemHandler {
	return &WorkItemHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Create work item
// @Tags workitems
// @Router /api/v1/workitems [post]
func (h *WorkItemHandler) Create(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}

	var req transport.WorkItemCreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}

	dueAt, ok := h.parseTime(ctx, req.DueAt)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	item, err := h.uc.Create(stdCtx, actor, workitemUC.CreateInput{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		DueAt:          dueAt,
		EstimatedHours: req.EstimatedHours,
		Tags:           req.Tags,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, item)
}

// @Summary Get work item
// @Tags workitems
// @Router /api/v1/workitems/{id} [get]
func (h *WorkItemHandler) Get(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	id := h.pathParam(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing work item id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	item, err := h.uc.Get(stdCtx, actor, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, item)
}

// @Summary Update work item fields
// @Tags workitems
// @Router /api/v1/workitems/{id} [patch]
func (h *WorkItemHandler) Update(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	id := h.pathParam(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing work item id")
		return
	}

	var req transport.WorkItemUpdateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}

	input := workitemUC.UpdateInput{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		ClearDueDate:   req.ClearDueDate,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
	}
	if req.DueAt != nil {
		dueAt, ok := h.parseTime(ctx, *req.DueAt)
		if !ok {
			return
		}
		input.DueAt = dueAt
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	item, err := h.uc.UpdateDetails(stdCtx, actor, id, input)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, item)
}

// @Summary Change work item state
// @Tags workitems
// @Router /api/v1/workitems/{id}/state [post]
func (h *WorkItemHandler) ChangeState(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	id := h.pathParam(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing work item id")
		return
	}

	var req transport.StateChangeRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.State == "" {
		h.badRequest(ctx, "missing target state")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	item, err := h.uc.ChangeState(stdCtx, actor, id, domain.WorkItemState(req.State))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, item)
}

// @Summary Add tag
// @Tags workitems
// @Router /api/v1/workitems/{id}/tags [post]
func (h *WorkItemHandler) AddTag(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	id := h.pathParam(ctx, "id")
	var req transport.TagRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Tag == "" {
		h.badRequest(ctx, "missing tag")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	item, err := h.uc.AddTag(stdCtx, actor, id, req.Tag)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, item)
}

// @Summary Remove tag
// @Tags workitems
// @Router /api/v1/workitems/{id}/tags/{tag} [delete]
func (h *WorkItemHandler) RemoveTag(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	id := h.pathParam(ctx, "id")
	tag := h.pathParam(ctx, "tag")
	if tag == "" {
		h.badRequest(ctx, "missing tag")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	item, err := h.uc.RemoveTag(stdCtx, actor, id, tag)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, item)
}

func (h *WorkItemHandler) parseTime(ctx *fasthttp.RequestCtx, raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		h.badRequest(ctx, "timestamps must be RFC3339")
		return nil, false
	}
	return &parsed, true
}
