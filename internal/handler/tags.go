package handler

import (
	"github.com/abhishek622/careerflow/pkg/model"
	"github.com/abhishek622/careerflow/pkg/response"
	"github.com/gin-gonic/gin"
)

func (h *Handler) ListTags(c *gin.Context) {
	ws, _, ok := h.userSpace(c)
	if !ok {
		return
	}
	state := ws.Tags.State()
	response.OKWithMeta(c, state.Items, &response.Meta{
		Total:      len(state.Items),
		Loading:    state.Loading,
		StoreError: state.Err,
	})
}

func (h *Handler) TagPalette(c *gin.Context) {
	response.OK(c, model.TagColors)
}

func (h *Handler) CreateTag(c *gin.Context) {
	var req model.TagDraft
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	tag, err := ws.Tags.Add(ctx, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, tag)
}

func (h *Handler) UpdateTag(c *gin.Context) {
	var req model.TagPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := ws.Tags.Update(ctx, id, req); err != nil {
		h.fail(c, err)
		return
	}
	tag, _ := ws.Tags.Get(id)
	response.OK(c, tag)
}

func (h *Handler) DeleteTag(c *gin.Context) {
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	if err := ws.Tags.Delete(ctx, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) ApplicationTags(c *gin.Context) {
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	tags, err := ws.Tags.ForApplication(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OKWithMeta(c, tags, &response.Meta{Total: len(tags)})
}

func (h *Handler) LinkTag(c *gin.Context) {
	var req model.TagLinkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := ws.Tags.AddToApplication(ctx, id, req.TagID); err != nil {
		h.fail(c, err)
		return
	}
	app, _ := ws.Applications.Get(id)
	response.OK(c, app)
}

func (h *Handler) UnlinkTag(c *gin.Context) {
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := ws.Tags.RemoveFromApplication(ctx, id, c.Param("tagId")); err != nil {
		h.fail(c, err)
		return
	}
	app, _ := ws.Applications.Get(id)
	response.OK(c, app)
}
