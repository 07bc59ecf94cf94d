package handler

import (
	"github.com/abhishek622/careerflow/pkg/model"
	"github.com/abhishek622/careerflow/pkg/response"
	"github.com/gin-gonic/gin"
)

func (h *Handler) ListResumes(c *gin.Context) {
	ws, _, ok := h.userSpace(c)
	if !ok {
		return
	}
	state := ws.Resumes.State()
	response.OKWithMeta(c, state.Items, &response.Meta{
		Total:      len(state.Items),
		Loading:    state.Loading,
		StoreError: state.Err,
	})
}

func (h *Handler) CreateResume(c *gin.Context) {
	var req model.ResumeDraft
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	res, err := ws.Resumes.Add(ctx, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, res)
}

func (h *Handler) UpdateResume(c *gin.Context) {
	var req model.ResumePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := ws.Resumes.Update(ctx, id, req); err != nil {
		h.fail(c, err)
		return
	}
	res, _ := ws.Resumes.Get(id)
	response.OK(c, res)
}

func (h *Handler) DeleteResume(c *gin.Context) {
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	if err := ws.Resumes.Delete(ctx, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) SetDefaultResume(c *gin.Context) {
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := ws.Resumes.SetDefault(ctx, id); err != nil {
		h.fail(c, err)
		return
	}
	res, _ := ws.Resumes.Get(id)
	response.OK(c, res)
}

func (h *Handler) DefaultResume(c *gin.Context) {
	ws, _, ok := h.userSpace(c)
	if !ok {
		return
	}
	res, found := ws.Resumes.Default()
	if !found {
		response.NotFound(c, "no default resume")
		return
	}
	response.OK(c, res)
}
