package handler

import (
	"github.com/abhishek622/careerflow/internal/filter"
	"github.com/abhishek622/careerflow/pkg/model"
	"github.com/abhishek622/careerflow/pkg/response"
	"github.com/gin-gonic/gin"
)

func selectionBody(sel *filter.Selection) gin.H {
	return gin.H{"ids": sel.IDs(), "count": sel.Len()}
}

func (h *Handler) GetSelection(c *gin.Context) {
	ws, _, ok := h.userSpace(c)
	if !ok {
		return
	}
	response.OK(c, selectionBody(ws.Selection))
}

func (h *Handler) ToggleSelection(c *gin.Context) {
	ws, _, ok := h.userSpace(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if _, found := ws.Applications.Get(id); !found {
		response.NotFound(c, "application not found")
		return
	}
	selected := ws.Selection.Toggle(id)
	body := selectionBody(ws.Selection)
	body["selected"] = selected
	response.OK(c, body)
}

// ReplaceSelection selects exactly the given ids.
func (h *Handler) ReplaceSelection(c *gin.Context) {
	var req model.SelectionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ws, _, ok := h.userSpace(c)
	if !ok {
		return
	}
	ws.Selection.SelectAll(req.IDs)
	response.OK(c, selectionBody(ws.Selection))
}

// SelectVisible selects every application matching the query filters.
func (h *Handler) SelectVisible(c *gin.Context) {
	ws, _, ok := h.userSpace(c)
	if !ok {
		return
	}
	f, ok := bindFilters(c)
	if !ok {
		return
	}
	visible := ws.Applications.Filtered(f)
	ids := make([]string, len(visible))
	for i, a := range visible {
		ids[i] = a.ID
	}
	ws.Selection.SelectAll(ids)
	response.OK(c, selectionBody(ws.Selection))
}

func (h *Handler) ClearSelection(c *gin.Context) {
	ws, _, ok := h.userSpace(c)
	if !ok {
		return
	}
	ws.Selection.Clear()
	response.NoContent(c)
}

// UpdateSelectedStatus moves every selected application to one status.
func (h *Handler) UpdateSelectedStatus(c *gin.Context) {
	var req model.MoveApplicationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	ids := ws.Selection.IDs()
	if len(ids) == 0 {
		response.BadRequest(c, "nothing selected")
		return
	}
	if err := ws.Applications.BulkUpdateStatus(ctx, ids, req.Status); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"updated": len(ids)})
}

func (h *Handler) DeleteSelected(c *gin.Context) {
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	ids := ws.Selection.IDs()
	if len(ids) == 0 {
		response.BadRequest(c, "nothing selected")
		return
	}
	if err := ws.Applications.BulkDelete(ctx, ids); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": len(ids)})
}
