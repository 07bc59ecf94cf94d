package handler

import (
	"time"

	"github.com/abhishek622/careerflow/internal/filter"
	"github.com/abhishek622/careerflow/internal/pipeline"
	"github.com/abhishek622/careerflow/pkg/model"
	"github.com/abhishek622/careerflow/pkg/response"
	"github.com/gin-gonic/gin"
)

// bindFilters reads list filters from the query string. A date-only
// date_to covers that whole day.
func bindFilters(c *gin.Context) (filter.Filters, bool) {
	var f filter.Filters
	if err := c.ShouldBindQuery(&f); err != nil {
		response.BadRequest(c, "invalid filters: "+err.Error())
		return f, false
	}
	if f.DateTo != nil {
		end := f.DateTo.Add(24*time.Hour - time.Nanosecond)
		f.DateTo = &end
	}
	return f, true
}

func (h *Handler) ListApplications(c *gin.Context) {
	ws, _, ok := h.userSpace(c)
	if !ok {
		return
	}
	f, ok := bindFilters(c)
	if !ok {
		return
	}
	state := ws.Applications.State()
	apps := state.Items
	if !f.IsZero() {
		apps = filter.Apply(apps, f)
	}
	response.OKWithMeta(c, apps, &response.Meta{
		Total:         len(apps),
		ActiveFilters: f.ActiveCount(),
		Loading:       state.Loading,
		StoreError:    state.Err,
	})
}

type boardColumn struct {
	Status       model.Status        `json:"status"`
	Label        string              `json:"label"`
	Applications []model.Application `json:"applications"`
}

// Board groups the filtered applications into one column per status.
func (h *Handler) Board(c *gin.Context) {
	ws, _, ok := h.userSpace(c)
	if !ok {
		return
	}
	f, ok := bindFilters(c)
	if !ok {
		return
	}
	visible := ws.Applications.Filtered(f)
	columns := make([]boardColumn, 0, len(pipeline.Statuses))
	for _, s := range pipeline.Statuses {
		columns = append(columns, boardColumn{
			Status:       s,
			Label:        pipeline.Label(s),
			Applications: filter.Apply(visible, filter.Filters{Statuses: []model.Status{s}}),
		})
	}
	response.OKWithMeta(c, columns, &response.Meta{Total: len(visible), ActiveFilters: f.ActiveCount()})
}

func (h *Handler) GetApplication(c *gin.Context) {
	ws, _, ok := h.userSpace(c)
	if !ok {
		return
	}
	app, found := ws.Applications.Get(c.Param("id"))
	if !found {
		response.NotFound(c, "application not found")
		return
	}
	response.OK(c, gin.H{
		"application": app,
		"events":      ws.Calendar.ForApplication(app.ID),
	})
}

func (h *Handler) CreateApplication(c *gin.Context) {
	var req model.ApplicationDraft
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	app, err := ws.Applications.Add(ctx, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, app)
}

func (h *Handler) UpdateApplication(c *gin.Context) {
	var req model.ApplicationPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := ws.Applications.Update(ctx, id, req); err != nil {
		h.fail(c, err)
		return
	}
	app, _ := ws.Applications.Get(id)
	response.OK(c, app)
}

func (h *Handler) MoveApplication(c *gin.Context) {
	var req model.MoveApplicationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := ws.Applications.Move(ctx, id, req.Status); err != nil {
		h.fail(c, err)
		return
	}
	app, _ := ws.Applications.Get(id)
	response.OK(c, app)
}

func (h *Handler) DeleteApplication(c *gin.Context) {
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	if err := ws.Applications.Delete(ctx, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) BulkUpdateStatus(c *gin.Context) {
	var req model.BulkStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	if err := ws.Applications.BulkUpdateStatus(ctx, req.IDs, req.Status); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"updated": len(req.IDs)})
}

func (h *Handler) BulkDelete(c *gin.Context) {
	var req model.BulkDeleteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	if err := ws.Applications.BulkDelete(ctx, req.IDs); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": len(req.IDs)})
}

func (h *Handler) ArchivedApplications(c *gin.Context) {
	ws, _, ok := h.userSpace(c)
	if !ok {
		return
	}
	apps := pipeline.Archived(ws.Applications.List())
	response.OKWithMeta(c, apps, &response.Meta{Total: len(apps)})
}

// StaleApplications lists active applications untouched for stalled_days,
// defaulting to the configured threshold.
func (h *Handler) StaleApplications(c *gin.Context) {
	var q struct {
		Days *int `form:"days" binding:"omitempty,min=1,max=365"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ws, _, ok := h.userSpace(c)
	if !ok {
		return
	}
	days := h.StalledDays
	if q.Days != nil {
		days = *q.Days
	}
	apps := pipeline.Stale(ws.Applications.List(), h.Now(), days)
	response.OKWithMeta(c, apps, &response.Meta{Total: len(apps)})
}

func (h *Handler) Stats(c *gin.Context) {
	ws, _, ok := h.userSpace(c)
	if !ok {
		return
	}
	response.OK(c, pipeline.Summarize(ws.Applications.List()))
}

// Refresh refetches every store of the caller.
func (h *Handler) Refresh(c *gin.Context) {
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	if err := ws.Load(ctx); err != nil {
		h.fail(c, err)
		return
	}
	h.State(c)
}

type storeStatus struct {
	Count   int    `json:"count"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// State reports size, loading flag and last error of each store.
func (h *Handler) State(c *gin.Context) {
	ws, _, ok := h.userSpace(c)
	if !ok {
		return
	}
	apps, resumes, tags := ws.Applications.State(), ws.Resumes.State(), ws.Tags.State()
	response.OK(c, gin.H{
		"applications": storeStatus{len(apps.Items), apps.Loading, apps.Err},
		"resumes":      storeStatus{len(resumes.Items), resumes.Loading, resumes.Err},
		"tags":         storeStatus{len(tags.Items), tags.Loading, tags.Err},
		"selected":     ws.Selection.Len(),
		"events":       len(ws.Calendar.List()),
	})
}

// Reset drops the caller's cached workspace. The next request reloads it.
func (h *Handler) Reset(c *gin.Context) {
	userID := c.GetString(UserIDKey)
	if userID == "" {
		response.Unauthorized(c, "")
		return
	}
	h.Registry.Evict(userID)
	response.NoContent(c)
}

func (h *Handler) ClearErrors(c *gin.Context) {
	ws, _, ok := h.userSpace(c)
	if !ok {
		return
	}
	ws.Applications.ClearError()
	ws.Resumes.ClearError()
	ws.Tags.ClearError()
	response.NoContent(c)
}
