package handler

import (
	"sort"
	"time"

	"github.com/abhishek622/careerflow/pkg/model"
	"github.com/abhishek622/careerflow/pkg/response"
	"github.com/gin-gonic/gin"
)

type eventQuery struct {
	Day           *time.Time `form:"day" time_format:"2006-01-02" time_utc:"1"`
	ApplicationID string     `form:"application_id"`
}

// ListEvents returns the caller's events, optionally narrowed to one day or
// one application.
func (h *Handler) ListEvents(c *gin.Context) {
	var q eventQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ws, _, ok := h.userSpace(c)
	if !ok {
		return
	}
	var events []model.CalendarEvent
	switch {
	case q.Day != nil:
		events = ws.Calendar.OnDay(*q.Day)
	case q.ApplicationID != "":
		events = ws.Calendar.ForApplication(q.ApplicationID)
	default:
		events = ws.Calendar.List()
	}
	if q.Day != nil && q.ApplicationID != "" {
		kept := events[:0]
		for _, e := range events {
			if e.ApplicationID != nil && *e.ApplicationID == q.ApplicationID {
				kept = append(kept, e)
			}
		}
		events = kept
	}
	if events == nil {
		events = []model.CalendarEvent{}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	response.OKWithMeta(c, events, &response.Meta{Total: len(events)})
}

func (h *Handler) UpcomingEvents(c *gin.Context) {
	ws, _, ok := h.userSpace(c)
	if !ok {
		return
	}
	events := ws.Calendar.Upcoming(h.Now())
	if events == nil {
		events = []model.CalendarEvent{}
	}
	response.OKWithMeta(c, events, &response.Meta{Total: len(events)})
}

func (h *Handler) CreateEvent(c *gin.Context) {
	var req model.EventDraft
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	e, err := ws.Calendar.Add(ctx, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, e)
}

func (h *Handler) UpdateEvent(c *gin.Context) {
	var req model.EventPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	e, err := ws.Calendar.Update(ctx, c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, e)
}

func (h *Handler) ToggleEvent(c *gin.Context) {
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	e, err := ws.Calendar.ToggleCompleted(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, e)
}

func (h *Handler) DeleteEvent(c *gin.Context) {
	ws, ctx, ok := h.userSpace(c)
	if !ok {
		return
	}
	if err := ws.Calendar.Delete(ctx, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}
