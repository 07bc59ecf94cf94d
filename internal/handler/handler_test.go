package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/abhishek622/careerflow/internal/calendar"
	"github.com/abhishek622/careerflow/internal/gateway"
	"github.com/abhishek622/careerflow/internal/workspace"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

type env struct {
	router *gin.Engine
	mem    *gateway.Memory
}

func setup(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := calendar.Open(filepath.Join(t.TempDir(), "calendar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mem := gateway.NewMemory()
	mem.SetClock(func() time.Time { return now })
	reg := workspace.NewRegistry(workspace.Config{Gateway: mem, Calendar: db})
	h := New(zap.NewNop(), reg, 14)
	h.Now = func() time.Time { return now }

	r := gin.New()
	api := r.Group("/", func(c *gin.Context) {
		if u := c.GetHeader("X-User"); u != "" {
			c.Set(UserIDKey, u)
		}
		c.Next()
	})
	api.GET("/applications", h.ListApplications)
	api.POST("/applications", h.CreateApplication)
	api.GET("/applications/board", h.Board)
	api.GET("/applications/stats", h.Stats)
	api.GET("/applications/stale", h.StaleApplications)
	api.POST("/applications/bulk/status", h.BulkUpdateStatus)
	api.GET("/applications/:id", h.GetApplication)
	api.PATCH("/applications/:id", h.UpdateApplication)
	api.POST("/applications/:id/move", h.MoveApplication)
	api.DELETE("/applications/:id", h.DeleteApplication)
	api.POST("/applications/:id/tags", h.LinkTag)
	api.GET("/selection", h.GetSelection)
	api.POST("/selection/all", h.SelectVisible)
	api.POST("/selection/:id/toggle", h.ToggleSelection)
	api.POST("/selection/status", h.UpdateSelectedStatus)
	api.POST("/resumes", h.CreateResume)
	api.GET("/resumes/default", h.DefaultResume)
	api.POST("/resumes/:id/default", h.SetDefaultResume)
	api.POST("/tags", h.CreateTag)
	api.GET("/state", h.State)
	api.DELETE("/errors", h.ClearErrors)
	api.GET("/events", h.ListEvents)
	api.GET("/events/upcoming", h.UpcomingEvents)
	api.POST("/events", h.CreateEvent)
	api.POST("/events/:id/toggle", h.ToggleEvent)
	return &env{router: r, mem: mem}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Total         int    `json:"total"`
		ActiveFilters int    `json:"active_filters"`
		StoreError    string `json:"store_error"`
	} `json:"meta"`
}

func (e *env) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", "user-1")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type appBody struct {
	ID          string  `json:"id"`
	CompanyName string  `json:"company_name"`
	Status      string  `json:"status"`
	Currency    string  `json:"currency"`
	AppliedDate *string `json:"applied_date"`
	Tags        []struct {
		ID string `json:"id"`
	} `json:"tags"`
}

func (e *env) createApp(t *testing.T, company string, extra map[string]any) appBody {
	t.Helper()
	body := map[string]any{"company_name": company, "job_title": "Engineer"}
	for k, v := range extra {
		body[k] = v
	}
	code, out := e.do(t, http.MethodPost, "/applications", body)
	require.Equal(t, http.StatusCreated, code)
	return decode[appBody](t, out.Data)
}

func TestRequiresUser(t *testing.T) {
	e := setup(t)
	req := httptest.NewRequest(http.MethodGet, "/applications", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateAndListWithFilters(t *testing.T) {
	e := setup(t)
	acme := e.createApp(t, "Acme", map[string]any{"location": "Berlin", "priority": "HIGH"})
	assert.Equal(t, "WISHLIST", acme.Status)
	assert.Equal(t, "USD", acme.Currency)
	e.createApp(t, "Globex", map[string]any{"location": "Paris"})

	code, out := e.do(t, http.MethodGet, "/applications", nil)
	require.Equal(t, http.StatusOK, code)
	apps := decode[[]appBody](t, out.Data)
	require.Len(t, apps, 2)
	assert.Equal(t, "Globex", apps[0].CompanyName)

	code, out = e.do(t, http.MethodGet, "/applications?location=berl&priority=HIGH", nil)
	require.Equal(t, http.StatusOK, code)
	apps = decode[[]appBody](t, out.Data)
	require.Len(t, apps, 1)
	assert.Equal(t, acme.ID, apps[0].ID)
	assert.Equal(t, 2, out.Meta.ActiveFilters)
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	e := setup(t)
	code, _ := e.do(t, http.MethodPost, "/applications", map[string]any{"job_title": "Engineer"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, out := e.do(t, http.MethodPost, "/applications", map[string]any{
		"company_name": "Acme", "job_title": "Engineer", "status": "HIRED",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "VALIDATION_ERROR", out.Error.Code)
}

func TestDateToCoversWholeDay(t *testing.T) {
	e := setup(t)
	e.createApp(t, "Acme", map[string]any{"applied_date": "2026-04-10T18:00:00Z"})
	e.createApp(t, "Globex", map[string]any{"applied_date": "2026-04-11T08:00:00Z"})

	_, out := e.do(t, http.MethodGet, "/applications?date_to=2026-04-10", nil)
	apps := decode[[]appBody](t, out.Data)
	require.Len(t, apps, 1)
	assert.Equal(t, "Acme", apps[0].CompanyName)
}

func TestMoveStampsAppliedDate(t *testing.T) {
	e := setup(t)
	app := e.createApp(t, "Acme", nil)

	code, out := e.do(t, http.MethodPost, "/applications/"+app.ID+"/move", map[string]any{"status": "APPLIED"})
	require.Equal(t, http.StatusOK, code)
	moved := decode[appBody](t, out.Data)
	assert.Equal(t, "APPLIED", moved.Status)
	require.NotNil(t, moved.AppliedDate)

	code, _ = e.do(t, http.MethodPost, "/applications/missing/move", map[string]any{"status": "OFFER"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUpdateRollbackSurfacesError(t *testing.T) {
	e := setup(t)
	app := e.createApp(t, "Acme", nil)
	e.mem.FailNext(gateway.OpUpdate, assert.AnError)

	code, _ := e.do(t, http.MethodPatch, "/applications/"+app.ID, map[string]any{"company_name": "Initech"})
	assert.Equal(t, http.StatusInternalServerError, code)

	_, out := e.do(t, http.MethodGet, "/applications", nil)
	apps := decode[[]appBody](t, out.Data)
	require.Len(t, apps, 1)
	assert.Equal(t, "Acme", apps[0].CompanyName)
	assert.Contains(t, out.Meta.StoreError, "update application")

	code, _ = e.do(t, http.MethodDelete, "/errors", nil)
	assert.Equal(t, http.StatusNoContent, code)
	_, out = e.do(t, http.MethodGet, "/applications", nil)
	assert.Empty(t, out.Meta.StoreError)
}

func TestUpdateRejectsInvalidPatch(t *testing.T) {
	e := setup(t)
	app := e.createApp(t, "Acme", nil)

	for _, body := range []map[string]any{
		{"status": "HIRED"},
		{"priority": "URGENT"},
		{"company_name": "  "},
	} {
		code, _ := e.do(t, http.MethodPatch, "/applications/"+app.ID, body)
		assert.Equal(t, http.StatusUnprocessableEntity, code)
	}

	_, out := e.do(t, http.MethodGet, "/applications", nil)
	apps := decode[[]appBody](t, out.Data)
	require.Len(t, apps, 1)
	assert.Equal(t, "Acme", apps[0].CompanyName)
	assert.Equal(t, "WISHLIST", apps[0].Status)
	for _, c := range e.mem.Calls() {
		assert.NotEqual(t, gateway.OpUpdate, c.Op)
	}
}

func TestBoardAndStats(t *testing.T) {
	e := setup(t)
	a := e.createApp(t, "Acme", nil)
	e.createApp(t, "Globex", map[string]any{"status": "OFFER"})
	e.do(t, http.MethodPost, "/applications/"+a.ID+"/move", map[string]any{"status": "APPLIED"})

	_, out := e.do(t, http.MethodGet, "/applications/board", nil)
	cols := decode[[]struct {
		Status       string    `json:"status"`
		Applications []appBody `json:"applications"`
	}](t, out.Data)
	require.Len(t, cols, 7)
	assert.Equal(t, "WISHLIST", cols[0].Status)
	assert.Empty(t, cols[0].Applications)
	assert.Len(t, cols[1].Applications, 1)
	assert.Len(t, cols[4].Applications, 1)

	_, out = e.do(t, http.MethodGet, "/applications/stats", nil)
	stats := decode[struct {
		Total   int `json:"total"`
		Applied int `json:"applied"`
		Offers  int `json:"offers"`
	}](t, out.Data)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Applied)
	assert.Equal(t, 1, stats.Offers)
}

func TestSelectionBulkStatus(t *testing.T) {
	e := setup(t)
	a := e.createApp(t, "Acme", map[string]any{"priority": "HIGH"})
	b := e.createApp(t, "Globex", map[string]any{"priority": "HIGH"})
	e.createApp(t, "Initech", nil)

	code, out := e.do(t, http.MethodPost, "/selection/all?priority=HIGH", nil)
	require.Equal(t, http.StatusOK, code)
	sel := decode[struct {
		IDs []string `json:"ids"`
	}](t, out.Data)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, sel.IDs)

	code, _ = e.do(t, http.MethodPost, "/selection/"+a.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, code)

	code, out = e.do(t, http.MethodPost, "/selection/status", map[string]any{"status": "REJECTED"})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"updated":1}`, string(out.Data))

	_, out = e.do(t, http.MethodGet, "/applications?status=REJECTED", nil)
	apps := decode[[]appBody](t, out.Data)
	require.Len(t, apps, 1)
	assert.Equal(t, b.ID, apps[0].ID)

	_, out = e.do(t, http.MethodGet, "/selection", nil)
	assert.JSONEq(t, `{"ids":[],"count":0}`, string(out.Data))

	code, _ = e.do(t, http.MethodPost, "/selection/status", map[string]any{"status": "OFFER"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestBulkStatusRejectsUnknownStatus(t *testing.T) {
	e := setup(t)
	a := e.createApp(t, "Acme", nil)
	code, _ := e.do(t, http.MethodPost, "/applications/bulk/status", map[string]any{"ids": []string{a.ID}, "status": "HIRED"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestResumeDefault(t *testing.T) {
	e := setup(t)
	code, _ := e.do(t, http.MethodGet, "/resumes/default", nil)
	assert.Equal(t, http.StatusNotFound, code)

	_, out := e.do(t, http.MethodPost, "/resumes", map[string]any{"name": "General", "is_default": true})
	first := decode[struct {
		ID        string `json:"id"`
		IsDefault bool   `json:"is_default"`
	}](t, out.Data)
	assert.True(t, first.IsDefault)

	code, out = e.do(t, http.MethodPost, "/resumes", map[string]any{"name": "Backend"})
	require.Equal(t, http.StatusCreated, code)
	second := decode[struct {
		ID string `json:"id"`
	}](t, out.Data)

	code, _ = e.do(t, http.MethodPost, "/resumes/"+second.ID+"/default", nil)
	require.Equal(t, http.StatusOK, code)

	_, out = e.do(t, http.MethodGet, "/resumes/default", nil)
	def := decode[struct {
		ID string `json:"id"`
	}](t, out.Data)
	assert.Equal(t, second.ID, def.ID)
}

func TestTagLinkAndPaletteValidation(t *testing.T) {
	e := setup(t)
	code, _ := e.do(t, http.MethodPost, "/tags", map[string]any{"name": "dream", "color": "#000000"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, out := e.do(t, http.MethodPost, "/tags", map[string]any{"name": "dream", "color": "#8b5cf6"})
	require.Equal(t, http.StatusCreated, code)
	tag := decode[struct {
		ID string `json:"id"`
	}](t, out.Data)

	app := e.createApp(t, "Acme", nil)
	code, out = e.do(t, http.MethodPost, "/applications/"+app.ID+"/tags", map[string]any{"tag_id": tag.ID})
	require.Equal(t, http.StatusOK, code)
	linked := decode[appBody](t, out.Data)
	require.Len(t, linked.Tags, 1)
	assert.Equal(t, tag.ID, linked.Tags[0].ID)

	_, out = e.do(t, http.MethodGet, "/applications?tag="+tag.ID, nil)
	assert.Len(t, decode[[]appBody](t, out.Data), 1)
}

func TestCalendarEndpoints(t *testing.T) {
	e := setup(t)
	app := e.createApp(t, "Acme", nil)

	code, out := e.do(t, http.MethodPost, "/events", map[string]any{
		"company_name":   "Acme",
		"title":          "Onsite",
		"type":           "interview",
		"date":           now.Add(48 * time.Hour).Format(time.RFC3339),
		"application_id": app.ID,
	})
	require.Equal(t, http.StatusCreated, code)
	ev := decode[struct {
		ID string `json:"id"`
	}](t, out.Data)

	code, _ = e.do(t, http.MethodPost, "/events", map[string]any{
		"company_name": "Acme", "title": "Party", "type": "party", "date": now.Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	_, out = e.do(t, http.MethodGet, "/events/upcoming", nil)
	assert.Equal(t, 1, out.Meta.Total)

	_, out = e.do(t, http.MethodGet, "/events?day=2026-05-06", nil)
	assert.Equal(t, 1, out.Meta.Total)
	_, out = e.do(t, http.MethodGet, "/events?day=2026-05-07", nil)
	assert.Equal(t, 0, out.Meta.Total)

	code, _ = e.do(t, http.MethodPost, "/events/"+ev.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, code)
	_, out = e.do(t, http.MethodGet, "/events/upcoming", nil)
	assert.Equal(t, 0, out.Meta.Total)

	code, out = e.do(t, http.MethodGet, "/applications/"+app.ID, nil)
	require.Equal(t, http.StatusOK, code)
	detail := decode[struct {
		Events []struct {
			ID string `json:"id"`
		} `json:"events"`
	}](t, out.Data)
	require.Len(t, detail.Events, 1)
	assert.Equal(t, ev.ID, detail.Events[0].ID)

	code, _ = e.do(t, http.MethodPost, "/events/missing/toggle", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStaleUsesThreshold(t *testing.T) {
	e := setup(t)
	e.createApp(t, "Acme", map[string]any{"status": "APPLIED"})
	e.mem.SetClock(func() time.Time { return now.AddDate(0, 0, -20) })
	old := e.createApp(t, "Globex", map[string]any{"status": "OA_RECEIVED"})
	e.createApp(t, "Initech", map[string]any{"status": "REJECTED"})

	_, out := e.do(t, http.MethodGet, "/applications/stale", nil)
	apps := decode[[]appBody](t, out.Data)
	require.Len(t, apps, 1)
	assert.Equal(t, old.ID, apps[0].ID)

	_, out = e.do(t, http.MethodGet, "/applications/stale?days=30", nil)
	assert.Equal(t, 0, out.Meta.Total)

	code, _ := e.do(t, http.MethodGet, "/applications/stale?days=0", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
