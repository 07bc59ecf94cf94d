package handler

import (
	"context"
	"errors"
	"time"

	"github.com/abhishek622/careerflow/internal/calendar"
	"github.com/abhishek622/careerflow/internal/gateway"
	"github.com/abhishek622/careerflow/internal/store"
	"github.com/abhishek622/careerflow/internal/workspace"
	"github.com/abhishek622/careerflow/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserIDKey is the gin context key the auth middleware stores the user under.
const UserIDKey = "user_id"

type Handler struct {
	Logger      *zap.Logger
	Registry    *workspace.Registry
	StalledDays int
	Now         func() time.Time
}

func New(logger *zap.Logger, registry *workspace.Registry, stalledDays int) *Handler {
	return &Handler{Logger: logger, Registry: registry, StalledDays: stalledDays, Now: time.Now}
}

// userSpace resolves the caller's workspace and a request context that
// carries the user. It writes the error response itself.
func (h *Handler) userSpace(c *gin.Context) (*workspace.Workspace, context.Context, bool) {
	userID := c.GetString(UserIDKey)
	if userID == "" {
		response.Unauthorized(c, "")
		return nil, nil, false
	}
	ctx := gateway.WithUser(c.Request.Context(), userID)
	ws, err := h.Registry.Get(ctx, userID)
	if err != nil {
		h.fail(c, err)
		return nil, nil, false
	}
	return ws, ctx, true
}

// fail maps err onto a response status.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gateway.ErrUnauthenticated):
		response.Unauthorized(c, "")
	case errors.Is(err, store.ErrValidation), errors.Is(err, calendar.ErrValidation):
		response.ValidationError(c, err.Error())
	case errors.Is(err, store.ErrNotFound), errors.Is(err, gateway.ErrNotFound), errors.Is(err, calendar.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, gateway.ErrDuplicate), errors.Is(err, calendar.ErrExists):
		response.Conflict(c, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.ServiceUnavailable(c, "request cancelled")
	default:
		h.Logger.Sugar().Errorw("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		response.InternalError(c, "")
	}
}

func (h *Handler) Health(c *gin.Context) {
	response.OK(c, gin.H{"status": "ok"})
}
