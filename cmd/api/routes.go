package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (app *application) routes() http.Handler {
	if app.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// simple logger middleware that uses zap
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		app.Logger.Sugar().Infow("http", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "duration", time.Since(start))
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     app.Config.GetCORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Cache-Control", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(app.RateLimitMiddleware())

	h := app.Handler
	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	protected := v1.Group("/")
	protected.Use(app.AuthMiddleware())
	{
		protected.GET("/state", h.State)
		protected.POST("/refresh", h.Refresh)
		protected.DELETE("/errors", h.ClearErrors)
		protected.DELETE("/workspace", h.Reset)

		// application routes
		protected.GET("/applications", h.ListApplications)
		protected.POST("/applications", h.CreateApplication)
		protected.GET("/applications/board", h.Board)
		protected.GET("/applications/archived", h.ArchivedApplications)
		protected.GET("/applications/stale", h.StaleApplications)
		protected.GET("/applications/stats", h.Stats)
		protected.POST("/applications/bulk/status", h.BulkUpdateStatus)
		protected.POST("/applications/bulk/delete", h.BulkDelete)
		protected.GET("/applications/:id", h.GetApplication)
		protected.PATCH("/applications/:id", h.UpdateApplication)
		protected.POST("/applications/:id/move", h.MoveApplication)
		protected.DELETE("/applications/:id", h.DeleteApplication)

		// application tag links
		protected.GET("/applications/:id/tags", h.ApplicationTags)
		protected.POST("/applications/:id/tags", h.LinkTag)
		protected.DELETE("/applications/:id/tags/:tagId", h.UnlinkTag)

		// selection routes
		protected.GET("/selection", h.GetSelection)
		protected.PUT("/selection", h.ReplaceSelection)
		protected.POST("/selection/all", h.SelectVisible)
		protected.POST("/selection/:id/toggle", h.ToggleSelection)
		protected.DELETE("/selection", h.ClearSelection)
		protected.POST("/selection/status", h.UpdateSelectedStatus)
		protected.POST("/selection/delete", h.DeleteSelected)

		// resume routes
		protected.GET("/resumes", h.ListResumes)
		protected.POST("/resumes", h.CreateResume)
		protected.GET("/resumes/default", h.DefaultResume)
		protected.PATCH("/resumes/:id", h.UpdateResume)
		protected.DELETE("/resumes/:id", h.DeleteResume)
		protected.POST("/resumes/:id/default", h.SetDefaultResume)

		// tag routes
		protected.GET("/tags", h.ListTags)
		protected.GET("/tags/palette", h.TagPalette)
		protected.POST("/tags", h.CreateTag)
		protected.PATCH("/tags/:id", h.UpdateTag)
		protected.DELETE("/tags/:id", h.DeleteTag)

		// calendar routes
		protected.GET("/events", h.ListEvents)
		protected.GET("/events/upcoming", h.UpcomingEvents)
		protected.POST("/events", h.CreateEvent)
		protected.PATCH("/events/:id", h.UpdateEvent)
		protected.POST("/events/:id/toggle", h.ToggleEvent)
		protected.DELETE("/events/:id", h.DeleteEvent)
	}

	return r
}
