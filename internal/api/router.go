package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prasenjit/spechub/internal/events"
	"github.com/prasenjit/spechub/internal/ingest"
	"github.com/prasenjit/spechub/internal/sdkgen"
	"github.com/prasenjit/spechub/internal/stats"
	"github.com/prasenjit/spechub/internal/storage"
)

// Router handles HTTP routing.
type Router struct {
	engine  *gin.Engine
	handler *Handler
	hub     *events.Hub
}

// NewRouter creates a new router wiring all handlers.
func NewRouter(store storage.Storage, workflow *ingest.Workflow, bridge *sdkgen.Bridge, hub *events.Hub, collector *stats.Collector, uploadsDir string) *Router {
	gin.SetMode(gin.ReleaseMode)

	r := &Router{
		engine: gin.New(),
		hub:    hub,
	}

	r.handler = NewHandler(store, workflow, bridge, hub, collector, uploadsDir)

	r.engine.Use(gin.Recovery())
	r.engine.Use(corsMiddleware())
	r.engine.Use(gin.Logger())
	r.engine.MaxMultipartMemory = MaxUploadSize

	r.setupRoutes()

	return r
}

// setupRoutes configures all routes.
func (r *Router) setupRoutes() {
	specs := r.engine.Group("/specs")
	{
		specs.POST("/upload", r.handler.UploadSpec)
		specs.GET("/:id", r.handler.GetApi)
		specs.POST("/:id/save", r.handler.SaveApi)
		specs.GET("/:id/endpoints", r.handler.ListEndpoints)
		specs.GET("/:id/endpoints/detail", r.handler.EndpointDetail)
		specs.POST("/:id/try", r.handler.TryRequest)

		// Listing and service routes live under /specs/api so they cannot
		// collide with record identifiers.
		specs.GET("/api/saved", r.handler.ListSaved)
		specs.GET("/api/all", r.handler.ListAll)
		specs.GET("/api/events", r.handler.ListEvents)
		specs.GET("/api/stats", r.handler.GetStats)

		specs.GET("/download-sdk/:apiId", r.handler.DownloadArchive)
	}

	sdk := r.engine.Group("/sdk")
	{
		sdk.POST("/generate", r.handler.GenerateSDK)
		sdk.GET("/download/:apiId/:language", r.handler.DownloadSDK)
	}

	// WebSocket for the live activity stream
	wsHandler := events.NewWebSocketHandler(r.hub)
	r.engine.GET("/ws/events", gin.WrapH(wsHandler))

	r.engine.GET("/health", r.handler.HealthCheck)
}

// Handler returns the http.Handler.
func (r *Router) Handler() http.Handler {
	return r.engine
}

// corsMiddleware adds CORS headers.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
