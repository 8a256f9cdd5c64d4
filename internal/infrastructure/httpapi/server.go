package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"WineScout/internal/metrics"
	"WineScout/internal/ports"
	"WineScout/internal/usecase"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Sync        *usecase.SyncService
	Catalog     *usecase.Catalog
	Tracker     ports.SyncTracker
	LaunchPlans ports.LaunchPlanRepository
	Favorites   ports.FavoritesStore
	Repository  ports.WineRepository
	Logger      *slog.Logger
}

// Server is the gin-backed HTTP adapter.
type Server struct {
	deps   Deps
	engine *gin.Engine
}

// NewServer builds the router with CORS, metrics middleware and all
// routes registered.
func NewServer(deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(recordMetrics())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", "X-Device-Id", "X-Role")
	engine.Use(cors.New(corsConfig))

	s := &Server{deps: deps, engine: engine}
	s.routes()
	return s
}

// Handler exposes the router for the HTTP server and for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := s.engine.Group("/api")
	api.POST("/sync/:source", s.triggerSync)
	api.POST("/sync/:source/batch", s.runSyncBatch)
	api.GET("/sync/status", s.syncStatus)
	api.GET("/sync/runs/:source", s.syncRuns)

	api.GET("/wines", s.listWines)
	api.GET("/launch-plans", s.listLaunchPlans)
	api.POST("/launch-plans", s.createLaunchPlan)

	api.GET("/lists", s.listLists)
	api.POST("/lists", s.createList)
	api.DELETE("/lists/:id", s.deleteList)
	api.POST("/lists/:id/wines", s.addListWine)
	api.DELETE("/lists/:id/wines/:productId", s.removeListWine)

	api.GET("/export/wines.csv", s.exportCSV)
	api.GET("/export/wines.json", s.exportJSON)
	api.GET("/export/wines.xlsx", s.exportXLSX)

	api.POST("/admin/reset", s.adminReset)

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
}

func recordMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start))
	}
}
