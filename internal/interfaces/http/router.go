package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"allocmgr/internal/application/allocation/usecases"
	"allocmgr/internal/infrastructure/config"
	"allocmgr/internal/infrastructure/repository"
	"allocmgr/internal/infrastructure/tasks"
	allocationhandler "allocmgr/internal/interfaces/http/handlers/allocation"
	"allocmgr/internal/interfaces/http/middleware"
	"allocmgr/internal/interfaces/http/routes"
	"allocmgr/internal/shared/logger"
)

// Router wires the HTTP surface: handlers, routes and middleware.
type Router struct {
	engine *gin.Engine
	db     *gorm.DB
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(db *gorm.DB, queue *tasks.Queue, cfg *config.Config) *Router {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	log := logger.NewLogger().Named("http")

	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger(log))
	engine.Use(middleware.SecurityHeaders())
	if len(cfg.Server.CORSOrigins) > 0 {
		engine.Use(middleware.CORS(cfg.Server.CORSOrigins))
	}

	r := &Router{engine: engine, db: db}
	r.registerHealthRoutes()
	r.registerAllocationRoutes(db, queue, cfg)
	return r
}

// Engine exposes the underlying gin engine for the HTTP server.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) registerHealthRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		sqlDB, err := r.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (r *Router) registerAllocationRoutes(db *gorm.DB, queue *tasks.Queue, cfg *config.Config) {
	allocRepo := repository.NewAllocationRepository(db)
	userRepo := repository.NewAllocationUserRepository(db)

	getAllocationUC := usecases.NewGetAllocationUseCase(
		allocRepo,
		userRepo,
		logger.NewLogger().Named("get_allocation"),
	)

	handler := allocationhandler.NewAllocationHandler(queue, getAllocationUC, &cfg.Allocation)
	routes.SetupAllocationRoutes(r.engine, &routes.AllocationRouteConfig{
		AllocationHandler: handler,
	})
}
