package routes

import (
	"github.com/gin-gonic/gin"

	allocationhandler "allocmgr/internal/interfaces/http/handlers/allocation"
)

// AllocationRouteConfig holds dependencies for allocation routes.
type AllocationRouteConfig struct {
	AllocationHandler *allocationhandler.AllocationHandler
}

// SetupAllocationRoutes configures allocation and task routes.
func SetupAllocationRoutes(engine *gin.Engine, cfg *AllocationRouteConfig) {
	v1 := engine.Group("/api/v1")
	{
		allocations := v1.Group("/allocations")
		{
			allocations.POST("", cfg.AllocationHandler.CreateAllocation)
			allocations.GET("/:id", cfg.AllocationHandler.GetAllocation)
		}

		tasks := v1.Group("/tasks")
		{
			tasks.GET("/:id", cfg.AllocationHandler.GetTask)
		}
	}
}
