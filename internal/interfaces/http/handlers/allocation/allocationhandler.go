package allocation

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"allocmgr/internal/application/allocation/usecases"
	"allocmgr/internal/infrastructure/tasks"
	"allocmgr/internal/shared/config"
	"allocmgr/internal/shared/errors"
	"allocmgr/internal/shared/logger"
	"allocmgr/internal/shared/utils"
)

type AllocationHandler struct {
	queue           TaskQueue
	getAllocationUC GetAllocationExecutor
	allocCfg        *config.AllocationConfig
	logger          logger.Interface
}

func NewAllocationHandler(
	queue TaskQueue,
	getAllocationUC GetAllocationExecutor,
	allocCfg *config.AllocationConfig,
) *AllocationHandler {
	return &AllocationHandler{
		queue:           queue,
		getAllocationUC: getAllocationUC,
		allocCfg:        allocCfg,
		logger:          logger.NewLogger(),
	}
}

// CreateAllocation handles POST /allocations. Provisioning talks to external
// services and can take minutes, so the request is queued and the caller
// polls the returned task.
func (h *AllocationHandler) CreateAllocation(c *gin.Context) {
	var req CreateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create allocation", "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError(err.Error()))
		return
	}

	if req.StorageTB < h.allocCfg.MinStorageTB || req.StorageTB > h.allocCfg.MaxStorageTB {
		utils.ErrorResponseWithError(c, errors.NewValidationError(fmt.Sprintf(
			"storage size must be between %d and %d TB", h.allocCfg.MinStorageTB, h.allocCfg.MaxStorageTB)))
		return
	}

	cmd, err := req.ToCommand()
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	taskID, err := h.queue.Enqueue(c.Request.Context(), tasks.KindProvisionAllocation, cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.AcceptedResponse(c, CreateAllocationResponse{TaskID: taskID}, "Allocation provisioning queued")
}

// GetAllocation handles GET /allocations/:id
func (h *AllocationHandler) GetAllocation(c *gin.Context) {
	allocationID, err := parseAllocationID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.getAllocationUC.Execute(c.Request.Context(), usecases.GetAllocationQuery{
		AllocationID: allocationID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// GetTask handles GET /tasks/:id
func (h *AllocationHandler) GetTask(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		utils.ErrorResponseWithError(c, errors.NewValidationError("Invalid task ID"))
		return
	}

	task, err := h.queue.Get(c.Request.Context(), taskID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", NewTaskResponse(task))
}

func parseAllocationID(c *gin.Context) (uint, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.NewValidationError("Invalid allocation ID")
	}
	return uint(id), nil
}
