package allocation

import (
	"time"

	"allocmgr/internal/application/allocation/usecases"
	"allocmgr/internal/infrastructure/tasks"
	"allocmgr/internal/shared/biztime"
	"allocmgr/internal/shared/errors"
)

// CreateAllocationRequest is the JSON body for POST /allocations. Dates are
// plain calendar dates in the business timezone.
type CreateAllocationRequest struct {
	ProjectID     uint   `json:"project_id" binding:"required"`
	Shortname     string `json:"shortname" binding:"required,shortname"`
	StorageTB     int    `json:"storage_tb" binding:"required,min=1"`
	StartDate     string `json:"start_date" binding:"required"`
	EndDate       string `json:"end_date"`
	Justification string `json:"justification" binding:"required"`
}

func (r *CreateAllocationRequest) ToCommand() (usecases.ProvisionAllocationCommand, error) {
	startDate, err := biztime.ParseDateInBizTimezone(r.StartDate)
	if err != nil {
		return usecases.ProvisionAllocationCommand{}, errors.NewValidationError("invalid start_date, expected YYYY-MM-DD")
	}

	var endDate *time.Time
	if r.EndDate != "" {
		parsed, err := biztime.ParseDateInBizTimezone(r.EndDate)
		if err != nil {
			return usecases.ProvisionAllocationCommand{}, errors.NewValidationError("invalid end_date, expected YYYY-MM-DD")
		}
		endDate = &parsed
	}

	return usecases.ProvisionAllocationCommand{
		ProjectID:     r.ProjectID,
		Shortname:     r.Shortname,
		StorageTB:     r.StorageTB,
		StartDate:     startDate,
		EndDate:       endDate,
		Justification: r.Justification,
	}, nil
}

// CreateAllocationResponse acknowledges an accepted provisioning request.
type CreateAllocationResponse struct {
	TaskID string `json:"task_id"`
}

// TaskResponse is the read model for GET /tasks/:id.
type TaskResponse struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Status     string     `json:"status"`
	Result     any        `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func NewTaskResponse(t *tasks.Task) TaskResponse {
	resp := TaskResponse{
		ID:         t.ID,
		Kind:       t.Kind,
		Status:     string(t.Status),
		Error:      t.Error,
		CreatedAt:  t.CreatedAt,
		StartedAt:  t.StartedAt,
		FinishedAt: t.FinishedAt,
	}
	if len(t.Result) > 0 {
		resp.Result = t.Result
	}
	return resp
}
