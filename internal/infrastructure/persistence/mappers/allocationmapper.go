package mappers

import (
	"time"

	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/infrastructure/persistence/models"
)

// AllocationMapper handles the conversion between allocation domain entities
// and persistence models.
type AllocationMapper interface {
	// ToModel converts an allocation domain entity to a persistence model.
	ToModel(a *allocation.Allocation) *models.AllocationModel

	// AttributesToModels converts the allocation's attributes to rows.
	AttributesToModels(a *allocation.Allocation) []*models.AllocationAttributeModel

	// ToDomain rebuilds an allocation from its row, project row, and
	// attribute rows.
	ToDomain(
		model *models.AllocationModel,
		project *models.ProjectModel,
		attrs []models.AllocationAttributeModel,
	) (*allocation.Allocation, error)

	// ProjectToDomain converts a project row to a read-only reference.
	ProjectToDomain(model *models.ProjectModel) allocation.ProjectRef
}

type AllocationMapperImpl struct{}

func NewAllocationMapper() AllocationMapper {
	return &AllocationMapperImpl{}
}

func (m *AllocationMapperImpl) ToModel(a *allocation.Allocation) *models.AllocationModel {
	model := &models.AllocationModel{
		ID:            a.ID(),
		ProjectID:     a.Project().ID,
		Status:        string(a.Status()),
		StartDate:     a.StartDate().UnixMilli(),
		Justification: a.Justification(),
		CreatedAt:     a.CreatedAt().UnixMilli(),
		UpdatedAt:     a.UpdatedAt().UnixMilli(),
	}

	if a.EndDate() != nil {
		end := a.EndDate().UnixMilli()
		model.EndDate = &end
	}

	return model
}

func (m *AllocationMapperImpl) AttributesToModels(a *allocation.Allocation) []*models.AllocationAttributeModel {
	attrs := a.Attributes()
	rows := make([]*models.AllocationAttributeModel, len(attrs))
	for i, attr := range attrs {
		row := &models.AllocationAttributeModel{
			AllocationID: a.ID(),
			Type:         string(attr.Type),
			Value:        attr.Value,
			Usage:        attr.Usage,
		}
		if attr.Type.IsGloballyUnique() {
			v := attr.Value
			row.UniqueValue = &v
		}
		rows[i] = row
	}
	return rows
}

func (m *AllocationMapperImpl) ToDomain(
	model *models.AllocationModel,
	project *models.ProjectModel,
	attrs []models.AllocationAttributeModel,
) (*allocation.Allocation, error) {
	var endDate *time.Time
	if model.EndDate != nil {
		t := time.UnixMilli(*model.EndDate).UTC()
		endDate = &t
	}

	domainAttrs := make([]allocation.Attribute, len(attrs))
	for i, row := range attrs {
		domainAttrs[i] = allocation.Attribute{
			Type:  allocation.AttributeType(row.Type),
			Value: row.Value,
			Usage: row.Usage,
		}
	}

	var projectRef allocation.ProjectRef
	if project != nil {
		projectRef = m.ProjectToDomain(project)
	} else {
		projectRef = allocation.ProjectRef{ID: model.ProjectID}
	}

	return allocation.ReconstructAllocation(
		model.ID,
		projectRef,
		allocation.Status(model.Status),
		time.UnixMilli(model.StartDate).UTC(),
		endDate,
		model.Justification,
		domainAttrs,
		time.UnixMilli(model.CreatedAt).UTC(),
		time.UnixMilli(model.UpdatedAt).UTC(),
	)
}

func (m *AllocationMapperImpl) ProjectToDomain(model *models.ProjectModel) allocation.ProjectRef {
	return allocation.ProjectRef{
		ID:         model.ID,
		Title:      model.Title,
		PIUsername: model.PIUsername,
		PIEmail:    model.PIEmail,
		Faculty:    model.Faculty,
		Department: model.Department,
	}
}
