// Package allocation holds the domain model for research-group storage
// allocations: the allocation entity and its attributes, user memberships,
// the GID range allocator, the directory sync rule, the expiry notification
// schedule, and the lifecycle transition rules.
package allocation

import (
	"fmt"
	"time"
)

// ProjectRef identifies the owning project and the people the lifecycle
// emails go to. The project itself is owned by the host application; this
// is a read-only reference.
type ProjectRef struct {
	ID         uint
	Title      string
	PIUsername string
	PIEmail    string
	Faculty    string
	Department string
}

// Allocation is a single research-group storage grant.
type Allocation struct {
	id            uint
	project       ProjectRef
	status        Status
	startDate     time.Time
	endDate       *time.Time
	justification string
	attributes    []Attribute
	createdAt     time.Time
	updatedAt     time.Time
}

// NewAllocation creates an Active allocation for a project. The end date is
// optional; a nil end date means the allocation never expires and is skipped
// by the expiry scheduler and lifecycle job.
func NewAllocation(project ProjectRef, startDate time.Time, endDate *time.Time, justification string) (*Allocation, error) {
	if project.ID == 0 {
		return nil, fmt.Errorf("project reference is required")
	}
	if project.PIUsername == "" {
		return nil, fmt.Errorf("project PI username is required")
	}
	if justification == "" {
		return nil, fmt.Errorf("justification is required")
	}
	if endDate != nil && endDate.Before(startDate) {
		return nil, fmt.Errorf("end date %s precedes start date %s",
			endDate.Format("2006-01-02"), startDate.Format("2006-01-02"))
	}

	now := time.Now().UTC()
	return &Allocation{
		project:       project,
		status:        StatusActive,
		startDate:     startDate,
		endDate:       endDate,
		justification: justification,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructAllocation rebuilds an allocation from persisted state.
func ReconstructAllocation(
	id uint,
	project ProjectRef,
	status Status,
	startDate time.Time,
	endDate *time.Time,
	justification string,
	attributes []Attribute,
	createdAt, updatedAt time.Time,
) (*Allocation, error) {
	if id == 0 {
		return nil, fmt.Errorf("allocation ID cannot be zero")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid allocation status %q", status)
	}
	return &Allocation{
		id:            id,
		project:       project,
		status:        status,
		startDate:     startDate,
		endDate:       endDate,
		justification: justification,
		attributes:    attributes,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}, nil
}

func (a *Allocation) ID() uint              { return a.id }
func (a *Allocation) Project() ProjectRef   { return a.project }
func (a *Allocation) Status() Status        { return a.status }
func (a *Allocation) StartDate() time.Time  { return a.startDate }
func (a *Allocation) EndDate() *time.Time   { return a.endDate }
func (a *Allocation) Justification() string { return a.justification }
func (a *Allocation) CreatedAt() time.Time  { return a.createdAt }
func (a *Allocation) UpdatedAt() time.Time  { return a.updatedAt }

// Attributes returns a copy of the allocation's attributes.
func (a *Allocation) Attributes() []Attribute {
	out := make([]Attribute, len(a.attributes))
	copy(out, a.attributes)
	return out
}

// Attribute returns the value of the single attribute of the given type.
// The second return is false when the attribute is absent. Multiple values
// for a unique type is a data fault and returns an error.
func (a *Allocation) Attribute(t AttributeType) (string, bool, error) {
	var found []string
	for _, attr := range a.attributes {
		if attr.Type == t {
			found = append(found, attr.Value)
		}
	}
	switch len(found) {
	case 0:
		return "", false, nil
	case 1:
		return found[0], true, nil
	default:
		return "", false, fmt.Errorf("allocation %d has %d values for attribute %q", a.id, len(found), t)
	}
}

// SetAttribute appends an attribute, rejecting a second value for any type.
func (a *Allocation) SetAttribute(attr Attribute) error {
	for _, existing := range a.attributes {
		if existing.Type == attr.Type {
			return fmt.Errorf("allocation already has attribute %q", attr.Type)
		}
	}
	a.attributes = append(a.attributes, attr)
	a.updatedAt = time.Now().UTC()
	return nil
}

// TransitionTo advances the lifecycle status by exactly one step.
func (a *Allocation) TransitionTo(next Status) error {
	if !a.status.CanTransitionTo(next) {
		return fmt.Errorf("invalid status transition %s -> %s", a.status, next)
	}
	a.status = next
	a.updatedAt = time.Now().UTC()
	return nil
}

// SetID is called by the repository after the initial insert.
func (a *Allocation) SetID(id uint) {
	a.id = id
}
