package dto

import "time"

// AllocationDTO is the read model served over HTTP.
type AllocationDTO struct {
	ID            uint           `json:"id"`
	ProjectID     uint           `json:"project_id"`
	ProjectTitle  string         `json:"project_title"`
	PIUsername    string         `json:"pi_username"`
	Status        string         `json:"status"`
	StartDate     time.Time      `json:"start_date"`
	EndDate       *time.Time     `json:"end_date,omitempty"`
	Justification string         `json:"justification"`
	Attributes    []AttributeDTO `json:"attributes"`
	Members       []MemberDTO    `json:"members"`
	CreatedAt     time.Time      `json:"created_at"`
}

type AttributeDTO struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Usage int64  `json:"usage,omitempty"`
}

type MemberDTO struct {
	Username   string     `json:"username"`
	Email      string     `json:"email,omitempty"`
	Status     string     `json:"status"`
	Expiration *time.Time `json:"expiration,omitempty"`
}
