package domain

import "time"

type RegistryKind string

const (
	RegistryA RegistryKind = "A"
	RegistryB RegistryKind = "B"
)

type ToolStatus string

const (
	StatusNominal ToolStatus = "nominal"
	StatusProblem ToolStatus = "problem"
	StatusDamaged ToolStatus = "damaged"
)

type Tool struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	RegistryKey   string       `gorm:"size:64;not null;uniqueIndex:uidx_tools_key_kind" json:"registry_key"`
	RegistryKind  RegistryKind `gorm:"type:varchar(1);not null;uniqueIndex:uidx_tools_key_kind" json:"registry_kind"`
	DisplayName   string       `gorm:"size:255;not null" json:"display_name"`
	Location      string       `gorm:"size:255" json:"location"`
	StatusCode    ToolStatus   `gorm:"type:varchar(20)" json:"status_code"`
	LastActor     string       `gorm:"size:100" json:"last_actor"`
	LastActionAt  *time.Time   `json:"last_action_at,omitempty"`
	ProblemNote   string       `gorm:"type:text" json:"problem_note"`
	AttachmentRef string       `gorm:"size:512" json:"attachment_ref"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// ToolPatch is the allow-listed set of editable fields. Nil pointer = field
// untouched. Anything outside this set never reaches a registry record.
type ToolPatch struct {
	DisplayName   *string `json:"display_name,omitempty"`
	Location      *string `json:"location,omitempty"`
	StatusCode    *string `json:"status_code,omitempty"`
	ProblemNote   *string `json:"problem_note,omitempty"`
	AttachmentRef *string `json:"attachment_ref,omitempty"`
}
