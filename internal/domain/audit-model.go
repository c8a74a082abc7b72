package domain

import "time"

type AuditAction string

const (
	AuditCreate AuditAction = "CREATE"
	AuditScan   AuditAction = "SCAN"
	AuditModify AuditAction = "MODIFY"
)

// AuditEntry is the in-memory trail entry. SCAN and CREATE entries carry no
// field/value data; MODIFY carries exactly one changed field.
type AuditEntry struct {
	ToolKey      string       `json:"tool_key"`
	RegistryKind RegistryKind `json:"registry_kind"`
	Action       AuditAction  `json:"action"`
	Field        string       `json:"field,omitempty"`
	OldValue     string       `json:"old_value,omitempty"`
	NewValue     string       `json:"new_value,omitempty"`
	Actor        string       `json:"actor"`
	CreatedAt    time.Time    `json:"created_at"`
}

// AuditLog is the durable mirror row of an AuditEntry. Append-only; the
// bounded in-memory trail stays authoritative for trail reads.
type AuditLog struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	ToolKey      string       `gorm:"size:64;not null;index" json:"tool_key"`
	RegistryKind RegistryKind `gorm:"type:varchar(1);not null" json:"registry_kind"`
	Action       string       `gorm:"type:varchar(20);not null" json:"action"`
	Field        *string      `gorm:"size:64" json:"field,omitempty"`
	OldValue     *string      `gorm:"type:text" json:"old_value,omitempty"`
	NewValue     *string      `gorm:"type:text" json:"new_value,omitempty"`
	Actor        string       `gorm:"size:100;not null" json:"actor"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
}
