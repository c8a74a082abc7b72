package dto

// ToolEvent is published to the broker for every audit entry so the
// notification service can react (e.g. mail on a damaged status).
type ToolEvent struct {
	EventID      string `json:"event_id"`
	ToolKey      string `json:"tool_key"`
	RegistryKind string `json:"registry_kind"`
	Action       string `json:"action"`
	Field        string `json:"field,omitempty"`
	OldValue     string `json:"old_value,omitempty"`
	NewValue     string `json:"new_value,omitempty"`
	Actor        string `json:"actor"`
	OccurredAt   string `json:"occurred_at"`
}
