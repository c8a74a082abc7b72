package dto

import "github.com/SundayYogurt/equipment_service/internal/domain"

type ScanRequest struct {
	Payload string `json:"payload"`
}

type ScanResponse struct {
	Tool     domain.Tool         `json:"tool"`
	Token    string              `json:"token"`
	Registry domain.RegistryKind `json:"registry"`
}

type EditRequest struct {
	Token    string           `json:"token"`
	Registry string           `json:"registry"`
	Patch    domain.ToolPatch `json:"patch"`
}

type EditResponse struct {
	Tool  domain.Tool `json:"tool"`
	Token string      `json:"token"`
}

type ToolResponse struct {
	Tool   domain.Tool `json:"tool"`
	Source string      `json:"source"`
}
