package registry

import (
	"strings"

	"github.com/SundayYogurt/equipment_service/internal/domain"
)

// RegistryAPrefix marks QR payloads minted for registry A tools.
const RegistryAPrefix = "CARE_"

// NormalizeKey canonicalizes a raw scan payload into a lookup key. Registry A
// keys are upper-case, registry B keys lower-case. Idempotent; no character
// set validation — a malformed payload just matches nothing downstream.
func NormalizeKey(raw string, kind domain.RegistryKind) string {
	key := strings.TrimSpace(raw)
	if kind == domain.RegistryA {
		return strings.ToUpper(key)
	}
	return strings.ToLower(key)
}

func HasRegistryAPrefix(payload string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(payload)), RegistryAPrefix)
}

// StripRegistryAPrefix removes the leading prefix from a trimmed payload.
// The caller still normalizes the remainder for registry A.
func StripRegistryAPrefix(payload string) string {
	trimmed := strings.TrimSpace(payload)
	if HasRegistryAPrefix(trimmed) {
		return trimmed[len(RegistryAPrefix):]
	}
	return trimmed
}
