package seed

import "github.com/SundayYogurt/equipment_service/internal/domain"

// SnapshotVersion identifies the static seed list below. Bump when the list
// changes so deployments can tell which snapshot warmed an empty store.
const SnapshotVersion = "2026-06-01"

// Tools returns the seed descriptors used to bootstrap the in-memory
// registries when the durable store is empty or unreachable. Registry A keys
// are the upper-case codes printed on the CARE_ QR labels; registry B keys
// are the lower-case codes of the shared operational pool.
func Tools() []domain.Tool {
	return []domain.Tool{
		{RegistryKey: "AB12CD34", RegistryKind: domain.RegistryA, DisplayName: "Infusion pump 4", Location: "Ward 2", StatusCode: domain.StatusNominal},
		{RegistryKey: "9F00E211", RegistryKind: domain.RegistryA, DisplayName: "Patient lift", Location: "Ward 2", StatusCode: domain.StatusNominal},
		{RegistryKey: "77AC01BB", RegistryKind: domain.RegistryA, DisplayName: "Wheelchair 12", Location: "Storage B1", StatusCode: domain.StatusProblem, ProblemNote: "left brake loose"},
		{RegistryKey: "C4D5E6F7", RegistryKind: domain.RegistryA, DisplayName: "Oxygen concentrator", Location: "Ward 3", StatusCode: domain.StatusNominal},
		{RegistryKey: "ab12cd34", RegistryKind: domain.RegistryB, DisplayName: "Loaner bed rail", Location: "Pool shelf 1", StatusCode: domain.StatusNominal},
		{RegistryKey: "x91kk02d", RegistryKind: domain.RegistryB, DisplayName: "Transfer board", Location: "Pool shelf 1", StatusCode: domain.StatusNominal},
		{RegistryKey: "m3n4p5q6", RegistryKind: domain.RegistryB, DisplayName: "Walker", Location: "Pool shelf 2", StatusCode: domain.StatusDamaged, ProblemNote: "bent frame"},
	}
}

// ForKind filters the snapshot down to one registry.
func ForKind(kind domain.RegistryKind) []domain.Tool {
	var out []domain.Tool
	for _, t := range Tools() {
		if t.RegistryKind == kind {
			out = append(out, t)
		}
	}
	return out
}
