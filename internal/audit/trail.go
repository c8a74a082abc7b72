package audit

import (
	"sort"
	"sync"

	"github.com/SundayYogurt/equipment_service/internal/domain"
)

const (
	// PerKeyLimit is the per-tool sliding window (registry A policy).
	PerKeyLimit = 7
	// SharedLimit is the reset threshold of the shared operational log
	// (registry B policy): at the threshold the whole log is cleared, not
	// trimmed. Deliberately kept distinct from the per-key window; flagged
	// for product clarification, do not unify.
	SharedLimit = 10
)

// Trail keeps the bounded in-memory audit trails. Per-tool entries are
// re-ranked by timestamp on every insert and capped at PerKeyLimit; the
// shared operational log is cleared entirely when it reaches SharedLimit.
type Trail struct {
	mu     sync.Mutex
	perKey map[string][]domain.AuditEntry
	shared []domain.AuditEntry
}

func NewTrail() *Trail {
	return &Trail{perKey: make(map[string][]domain.AuditEntry)}
}

// Record appends the entry under both retention policies.
func (t *Trail) Record(e domain.AuditEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := append(t.perKey[e.ToolKey], e)
	// resort on every insert: ranking is purely by timestamp, not by a
	// fixed ring position
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if len(entries) > PerKeyLimit {
		entries = entries[:PerKeyLimit]
	}
	t.perKey[e.ToolKey] = entries

	t.shared = append(t.shared, e)
	if len(t.shared) >= SharedLimit {
		t.shared = nil
	}
}

// ForKey returns the retained entries for one tool, most recent first.
func (t *Trail) ForKey(key string) []domain.AuditEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := t.perKey[key]
	out := make([]domain.AuditEntry, len(entries))
	copy(out, entries)
	return out
}

// Shared returns a copy of the shared operational log, oldest first.
func (t *Trail) Shared() []domain.AuditEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]domain.AuditEntry, len(t.shared))
	copy(out, t.shared)
	return out
}
