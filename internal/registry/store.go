package registry

import (
	"sync"
	"time"

	"github.com/SundayYogurt/equipment_service/internal/domain"
)

// FieldChange is one diffed field from an upsert. The store does not write
// audit entries itself; the caller turns these into MODIFY entries.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

// editable fields per registry kind. Registry B records carry no photo
// attachment; a patch touching a field outside the list is silently dropped.
var allowedFields = map[domain.RegistryKind]map[string]bool{
	domain.RegistryA: {
		"display_name":   true,
		"location":       true,
		"status_code":    true,
		"problem_note":   true,
		"attachment_ref": true,
	},
	domain.RegistryB: {
		"display_name": true,
		"location":     true,
		"status_code":  true,
		"problem_note": true,
	},
}

// Store holds the two in-process tool registries. Keys are normalized on
// every read and write path; records from different registries are never
// compared without renormalization. Constructor-injected, never a package
// global, so tests can run isolated instances.
type Store struct {
	mu    sync.RWMutex
	tools map[domain.RegistryKind]map[string]domain.Tool
	nowFn func() time.Time
}

func NewStore() *Store {
	return &Store{
		tools: map[domain.RegistryKind]map[string]domain.Tool{
			domain.RegistryA: {},
			domain.RegistryB: {},
		},
		nowFn: time.Now,
	}
}

// Load replaces the records of one registry, normalizing every key.
func (s *Store) Load(kind domain.RegistryKind, tools []domain.Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]domain.Tool, len(tools))
	for _, t := range tools {
		t.RegistryKey = NormalizeKey(t.RegistryKey, kind)
		t.RegistryKind = kind
		m[t.RegistryKey] = t
	}
	s.tools[kind] = m
}

// Put inserts or replaces a single record.
func (s *Store) Put(tool domain.Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tool.RegistryKey = NormalizeKey(tool.RegistryKey, tool.RegistryKind)
	s.tools[tool.RegistryKind][tool.RegistryKey] = tool
}

// Get is a pure lookup. A miss is a normal outcome, never an error.
func (s *Store) Get(key string, kind domain.RegistryKind) (domain.Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tool, ok := s.tools[kind][NormalizeKey(key, kind)]
	return tool, ok
}

// FindByDisplayName is the exact-match fallback for scans of human-readable
// labels instead of keys.
func (s *Store) FindByDisplayName(name string, kind domain.RegistryKind) (domain.Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tool := range s.tools[kind] {
		if tool.DisplayName == name {
			return tool, true
		}
	}
	return domain.Tool{}, false
}

// Count reports how many records one registry holds.
func (s *Store) Count(kind domain.RegistryKind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tools[kind])
}

// Upsert merges an allow-listed patch into the record under key, creating it
// on first mutation when unknown. Returns the post-merge record, the field
// diff for audit emission, and whether the record was created. A created
// record with no derivable display name gets a placeholder synthesized from
// the key — recovery policy, not an error.
func (s *Store) Upsert(key string, patch domain.ToolPatch, kind domain.RegistryKind, actor string) (domain.Tool, []FieldChange, bool) {
	normKey := NormalizeKey(key, kind)
	now := s.nowFn()

	s.mu.Lock()
	defer s.mu.Unlock()

	tool, ok := s.tools[kind][normKey]
	created := !ok
	if created {
		tool = domain.Tool{
			RegistryKey:  normKey,
			RegistryKind: kind,
			StatusCode:   domain.StatusNominal,
			CreatedAt:    now,
		}
		if patch.DisplayName == nil || *patch.DisplayName == "" {
			tool.DisplayName = "Tool " + normKey
		}
	}

	var changes []FieldChange
	allowed := allowedFields[kind]

	apply := func(field string, ptr *string, cur string, set func(string)) {
		if ptr == nil || !allowed[field] {
			return
		}
		if *ptr == cur {
			return
		}
		changes = append(changes, FieldChange{Field: field, OldValue: cur, NewValue: *ptr})
		set(*ptr)
	}

	apply("display_name", patch.DisplayName, tool.DisplayName, func(v string) { tool.DisplayName = v })
	apply("location", patch.Location, tool.Location, func(v string) { tool.Location = v })
	apply("status_code", patch.StatusCode, string(tool.StatusCode), func(v string) { tool.StatusCode = domain.ToolStatus(v) })
	apply("problem_note", patch.ProblemNote, tool.ProblemNote, func(v string) { tool.ProblemNote = v })
	apply("attachment_ref", patch.AttachmentRef, tool.AttachmentRef, func(v string) { tool.AttachmentRef = v })

	tool.LastActor = actor
	tool.LastActionAt = &now
	tool.UpdatedAt = now

	s.tools[kind][normKey] = tool
	return tool, changes, created
}
