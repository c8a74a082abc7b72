package lease

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/SundayYogurt/equipment_service/internal/domain"
	"github.com/SundayYogurt/equipment_service/internal/registry"
)

// DefaultTTL is the reference edit-lease lifetime.
const DefaultTTL = 10 * time.Minute

type entry struct {
	Key       string
	Kind      domain.RegistryKind
	Holder    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Manager issues and consumes single-use, time-boxed edit tokens. A token
// binds one holder to one tool key; consuming and validating are the same
// atomic operation, so one issued token can never authorize two edits.
// The mutex around lookup-check-delete is the mutual-exclusion primitive.
type Manager struct {
	mu     sync.Mutex
	leases map[string]entry
	ttl    time.Duration
	nowFn  func() time.Time
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		leases: make(map[string]entry),
		ttl:    ttl,
		nowFn:  time.Now,
	}
}

// Issue mints an unguessable token for holder on the given tool key.
func (m *Manager) Issue(key string, kind domain.RegistryKind, holder string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	now := m.nowFn()
	m.mu.Lock()
	m.leases[token] = entry{
		Key:       registry.NormalizeKey(key, kind),
		Kind:      kind,
		Holder:    holder,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}
	m.mu.Unlock()

	return token, nil
}

// Consume validates and destroys the token in one step. Returns the holder
// and true exactly once per issued token; unknown, mismatched or expired
// tokens return false. Expired entries are evicted lazily here — no
// background sweep is needed for correctness.
func (m *Manager) Consume(token, expectedKey string, kind domain.RegistryKind) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.leases[token]
	if !ok {
		return "", false
	}
	if m.nowFn().After(l.ExpiresAt) {
		delete(m.leases, token)
		return "", false
	}
	if l.Kind != kind || l.Key != registry.NormalizeKey(expectedKey, kind) {
		return "", false
	}

	// delete before the caller sees the holder: at most one consumer wins
	delete(m.leases, token)
	return l.Holder, true
}

// Active reports the number of live (possibly expired, not yet evicted)
// leases.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.leases)
}

// Sweep drops expired entries. Memory hygiene only; Consume already rejects
// expired tokens.
func (m *Manager) Sweep() {
	now := m.nowFn()
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, l := range m.leases {
		if now.After(l.ExpiresAt) {
			delete(m.leases, token)
		}
	}
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", errors.New("unable to generate lease token")
	}
	return hex.EncodeToString(b), nil
}
