package lease

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SundayYogurt/equipment_service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumeIsSingleUse(t *testing.T) {
	m := NewManager(time.Minute)

	token, err := m.Issue("AB12CD34", domain.RegistryA, "moss")
	require.NoError(t, err)

	holder, ok := m.Consume(token, "AB12CD34", domain.RegistryA)
	require.True(t, ok)
	assert.Equal(t, "moss", holder)

	_, ok = m.Consume(token, "AB12CD34", domain.RegistryA)
	assert.False(t, ok, "second consumption must fail")
}

func TestConsumeRejectsMismatchedKeyAndKind(t *testing.T) {
	m := NewManager(time.Minute)

	token, err := m.Issue("AB12CD34", domain.RegistryA, "moss")
	require.NoError(t, err)

	_, ok := m.Consume(token, "9F00E211", domain.RegistryA)
	assert.False(t, ok)

	_, ok = m.Consume(token, "AB12CD34", domain.RegistryB)
	assert.False(t, ok)

	// the failed attempts must not have burned the token
	_, ok = m.Consume(token, " ab12cd34 ", domain.RegistryA)
	assert.True(t, ok, "consume renormalizes the expected key")
}

func TestConsumeRejectsExpiredToken(t *testing.T) {
	m := NewManager(DefaultTTL)
	base := time.Now()
	m.nowFn = func() time.Time { return base }

	token, err := m.Issue("AB12CD34", domain.RegistryA, "moss")
	require.NoError(t, err)

	m.nowFn = func() time.Time { return base.Add(DefaultTTL + time.Second) }

	_, ok := m.Consume(token, "AB12CD34", domain.RegistryA)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Active(), "expired token is evicted lazily on lookup")
}

func TestConcurrentConsumersRaceExactlyOneWins(t *testing.T) {
	m := NewManager(time.Minute)

	token, err := m.Issue("AB12CD34", domain.RegistryA, "moss")
	require.NoError(t, err)

	const callers = 64
	var wins int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := m.Consume(token, "AB12CD34", domain.RegistryA); ok {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), wins)
}

func TestSweepDropsExpiredLeases(t *testing.T) {
	m := NewManager(DefaultTTL)
	base := time.Now()
	m.nowFn = func() time.Time { return base }

	_, err := m.Issue("AB12CD34", domain.RegistryA, "moss")
	require.NoError(t, err)
	_, err = m.Issue("9F00E211", domain.RegistryA, "roy")
	require.NoError(t, err)

	m.nowFn = func() time.Time { return base.Add(DefaultTTL + time.Second) }
	m.Sweep()

	assert.Equal(t, 0, m.Active())
}
