package registry

import (
	"testing"

	"github.com/SundayYogurt/equipment_service/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeKeyIsIdempotent(t *testing.T) {
	inputs := []string{" aB12cD34 ", "AB12CD34", "x91KK02d", "  CARE_77ac01bb"}

	for _, raw := range inputs {
		for _, kind := range []domain.RegistryKind{domain.RegistryA, domain.RegistryB} {
			once := NormalizeKey(raw, kind)
			assert.Equal(t, once, NormalizeKey(once, kind), "raw=%q kind=%s", raw, kind)
		}
	}
}

func TestNormalizeKeyCasingPerRegistry(t *testing.T) {
	assert.Equal(t, "AB12CD34", NormalizeKey(" aB12cD34 ", domain.RegistryA))
	assert.Equal(t, "ab12cd34", NormalizeKey(" aB12cD34 ", domain.RegistryB))
}

func TestRegistryAPrefix(t *testing.T) {
	assert.True(t, HasRegistryAPrefix("CARE_AB12CD34"))
	assert.True(t, HasRegistryAPrefix("  care_ab12cd34"))
	assert.False(t, HasRegistryAPrefix("AB12CD34"))

	assert.Equal(t, "AB12CD34", StripRegistryAPrefix("CARE_AB12CD34"))
	assert.Equal(t, "AB12CD34", StripRegistryAPrefix("AB12CD34"))
}
