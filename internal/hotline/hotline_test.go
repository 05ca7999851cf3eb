package hotline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_KnownCountry(t *testing.T) {
	p := Resolve("IN")
	assert.Equal(t, "IN", p.CountryCode)
	assert.Equal(t, "112", p.General)
	assert.Equal(t, "100", p.Police)
	assert.Equal(t, "1098", p.Child)

	us := Resolve("US")
	assert.Equal(t, "911", us.General)
	assert.Empty(t, us.Police)
}

func TestResolve_CaseInsensitive(t *testing.T) {
	assert.Equal(t, Resolve("GB"), Resolve("gb"))
	assert.Equal(t, "999", Resolve(" gb ").General)
}

func TestResolve_FallsBackToDefault(t *testing.T) {
	for _, code := range []string{"", "ZZ", "??", "USA"} {
		p := Resolve(code)
		assert.Equal(t, Default(), p, "code %q should resolve to the default profile", code)
		assert.Equal(t, "112", p.General)
	}
}
