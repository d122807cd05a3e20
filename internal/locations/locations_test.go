package locations_test

import (
	"testing"

	"github.com/jrsteele09/go-intercom-bridge/internal/locations"
	"github.com/stretchr/testify/require"
)

func TestSubdomainFor(t *testing.T) {
	require.Equal(t, "aucloud", locations.SubdomainFor("61"))
	require.Equal(t, "aucloud", locations.SubdomainFor("+61"))
	require.Equal(t, "ucloud", locations.SubdomainFor(" 1 "))
	require.Equal(t, locations.DefaultSubdomain, locations.SubdomainFor("999"))
	require.Equal(t, locations.DefaultSubdomain, locations.SubdomainFor(""))
}

func TestLookup(t *testing.T) {
	l, ok := locations.Lookup("44")
	require.True(t, ok)
	require.Equal(t, "GB", l.ISO)

	_, ok = locations.Lookup("-1")
	require.False(t, ok)
}

func TestCountries_Sorted(t *testing.T) {
	list := locations.Countries()
	require.NotEmpty(t, list)
	for i := 1; i < len(list); i++ {
		require.LessOrEqual(t, list[i-1].Country, list[i].Country)
	}
}
