package identify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCountry(t *testing.T) {
	c, ok := LookupCountry("gbr")
	require.True(t, ok)
	assert.Equal(t, "+44", c.DialCode())

	c, ok = LookupCountry("IN")
	require.True(t, ok)
	assert.Equal(t, "IND", c.Alpha3)

	_, ok = LookupCountry("nowhere")
	assert.False(t, ok)
}

func TestCountry_DialCodeTakesFirst(t *testing.T) {
	c, ok := LookupCountry("DOM")
	require.True(t, ok)
	assert.Equal(t, "+1 809", c.DialCode())

	c, ok = LookupCountry("BVT")
	require.True(t, ok)
	assert.Equal(t, "", c.DialCode())
}

func TestSearchCountries(t *testing.T) {
	assert.Len(t, SearchCountries(""), len(countries))

	got := SearchCountries("united")
	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"United Arab Emirates", "United Kingdom", "United States"}, names)

	byCode := SearchCountries("+44")
	require.Len(t, byCode, 1)
	assert.Equal(t, "GBR", byCode[0].Alpha3)
}

func TestCountries_SortedCopy(t *testing.T) {
	all := Countries()
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Name, all[i].Name)
	}
	all[0].Name = "changed"
	assert.NotEqual(t, "changed", Countries()[0].Name)
}
