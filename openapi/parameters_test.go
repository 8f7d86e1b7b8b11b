package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameterBagReplaceSemantics(t *testing.T) {
	q := newQueryParameters()
	require.NoError(t, q.Set("page", "1", StyleForm, true, false, nil))
	require.NoError(t, q.Set("page", "2", StyleForm, true, false, nil))

	entries := q.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "2", entries[0].Value)
}

func TestQueryParametersEncode(t *testing.T) {
	q := newQueryParameters()
	require.NoError(t, q.Set("a", "1", StyleForm, true, false, nil))
	require.NoError(t, q.Set("b", "2", StyleForm, true, false, nil))

	encoded, err := q.Encode()
	require.NoError(t, err)
	assert.Equal(t, "a=1&b=2", encoded)
}

func TestHeaderParametersSortedByName(t *testing.T) {
	h := newHeaderParameters()
	require.NoError(t, h.Set("X-Zeta", "z", StyleSimple, false, false, nil))
	require.NoError(t, h.Set("X-Alpha", "a", StyleSimple, false, false, nil))

	entries := h.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "X-Alpha", entries[0].Name)
	assert.Equal(t, "X-Zeta", entries[1].Name)
}

func TestHeaderNameValidation(t *testing.T) {
	h := newHeaderParameters()

	t.Run("illegal character rejected", func(t *testing.T) {
		err := h.Set("X Bad", "v", StyleSimple, false, false, nil)
		var pErr *ParameterError
		require.ErrorAs(t, err, &pErr)
	})

	t.Run("CR/LF in value rejected", func(t *testing.T) {
		err := h.Set("X-Ok", "v\r\ninjected", StyleSimple, false, false, nil)
		var pErr *ParameterError
		require.ErrorAs(t, err, &pErr)
	})
}

func TestCookieParametersEncode(t *testing.T) {
	c := newCookieParameters()
	require.NoError(t, c.Set("session", "abc def", true, nil))
	require.NoError(t, c.Set("theme", "dark", false, nil))

	assert.Equal(t, "session=abc+def; theme=dark", c.Encode())
}

func TestStyleNotAllowedForLocation(t *testing.T) {
	p := newPathParameters()
	err := p.Set("id", "1", StyleForm, false, nil)
	var pErr *ParameterError
	require.ErrorAs(t, err, &pErr)
}
