package rando

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUniqueNameDoesNotCollide(t *testing.T) {
	a := UniqueName("page.png")
	b := UniqueName("page.png")
	require.NotEqual(t, a, b)
	require.True(t, strings.HasSuffix(a, "_page.png"))
}

func TestStrongRandomAlphaNumChars(t *testing.T) {
	s := StrongRandomAlphaNumChars(20)
	require.Len(t, s, 20)
	for _, c := range s {
		require.True(t, strings.ContainsRune(alphaNumChars, c))
	}
}
