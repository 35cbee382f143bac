package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSearchType(t *testing.T) {
	for in, want := range map[string]SearchType{
		"":         SearchTypeSemantic,
		"semantic": SearchTypeSemantic,
		"keyword":  SearchTypeKeyword,
		"hybrid":   SearchTypeHybrid,
	} {
		got, ok := ParseSearchType(in)
		require.True(t, ok, in)
		require.Equal(t, want, got)
	}
	for _, in := range []string{"SEMANTIC", " hybrid ", "Keyword", "fuzzy"} {
		_, ok := ParseSearchType(in)
		require.False(t, ok, in)
	}
}
