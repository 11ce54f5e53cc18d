package main

import (
	"testing"

	"github.com/savid/iptv-builder/internal/dataset"
	"github.com/stretchr/testify/require"
)

func TestFindClosestMatches(t *testing.T) {
	keys := []string{"irib1.ir", "IRIB2.ir@SD", "CNN.us", "IRIB1.ir@HD"}

	matches := findClosestMatches("IRIB1.ir", keys)
	require.Equal(t, []string{"IRIB1.ir@HD", "irib1.ir", "IRIB2.ir@SD"}, matches)

	require.Empty(t, findClosestMatches("BBC.uk", keys))
	require.Nil(t, findClosestMatches("", keys))
}

func TestStreamKeys(t *testing.T) {
	streams := dataset.New([]string{"channel", "url"},
		dataset.Row{"channel": "A", "url": "http://a/1"},
		dataset.Row{"channel": "", "url": "http://none"},
		dataset.Row{"channel": "A", "url": "http://a/2"},
		dataset.Row{"channel": "B", "url": "http://b"},
	)

	require.Equal(t, []string{"A", "B"}, streamKeys(streams, "channel"))
}
