package main

import (
	"bytes"
	"strings"
	"testing"

	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteStandings(t *testing.T) {
	var buf bytes.Buffer
	err := writeStandings(&buf, []demonlistdomain.Standing{
		{Player: "judah", Active: 40, Reserve: 2.5, Banked: 10, Current: 50, Total: 52.5},
		{Player: "jack"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "PLAYER")
	assert.Contains(t, lines[1], "judah")
	assert.Contains(t, lines[1], "52.50")
	assert.Contains(t, lines[2], "0.00")
}
