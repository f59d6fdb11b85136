package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarryhq/quarry/pkg/auth"
)

func TestParseRoutes(t *testing.T) {
	t.Parallel()

	routes, err := parseRoutes([]string{"/releases:read", "/snapshots:WRITE"})
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, auth.Route{Path: "/releases", Permission: auth.PermissionRead}, routes[0])
	assert.Equal(t, auth.Route{Path: "/snapshots", Permission: auth.PermissionWrite}, routes[1])
}

func TestParseRoutesRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	_, err := parseRoutes([]string{"/releases"})
	require.Error(t, err)

	_, err = parseRoutes([]string{":read"})
	require.Error(t, err)

	_, err = parseRoutes([]string{"/releases:admin"})
	require.Error(t, err)
}

func TestFormatRoutes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "-", formatRoutes(nil))
	assert.Equal(t, "/releases:read, /private:write", formatRoutes([]auth.Route{
		{Path: "/releases", Permission: auth.PermissionRead},
		{Path: "/private", Permission: auth.PermissionWrite},
	}))
}
