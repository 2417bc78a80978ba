package demo

import (
	"os"
	"path/filepath"
	"testing"

	common "github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs/common"
	"github.com/stretchr/testify/require"

	"github.com/pable/cs-coach/internal/model"
)

func TestIsDemo(t *testing.T) {
	require.True(t, IsDemo("match.dem"))
	require.True(t, IsDemo("/tmp/MATCH.DEM.GZ"))
	require.True(t, IsDemo("x.dem.zst"))
	require.False(t, IsDemo("notes.txt"))
	require.False(t, IsDemo("match.dem.bak"))
}

func TestTeamFromCommon(t *testing.T) {
	require.Equal(t, model.TeamT, teamFromCommon(common.TeamTerrorists))
	require.Equal(t, model.TeamCT, teamFromCommon(common.TeamCounterTerrorists))
	require.Equal(t, model.TeamSpectators, teamFromCommon(common.TeamSpectators))
	require.Equal(t, model.TeamUnknown, teamFromCommon(common.TeamUnassigned))
}

func TestPlayerRefNil(t *testing.T) {
	require.False(t, playerRef(nil).Known())
	require.Empty(t, weaponName(nil))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.dem"))
	require.Error(t, err)
}

func TestOpenRejectsBrokenGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.dem.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip at all"), 0o644))
	_, err := Open(path)
	require.Error(t, err)
}
