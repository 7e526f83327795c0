package delayprofile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipstream/delaygate/internal/delayprofile"
	"github.com/slipstream/delaygate/internal/downloader/types"
)

const seedYAML = `profiles:
  - order: fallback
    preferredProtocol: torrent
    usenetDelay: 10
    torrentDelay: 30
  - order: 1
    torrentDelay: 240
    torrentDelayMode: cutoff
    tags: [5]
  - order: 2
    usenetDelay: 60
    tags: [5, 8]
`

func TestParseSeed(t *testing.T) {
	seed, err := delayprofile.ParseSeed([]byte(seedYAML))
	require.NoError(t, err)
	require.Len(t, seed.Profiles, 3)
	assert.True(t, seed.Profiles[0].Order.IsFallback())
	assert.Equal(t, delayprofile.DelayModeCutoff, seed.Profiles[1].TorrentDelayMode)
	assert.Equal(t, []int64{5, 8}, seed.Profiles[2].Tags)
}

func TestParseSeed_TwoFallbacks(t *testing.T) {
	_, err := delayprofile.ParseSeed([]byte("profiles:\n  - order: fallback\n  - order: fallback\n"))
	assert.ErrorIs(t, err, delayprofile.ErrInvalidProfile)
}

func TestStore_ApplyAndExportSeed(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	seed, err := delayprofile.LoadSeedFile(path)
	require.NoError(t, err)
	require.NoError(t, store.ApplySeed(ctx, seed))

	snap := store.Snapshot()
	require.Equal(t, 3, snap.Len())

	def, _ := snap.Default()
	assert.Equal(t, types.ProtocolTorrent, def.PreferredProtocol)
	assert.Equal(t, 30, def.TorrentDelay)

	got, err := snap.ResolveApplicable([]int64{5})
	require.NoError(t, err)
	assert.Equal(t, 240, got.TorrentDelay)

	out := filepath.Join(t.TempDir(), "export.yaml")
	require.NoError(t, store.ExportSeedFile(out))

	exported, err := delayprofile.LoadSeedFile(out)
	require.NoError(t, err)
	require.Len(t, exported.Profiles, 3)
	assert.True(t, exported.Profiles[2].Order.IsFallback(), "fallback profile is exported last")
	assert.Equal(t, []int64{5}, exported.Profiles[0].Tags)
}

func TestLoadSeedFile_Missing(t *testing.T) {
	_, err := delayprofile.LoadSeedFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
