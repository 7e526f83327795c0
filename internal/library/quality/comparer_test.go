package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func q(id int) Quality {
	return qualityByID[id]
}

func TestComparer_Compare(t *testing.T) {
	p := HD1080pProfile()
	c := NewComparer(&p)

	tests := []struct {
		name string
		a, b Quality
		want int
	}{
		{"higher ranks above", q(11), q(4), 1},
		{"lower ranks below", q(4), q(11), -1},
		{"equal", q(8), q(8), 0},
		{"unlisted ranks below listed", Quality{ID: 99}, q(1), -1},
		{"two unlisted are equal", Quality{ID: 98}, Quality{ID: 99}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Compare(tt.a, tt.b))
			assert.Equal(t, -tt.want, c.Compare(tt.b, tt.a), "antisymmetry")
		})
	}
}

func TestComparer_RankFollowsProfileOrder(t *testing.T) {
	// Profile ranks WEBDL-1080p above Bluray-1080p regardless of weight.
	p := Profile{Name: "Custom", Cutoff: 10, Items: []QualityItem{
		{Quality: q(11), Allowed: true},
		{Quality: q(10), Allowed: true},
	}}

	assert.Equal(t, 1, Compare(q(10), q(11), &p))
}

func TestComparer_NilProfile(t *testing.T) {
	c := NewComparer(nil)
	assert.Equal(t, 0, c.Compare(q(1), q(17)))
}

func TestComparer_CompareModel(t *testing.T) {
	p := DefaultProfile()
	c := NewComparer(&p)

	sdtv := ModelByID(1)
	proper := sdtv
	proper.Revision.Version = 2
	realProper := proper
	realProper.Revision.Real = 1

	assert.Equal(t, 1, c.CompareModel(proper, sdtv))
	assert.Equal(t, 1, c.CompareModel(realProper, proper))
	assert.Equal(t, -1, c.CompareModel(proper, ModelByID(2)), "quality rank wins over revision")
	assert.Equal(t, 0, c.CompareModel(sdtv, ModelByID(1)))
}

func TestUpgradeSpec(t *testing.T) {
	p := DefaultProfile()
	upgrades := UpgradeSpec{}

	sdtv := ModelByID(1)
	proper := sdtv
	proper.Revision.Version = 2
	hdtv := ModelByID(4)

	assert.True(t, upgrades.IsUpgradable(&p, sdtv, proper))
	assert.True(t, upgrades.IsRevisionUpgrade(sdtv, proper))

	assert.True(t, upgrades.IsUpgradable(&p, sdtv, hdtv))
	assert.False(t, upgrades.IsRevisionUpgrade(sdtv, hdtv), "tier change is not a revision upgrade")

	assert.False(t, upgrades.IsUpgradable(&p, proper, sdtv))
	assert.False(t, upgrades.IsRevisionUpgrade(proper, sdtv))
	assert.False(t, upgrades.IsUpgradable(&p, sdtv, sdtv))

	unversioned := Model{Quality: sdtv.Quality}
	assert.False(t, upgrades.IsRevisionUpgrade(unversioned, sdtv), "a file without a version is the first revision")
	assert.False(t, upgrades.IsUpgradable(&p, unversioned, sdtv))
	assert.Equal(t, 0, NewComparer(&p).CompareModel(unversioned, sdtv))
}
