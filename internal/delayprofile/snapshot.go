package delayprofile

import (
	"cmp"
	"slices"
)

// Snapshot is an immutable, ordered view of the delay profiles.
// Callers must not modify the returned profiles' tag slices.
type Snapshot struct {
	profiles []Profile
}

// NewSnapshot copies profiles and orders them by Order, then ID.
func NewSnapshot(profiles []Profile) Snapshot {
	sorted := make([]Profile, len(profiles))
	for i, p := range profiles {
		p.Tags = normalizeTags(p.Tags)
		sorted[i] = p
	}
	slices.SortStableFunc(sorted, func(a, b Profile) int {
		if c := a.Order.Compare(b.Order); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return Snapshot{profiles: sorted}
}

// Profiles returns the profiles in resolution order.
func (s Snapshot) Profiles() []Profile {
	return slices.Clone(s.profiles)
}

// Len returns the number of profiles.
func (s Snapshot) Len() int {
	return len(s.profiles)
}

// Default returns the fallback profile.
func (s Snapshot) Default() (Profile, bool) {
	for _, p := range s.profiles {
		if p.IsDefault() {
			return p, true
		}
	}
	return Profile{}, false
}

// AllForTags returns, in resolution order, every profile sharing a tag with
// seriesTags plus every untagged profile.
func (s Snapshot) AllForTags(seriesTags []int64) []Profile {
	var out []Profile
	for i := range s.profiles {
		if s.profiles[i].AppliesTo(seriesTags) {
			out = append(out, s.profiles[i])
		}
	}
	return out
}

// ResolveApplicable returns the lowest-ordered profile that applies to a
// series with seriesTags. Ties in order are broken by the lower ID.
func (s Snapshot) ResolveApplicable(seriesTags []int64) (Profile, error) {
	for i := range s.profiles {
		if s.profiles[i].AppliesTo(seriesTags) {
			return s.profiles[i], nil
		}
	}
	return Profile{}, ErrNoDefaultProfile
}
