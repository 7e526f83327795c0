package quality

// UpgradeSpec decides whether a release improves on an existing file.
type UpgradeSpec struct{}

// IsUpgradable reports whether candidate ranks strictly above current in p.
func (UpgradeSpec) IsUpgradable(p *Profile, current, candidate Model) bool {
	return NewComparer(p).CompareModel(candidate, current) > 0
}

// IsRevisionUpgrade reports whether candidate is a newer revision of the
// same quality as current (a proper or repack), not a different tier.
func (UpgradeSpec) IsRevisionUpgrade(current, candidate Model) bool {
	return current.Quality.ID == candidate.Quality.ID &&
		candidate.Revision.Compare(current.Revision) > 0
}
