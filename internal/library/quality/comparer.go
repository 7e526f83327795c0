package quality

// Comparer orders qualities by their rank in a profile's item list.
// Qualities the profile does not list rank below every listed one.
type Comparer struct {
	profile *Profile
}

// NewComparer returns a comparer ranking by p.
func NewComparer(p *Profile) Comparer {
	return Comparer{profile: p}
}

// Compare returns -1, 0 or 1 as a ranks below, equal to or above b.
func (c Comparer) Compare(a, b Quality) int {
	return sign(c.rank(a) - c.rank(b))
}

// CompareModel compares by quality rank, then by revision.
func (c Comparer) CompareModel(a, b Model) int {
	if cmp := c.Compare(a.Quality, b.Quality); cmp != 0 {
		return cmp
	}
	return a.Revision.Compare(b.Revision)
}

func (c Comparer) rank(q Quality) int {
	if c.profile == nil {
		return -1
	}
	return c.profile.Index(q.ID)
}

// Compare ranks a against b using profile p.
func Compare(a, b Quality, p *Profile) int {
	return NewComparer(p).Compare(a, b)
}
