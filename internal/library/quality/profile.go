package quality

import (
	"encoding/json"
	"fmt"
	"time"
)

// Quality represents a quality tier.
type Quality struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Source     string `json:"source"`     // "bluray", "webdl", "hdtv", etc.
	Resolution int    `json:"resolution"` // 480, 720, 1080, 2160
	Weight     int    `json:"weight"`     // Higher = better quality
}

// Revision distinguishes corrected releases of the same quality.
// A proper or repack bumps Version; Real marks a REAL proper.
type Revision struct {
	Version int `json:"version"`
	Real    int `json:"real"`
}

// UnmarshalJSON defaults an absent or zero version to the first revision.
func (r *Revision) UnmarshalJSON(data []byte) error {
	type plain Revision
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Revision(v).normalize()
	return nil
}

func (r Revision) normalize() Revision {
	if r.Version < 1 {
		r.Version = 1
	}
	return r
}

// Compare orders revisions by version, then by real. A version below 1
// counts as the first revision.
func (r Revision) Compare(other Revision) int {
	a, b := r.normalize(), other.normalize()
	if a.Version != b.Version {
		return sign(a.Version - b.Version)
	}
	return sign(a.Real - b.Real)
}

// Model is a quality together with its revision, as parsed from a release or file.
type Model struct {
	Quality  Quality  `json:"quality"`
	Revision Revision `json:"revision"`
}

// UnmarshalJSON decodes a model, treating a missing revision as the first
// one. A quality given only by ID is filled in from the predefined table.
func (m *Model) UnmarshalJSON(data []byte) error {
	type plain Model
	v := plain{Revision: Revision{Version: 1}}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Model(v)
	m.Revision = m.Revision.normalize()
	if m.Quality.Name == "" {
		if q, ok := GetQualityByID(m.Quality.ID); ok {
			m.Quality = q
		}
	}
	return nil
}

// NewModel returns a first-revision model for q.
func NewModel(q Quality) Model {
	return Model{Quality: q, Revision: Revision{Version: 1}}
}

// ModelByID returns a first-revision model for a predefined quality ID.
// Unknown IDs produce a model whose quality only carries the ID.
func ModelByID(id int) Model {
	q, ok := GetQualityByID(id)
	if !ok {
		q = Quality{ID: id}
	}
	return NewModel(q)
}

func (m Model) String() string {
	name := m.Quality.Name
	if name == "" {
		name = fmt.Sprintf("Unknown(%d)", m.Quality.ID)
	}
	switch {
	case m.Revision.Real > 0:
		return name + " REAL"
	case m.Revision.Version > 1:
		return name + " Proper"
	}
	return name
}

// QualityItem represents a quality in a profile with its allowed status.
type QualityItem struct {
	Quality Quality `json:"quality"`
	Allowed bool    `json:"allowed"`
}

// Profile represents a quality profile. Items are ranked low to high.
type Profile struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Cutoff    int           `json:"cutoff"` // Quality ID at which upgrades stop
	Items     []QualityItem `json:"items"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// CreateProfileInput is used when creating a new profile.
type CreateProfileInput struct {
	Name   string        `json:"name"`
	Cutoff int           `json:"cutoff"`
	Items  []QualityItem `json:"items"`
}

// UpdateProfileInput is used when updating a profile.
type UpdateProfileInput struct {
	Name   string        `json:"name"`
	Cutoff int           `json:"cutoff"`
	Items  []QualityItem `json:"items"`
}

// PredefinedQualities are the standard quality definitions.
var PredefinedQualities = []Quality{
	{ID: 1, Name: "SDTV", Source: "tv", Resolution: 480, Weight: 1},
	{ID: 2, Name: "DVD", Source: "dvd", Resolution: 480, Weight: 2},
	{ID: 3, Name: "WEBRip-480p", Source: "webrip", Resolution: 480, Weight: 3},
	{ID: 4, Name: "HDTV-720p", Source: "tv", Resolution: 720, Weight: 4},
	{ID: 5, Name: "WEBRip-720p", Source: "webrip", Resolution: 720, Weight: 5},
	{ID: 6, Name: "WEBDL-720p", Source: "webdl", Resolution: 720, Weight: 6},
	{ID: 7, Name: "Bluray-720p", Source: "bluray", Resolution: 720, Weight: 7},
	{ID: 8, Name: "HDTV-1080p", Source: "tv", Resolution: 1080, Weight: 8},
	{ID: 9, Name: "WEBRip-1080p", Source: "webrip", Resolution: 1080, Weight: 9},
	{ID: 10, Name: "WEBDL-1080p", Source: "webdl", Resolution: 1080, Weight: 10},
	{ID: 11, Name: "Bluray-1080p", Source: "bluray", Resolution: 1080, Weight: 11},
	{ID: 12, Name: "Remux-1080p", Source: "remux", Resolution: 1080, Weight: 12},
	{ID: 13, Name: "HDTV-2160p", Source: "tv", Resolution: 2160, Weight: 13},
	{ID: 14, Name: "WEBRip-2160p", Source: "webrip", Resolution: 2160, Weight: 14},
	{ID: 15, Name: "WEBDL-2160p", Source: "webdl", Resolution: 2160, Weight: 15},
	{ID: 16, Name: "Bluray-2160p", Source: "bluray", Resolution: 2160, Weight: 16},
	{ID: 17, Name: "Remux-2160p", Source: "remux", Resolution: 2160, Weight: 17},
}

var qualityByID map[int]Quality

func init() {
	qualityByID = make(map[int]Quality)
	for _, q := range PredefinedQualities {
		qualityByID[q.ID] = q
	}
}

// GetQualityByID returns a quality by its ID.
func GetQualityByID(id int) (Quality, bool) {
	q, ok := qualityByID[id]
	return q, ok
}

// GetQualityByName finds a quality by name.
func GetQualityByName(name string) (Quality, bool) {
	for _, q := range PredefinedQualities {
		if q.Name == name {
			return q, true
		}
	}
	return Quality{}, false
}

func profileFor(name string, cutoff int, allowed func(Quality) bool) Profile {
	items := make([]QualityItem, len(PredefinedQualities))
	for i, q := range PredefinedQualities {
		items[i] = QualityItem{Quality: q, Allowed: allowed(q)}
	}
	return Profile{Name: name, Cutoff: cutoff, Items: items}
}

// DefaultProfile returns a default "Any" profile that accepts all qualities.
func DefaultProfile() Profile {
	return profileFor("Any", 11, func(Quality) bool { return true })
}

// HD1080pProfile returns a profile targeting 1080p content.
func HD1080pProfile() Profile {
	return profileFor("HD-1080p", 11, func(q Quality) bool {
		return q.Resolution >= 720 && q.Resolution <= 1080
	})
}

// Ultra4KProfile returns a profile targeting 4K content.
func Ultra4KProfile() Profile {
	return profileFor("Ultra-HD", 16, func(q Quality) bool { return q.Resolution >= 1080 })
}

// SerializeItems converts quality items to JSON for database storage.
func SerializeItems(items []QualityItem) (string, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DeserializeItems parses JSON quality items from database.
func DeserializeItems(data string) ([]QualityItem, error) {
	var items []QualityItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Index returns the rank of a quality in the profile, or -1 when it is not listed.
func (p *Profile) Index(qualityID int) int {
	for i, item := range p.Items {
		if item.Quality.ID == qualityID {
			return i
		}
	}
	return -1
}

// IsAcceptable checks if a quality is acceptable for this profile.
func (p *Profile) IsAcceptable(qualityID int) bool {
	i := p.Index(qualityID)
	return i >= 0 && p.Items[i].Allowed
}

// HighestAllowed returns the best allowed quality. ok is false when
// no item is allowed, in which case the profile has no upgrade ceiling.
func (p *Profile) HighestAllowed() (Quality, bool) {
	for i := len(p.Items) - 1; i >= 0; i-- {
		if p.Items[i].Allowed {
			return p.Items[i].Quality, true
		}
	}
	return Quality{}, false
}

// CutoffQuality resolves the cutoff quality ID.
func (p *Profile) CutoffQuality() (Quality, bool) {
	if i := p.Index(p.Cutoff); i >= 0 {
		return p.Items[i].Quality, true
	}
	return GetQualityByID(p.Cutoff)
}

// Validate checks that the cutoff is an allowed item of the profile.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	seen := make(map[int]struct{}, len(p.Items))
	for _, item := range p.Items {
		if _, dup := seen[item.Quality.ID]; dup {
			return fmt.Errorf("%w: quality %d listed twice", ErrInvalidProfile, item.Quality.ID)
		}
		seen[item.Quality.ID] = struct{}{}
	}
	if !p.IsAcceptable(p.Cutoff) {
		return fmt.Errorf("%w: cutoff %d must be an allowed quality", ErrInvalidProfile, p.Cutoff)
	}
	return nil
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
