// Package delayprofile holds the tag-scoped delay policies that decide how
// long a release is held before it may be grabbed.
package delayprofile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/slipstream/delaygate/internal/downloader/types"
)

// DelayMode controls how the wait interacts with release quality.
type DelayMode string

const (
	// DelayModeFirst grabs early once any held release for the same
	// episodes has waited out the delay.
	DelayModeFirst DelayMode = "first"
	// DelayModeCutoff grabs early once the release meets the cutoff.
	DelayModeCutoff DelayMode = "cutoff"
	// DelayModeAlways always waits the full delay unless nothing better exists.
	DelayModeAlways DelayMode = "always"
)

// Valid reports whether m is a known mode.
func (m DelayMode) Valid() bool {
	switch m {
	case DelayModeFirst, DelayModeCutoff, DelayModeAlways:
		return true
	}
	return false
}

const fallbackLiteral = "fallback"

// Order positions a profile among the others; lower ranks win.
// The Fallback order belongs to the default profile and sorts after every rank.
type Order struct {
	rank     int
	fallback bool
}

// Fallback is the order of the default profile.
var Fallback = Order{fallback: true}

// Ranked returns an ordinary order value.
func Ranked(n int) Order {
	return Order{rank: n}
}

// IsFallback reports whether o is the Fallback sentinel.
func (o Order) IsFallback() bool {
	return o.fallback
}

// Rank returns the numeric rank; ok is false for Fallback.
func (o Order) Rank() (rank int, ok bool) {
	return o.rank, !o.fallback
}

// Less reports whether o sorts before other.
func (o Order) Less(other Order) bool {
	if o.fallback != other.fallback {
		return other.fallback
	}
	return o.rank < other.rank
}

// Compare returns -1, 0 or 1.
func (o Order) Compare(other Order) int {
	switch {
	case o.Less(other):
		return -1
	case other.Less(o):
		return 1
	}
	return 0
}

func (o Order) String() string {
	if o.fallback {
		return fallbackLiteral
	}
	return strconv.Itoa(o.rank)
}

// MarshalJSON encodes ranks as numbers and Fallback as "fallback".
func (o Order) MarshalJSON() ([]byte, error) {
	if o.fallback {
		return json.Marshal(fallbackLiteral)
	}
	return json.Marshal(o.rank)
}

// UnmarshalJSON accepts a number or the "fallback" literal.
func (o *Order) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return o.parse(s)
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid order %s: %w", data, err)
	}
	*o = Ranked(n)
	return nil
}

// MarshalYAML encodes the order for seed files.
func (o Order) MarshalYAML() (interface{}, error) {
	if o.fallback {
		return fallbackLiteral, nil
	}
	return o.rank, nil
}

// UnmarshalYAML decodes the order from seed files.
func (o *Order) UnmarshalYAML(value *yaml.Node) error {
	return o.parse(value.Value)
}

func (o *Order) parse(s string) error {
	if s == fallbackLiteral {
		*o = Fallback
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid order %q", s)
	}
	*o = Ranked(n)
	return nil
}

// Profile is a delay policy scoped to the series carrying one of its tags.
// A profile with no tags applies to every series.
type Profile struct {
	ID                int64          `json:"id"`
	PreferredProtocol types.Protocol `json:"preferredProtocol"`
	UsenetDelay       int            `json:"usenetDelay"`  // minutes
	TorrentDelay      int            `json:"torrentDelay"` // minutes
	UsenetDelayMode   DelayMode      `json:"usenetDelayMode"`
	TorrentDelayMode  DelayMode      `json:"torrentDelayMode"`
	Order             Order          `json:"order"`
	Tags              []int64        `json:"tags"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// IsDefault reports whether p is the protected fallback profile.
func (p *Profile) IsDefault() bool {
	return p.Order.IsFallback()
}

// DelayFor returns the delay and mode that apply to releases of protocol.
func (p *Profile) DelayFor(protocol types.Protocol) (time.Duration, DelayMode) {
	if protocol == types.ProtocolTorrent {
		return time.Duration(p.TorrentDelay) * time.Minute, p.TorrentDelayMode
	}
	return time.Duration(p.UsenetDelay) * time.Minute, p.UsenetDelayMode
}

// AppliesTo reports whether p applies to a series with seriesTags.
func (p *Profile) AppliesTo(seriesTags []int64) bool {
	if len(p.Tags) == 0 {
		return true
	}
	for _, t := range seriesTags {
		if slices.Contains(p.Tags, t) {
			return true
		}
	}
	return false
}

// Input is used when creating or updating a profile.
// A nil Order appends a new profile last, or keeps the rank on update.
type Input struct {
	PreferredProtocol types.Protocol `json:"preferredProtocol"`
	UsenetDelay       int            `json:"usenetDelay"`
	TorrentDelay      int            `json:"torrentDelay"`
	UsenetDelayMode   DelayMode      `json:"usenetDelayMode"`
	TorrentDelayMode  DelayMode      `json:"torrentDelayMode"`
	Order             *int           `json:"order,omitempty"`
	Tags              []int64        `json:"tags"`
}

func (in *Input) normalize() {
	if in.PreferredProtocol == "" {
		in.PreferredProtocol = types.ProtocolUsenet
	}
	if in.UsenetDelayMode == "" {
		in.UsenetDelayMode = DelayModeFirst
	}
	if in.TorrentDelayMode == "" {
		in.TorrentDelayMode = DelayModeFirst
	}
	in.Tags = normalizeTags(in.Tags)
}

func (in *Input) validate(isDefault bool) error {
	switch in.PreferredProtocol {
	case types.ProtocolUsenet, types.ProtocolTorrent:
	default:
		return fmt.Errorf("%w: unknown protocol %q", ErrInvalidProfile, in.PreferredProtocol)
	}
	if in.UsenetDelay < 0 || in.TorrentDelay < 0 {
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidProfile)
	}
	if !in.UsenetDelayMode.Valid() || !in.TorrentDelayMode.Valid() {
		return fmt.Errorf("%w: unknown delay mode", ErrInvalidProfile)
	}
	if isDefault && len(in.Tags) > 0 {
		return fmt.Errorf("%w: the default profile cannot have tags", ErrInvalidProfile)
	}
	if !isDefault && len(in.Tags) == 0 {
		return fmt.Errorf("%w: at least one tag is required", ErrInvalidProfile)
	}
	if !isDefault && in.Order != nil && *in.Order < 1 {
		return fmt.Errorf("%w: order must be positive", ErrInvalidProfile)
	}
	return nil
}

// normalizeTags returns the tags sorted and without duplicates.
func normalizeTags(tags []int64) []int64 {
	out := slices.Clone(tags)
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		out = []int64{}
	}
	return out
}
