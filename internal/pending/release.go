// Package pending stores releases held back by a delay profile until they
// are grabbed or superseded.
package pending

import (
	"slices"
	"time"

	"github.com/slipstream/delaygate/internal/downloader/types"
	"github.com/slipstream/delaygate/internal/library/quality"
)

// Release is a candidate that was temporarily rejected and is waiting for
// its delay to run out.
type Release struct {
	ID          int64          `json:"id"`
	SeriesID    int64          `json:"seriesId"`
	GUID        string         `json:"guid"`
	Title       string         `json:"title"`
	DownloadURL string         `json:"downloadUrl"`
	Indexer     string         `json:"indexer,omitempty"`
	Protocol    types.Protocol `json:"protocol"`
	Quality     quality.Model  `json:"quality"`
	EpisodeIDs  []int64        `json:"episodeIds"`
	PublishDate time.Time      `json:"publishDate"`
	Reason      string         `json:"reason,omitempty"`
	AddedAt     time.Time      `json:"addedAt"`
}

// Age returns how long ago the release was published. A publish date in
// the future counts as zero age.
func (r *Release) Age(now time.Time) time.Duration {
	age := now.Sub(r.PublishDate)
	if age < 0 {
		return 0
	}
	return age
}

// CoversAny reports whether the release contains any of episodeIDs.
func (r *Release) CoversAny(episodeIDs []int64) bool {
	for _, id := range episodeIDs {
		if slices.Contains(r.EpisodeIDs, id) {
			return true
		}
	}
	return false
}
