package tv

import (
	"time"

	"github.com/slipstream/delaygate/internal/library/quality"
)

// Series represents a TV series in the library.
type Series struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	TvdbID           int       `json:"tvdbId,omitempty"`
	QualityProfileID int64     `json:"qualityProfileId"`
	Tags             []int64   `json:"tags"`
	Monitored        bool      `json:"monitored"`
	AddedAt          time.Time `json:"addedAt"`
}

// Episode represents an episode of a TV series. File is nil until the
// episode has been imported.
type Episode struct {
	ID            int64          `json:"id"`
	SeriesID      int64          `json:"seriesId"`
	SeasonNumber  int            `json:"seasonNumber"`
	EpisodeNumber int            `json:"episodeNumber"`
	Title         string         `json:"title"`
	File          *quality.Model `json:"file,omitempty"`
}

// HasFile reports whether the episode already has a file on disk.
func (e *Episode) HasFile() bool {
	return e.File != nil
}

// CreateSeriesInput contains fields for creating a series.
type CreateSeriesInput struct {
	Title            string  `json:"title"`
	TvdbID           int     `json:"tvdbId,omitempty"`
	QualityProfileID int64   `json:"qualityProfileId"`
	Tags             []int64 `json:"tags"`
	Monitored        bool    `json:"monitored"`
}

// CreateEpisodeInput contains fields for adding an episode.
type CreateEpisodeInput struct {
	SeasonNumber  int    `json:"seasonNumber"`
	EpisodeNumber int    `json:"episodeNumber"`
	Title         string `json:"title"`
}
