package sqlc

import (
	"database/sql"
	"time"
)

type DelayProfile struct {
	ID                int64         `json:"id"`
	PreferredProtocol string        `json:"preferred_protocol"`
	UsenetDelay       int64         `json:"usenet_delay"`
	TorrentDelay      int64         `json:"torrent_delay"`
	UsenetDelayMode   string        `json:"usenet_delay_mode"`
	TorrentDelayMode  string        `json:"torrent_delay_mode"`
	SortOrder         sql.NullInt64 `json:"sort_order"`
	IsDefault         int64         `json:"is_default"`
	Tags              string        `json:"tags"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

type Episode struct {
	ID            int64          `json:"id"`
	SeriesID      int64          `json:"series_id"`
	SeasonNumber  int64          `json:"season_number"`
	EpisodeNumber int64          `json:"episode_number"`
	Title         string         `json:"title"`
	FileQuality   sql.NullString `json:"file_quality"`
}

type PendingRelease struct {
	ID          int64     `json:"id"`
	SeriesID    int64     `json:"series_id"`
	Guid        string    `json:"guid"`
	Title       string    `json:"title"`
	DownloadUrl string    `json:"download_url"`
	Indexer     string    `json:"indexer"`
	Protocol    string    `json:"protocol"`
	Quality     string    `json:"quality"`
	EpisodeIds  string    `json:"episode_ids"`
	PublishDate time.Time `json:"publish_date"`
	Reason      string    `json:"reason"`
	AddedAt     time.Time `json:"added_at"`
}

type QualityProfile struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Cutoff    int64     `json:"cutoff"`
	Items     string    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Series struct {
	ID               int64         `json:"id"`
	Title            string        `json:"title"`
	TvdbID           sql.NullInt64 `json:"tvdb_id"`
	QualityProfileID int64         `json:"quality_profile_id"`
	Tags             string        `json:"tags"`
	Monitored        int64         `json:"monitored"`
	AddedAt          time.Time     `json:"added_at"`
}

type Tag struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}
