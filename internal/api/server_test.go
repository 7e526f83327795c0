package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipstream/delaygate/internal/config"
	"github.com/slipstream/delaygate/internal/decisioning"
	"github.com/slipstream/delaygate/internal/delayprofile"
	"github.com/slipstream/delaygate/internal/downloader/types"
	"github.com/slipstream/delaygate/internal/library/quality"
	"github.com/slipstream/delaygate/internal/library/tv"
	"github.com/slipstream/delaygate/internal/logger"
	"github.com/slipstream/delaygate/internal/testutil"
)

func setupTestServer(t *testing.T, mutate ...func(*config.Config)) *Server {
	t.Helper()

	tdb := testutil.NewTestDB(t)
	t.Cleanup(tdb.Close)

	cfg := config.Default()
	cfg.Pending.Enabled = false
	for _, m := range mutate {
		m(cfg)
	}

	server := NewServer(tdb.DB, nil, nil, logger.NewRecentLog(16), cfg, tdb.Logger)
	require.NoError(t, server.EnsureDefaults(context.Background()))
	return server
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	s := setupTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
}

func TestSecurityHeaders(t *testing.T) {
	s := setupTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = doRequest(t, s, http.MethodGet, "/health", "")
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}

func TestGetStatus(t *testing.T) {
	s := setupTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, config.Version, status.Version)
	assert.Equal(t, 1, status.DelayProfiles)
	assert.Positive(t, status.SchemaVersion)
	assert.False(t, status.DownloaderEnabled)
	assert.Zero(t, status.PendingReleases)
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "delaygate_pending_releases")
}

func TestMetricsDisabled(t *testing.T) {
	s := setupTestServer(t, func(cfg *config.Config) { cfg.Metrics.Enabled = false })

	rec := doRequest(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadRoutesWithoutClient(t *testing.T) {
	s := setupTestServer(t)

	assert.Equal(t, http.StatusNotFound, doRequest(t, s, http.MethodGet, "/api/v1/downloads/queue", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(t, s, http.MethodPost, "/api/v1/downloads/test", "").Code)
}

// fakeUTorrent serves the WebUI endpoints the download routes use.
func fakeUTorrent(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "token.html") {
			_, _ = w.Write([]byte("<div id='token'>TOKEN</div>"))
			return
		}
		switch {
		case r.URL.Query().Get("action") == "getsettings":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"settings": [][]any{{"dir_active_download", 2, "/data/tv/"}},
			})
		case r.URL.Query().Get("list") == "1":
			row := make([]any, 27)
			row[0] = "ABC123"
			row[1] = 201
			row[2] = "Test.Show.S01E01.720p.HDTV"
			row[3] = 1000
			_ = json.NewEncoder(w).Encode(map[string]any{"torrents": [][]any{row}})
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloadRoutesWithClient(t *testing.T) {
	u, err := url.Parse(fakeUTorrent(t).URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	s := setupTestServer(t, func(cfg *config.Config) {
		cfg.Downloader.Enabled = true
		cfg.Downloader.Host = u.Hostname()
		cfg.Downloader.Port = port
	})

	rec := doRequest(t, s, http.MethodPost, "/api/v1/downloads/test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var result map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "/data/tv/", result["downloadDir"])

	rec = doRequest(t, s, http.MethodGet, "/api/v1/downloads/queue/abc123", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var item types.DownloadItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, "ABC123", item.ID)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/downloads/queue/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSystemLogs(t *testing.T) {
	s := setupTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/system/logs", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEvaluateDecision(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()

	def, ok := s.delayProfiles.Snapshot().Default()
	require.True(t, ok)
	_, err := s.delayProfiles.Update(ctx, def.ID, delayprofile.Input{
		PreferredProtocol: types.ProtocolUsenet,
		TorrentDelay:      60,
	})
	require.NoError(t, err)

	profiles, err := s.qualityService.List(ctx)
	require.NoError(t, err)
	var anyProfile int64
	for _, p := range profiles {
		if p.Name == "Any" {
			anyProfile = p.ID
		}
	}
	require.NotZero(t, anyProfile)

	series, err := s.tvService.CreateSeries(ctx, tv.CreateSeriesInput{
		Title:            "Test Show",
		QualityProfileID: anyProfile,
		Monitored:        true,
	})
	require.NoError(t, err)
	episode, err := s.tvService.AddEpisode(ctx, series.ID, tv.CreateEpisodeInput{SeasonNumber: 1, EpisodeNumber: 1})
	require.NoError(t, err)

	release := func(protocol types.Protocol) string {
		data, err := json.Marshal(decisioning.Release{
			SeriesID:    series.ID,
			EpisodeIDs:  []int64{episode.ID},
			GUID:        "guid-" + string(protocol),
			Title:       "Test.Show.S01E01.720p.HDTV",
			Protocol:    protocol,
			Quality:     quality.ModelByID(4),
			PublishDate: time.Now().Add(-10 * time.Minute),
		})
		require.NoError(t, err)
		return string(data)
	}

	tests := []struct {
		name         string
		body         string
		wantAccepted bool
		wantRule     decisioning.Rule
	}{
		{"usenet has no delay", release(types.ProtocolUsenet), true, decisioning.RuleZeroDelay},
		{"torrent waits", release(types.ProtocolTorrent), false, decisioning.RuleWithinDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/api/v1/decisions/evaluate", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var result decisioning.Result
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
			assert.Equal(t, tt.wantAccepted, result.Decision.Accepted)
			assert.Equal(t, tt.wantRule, result.Decision.Rule)
		})
	}

	t.Run("unknown series", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/v1/decisions/evaluate",
			`{"seriesId":9999,"episodeIds":[1],"protocol":"usenet"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestEvaluateDecision_QualityWithoutRevision(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()

	def, ok := s.delayProfiles.Snapshot().Default()
	require.True(t, ok)
	_, err := s.delayProfiles.Update(ctx, def.ID, delayprofile.Input{
		PreferredProtocol: types.ProtocolUsenet,
		TorrentDelay:      120,
		TorrentDelayMode:  delayprofile.DelayModeCutoff,
	})
	require.NoError(t, err)

	profiles, err := s.qualityService.List(ctx)
	require.NoError(t, err)
	var anyProfile int64
	for _, p := range profiles {
		if p.Name == "Any" {
			anyProfile = p.ID
		}
	}
	require.NotZero(t, anyProfile)

	series, err := s.tvService.CreateSeries(ctx, tv.CreateSeriesInput{
		Title:            "Revisionless",
		QualityProfileID: anyProfile,
		Monitored:        true,
	})
	require.NoError(t, err)
	episode, err := s.tvService.AddEpisode(ctx, series.ID, tv.CreateEpisodeInput{SeasonNumber: 1, EpisodeNumber: 1})
	require.NoError(t, err)

	// Indexer payloads commonly carry only the quality ID.
	body := func(qualityID int) string {
		return fmt.Sprintf(`{"seriesId":%d,"episodeIds":[%d],"guid":"q%d","title":"Revisionless.S01E01",`+
			`"protocol":"torrent","quality":{"quality":{"id":%d}},"publishDate":%q}`,
			series.ID, episode.ID, qualityID, qualityID, time.Now().Add(-10*time.Minute).Format(time.RFC3339))
	}

	tests := []struct {
		name         string
		qualityID    int
		wantAccepted bool
		wantRule     decisioning.Rule
	}{
		{"top quality", 17, true, decisioning.RuleBestQuality},
		{"cutoff quality", 11, true, decisioning.RuleCutoffMet},
		{"below cutoff", 4, false, decisioning.RuleWithinDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/api/v1/decisions/evaluate", body(tt.qualityID))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var result decisioning.Result
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
			assert.Equal(t, tt.wantAccepted, result.Decision.Accepted, result.Decision.Reason)
			assert.Equal(t, tt.wantRule, result.Decision.Rule)
			assert.Equal(t, 1, result.Candidate.Quality.Revision.Version)
		})
	}
}

func TestEnsureDefaults_AppliesSeedOnce(t *testing.T) {
	seedPath := filepath.Join(t.TempDir(), "delay.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(`profiles:
  - preferredProtocol: torrent
    usenetDelay: 30
    order: fallback
  - preferredProtocol: usenet
    torrentDelay: 120
    order: 1
    tags: [1]
`), 0o600))

	s := setupTestServer(t, func(cfg *config.Config) { cfg.Seed.Path = seedPath })
	require.Equal(t, 2, s.delayProfiles.Snapshot().Len())

	def, ok := s.delayProfiles.Snapshot().Default()
	require.True(t, ok)
	assert.Equal(t, types.ProtocolTorrent, def.PreferredProtocol)
	assert.Equal(t, 30, def.UsenetDelay)

	require.NoError(t, s.EnsureDefaults(context.Background()))
	assert.Equal(t, 2, s.delayProfiles.Snapshot().Len(), "seed must not be applied twice")
}
