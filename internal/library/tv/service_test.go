package tv_test

import (
	"context"
	"errors"
	"testing"

	"github.com/slipstream/delaygate/internal/library/quality"
	"github.com/slipstream/delaygate/internal/library/tv"
	"github.com/slipstream/delaygate/internal/testutil"
)

func TestTVService_CreateSeries(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := tv.NewService(tdb.Conn, tdb.Logger)
	ctx := context.Background()
	profileID := tdb.CreateQualityProfile(t, "HD")

	series, err := service.CreateSeries(ctx, tv.CreateSeriesInput{
		Title:            "Breaking Bad",
		TvdbID:           81189,
		QualityProfileID: profileID,
		Tags:             []int64{5, 2, 5},
		Monitored:        true,
	})
	if err != nil {
		t.Fatalf("CreateSeries() error = %v", err)
	}

	if series.ID == 0 {
		t.Error("CreateSeries() series.ID = 0, want non-zero")
	}
	if series.TvdbID != 81189 {
		t.Errorf("CreateSeries() series.TvdbID = %d, want 81189", series.TvdbID)
	}
	if !series.Monitored {
		t.Error("CreateSeries() series.Monitored = false, want true")
	}
	if len(series.Tags) != 2 || series.Tags[0] != 2 || series.Tags[1] != 5 {
		t.Errorf("CreateSeries() series.Tags = %v, want [2 5]", series.Tags)
	}

	got, err := service.GetSeries(ctx, series.ID)
	if err != nil {
		t.Fatalf("GetSeries() error = %v", err)
	}
	if got.Title != "Breaking Bad" || got.QualityProfileID != profileID {
		t.Errorf("GetSeries() = %+v", got)
	}
}

func TestTVService_CreateSeries_Invalid(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := tv.NewService(tdb.Conn, tdb.Logger)

	_, err := service.CreateSeries(context.Background(), tv.CreateSeriesInput{QualityProfileID: 1})
	if !errors.Is(err, tv.ErrInvalidSeries) {
		t.Errorf("CreateSeries() without title error = %v, want ErrInvalidSeries", err)
	}
}

func TestTVService_GetSeries_NotFound(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := tv.NewService(tdb.Conn, tdb.Logger)
	ctx := context.Background()

	if _, err := service.GetSeries(ctx, 999); !errors.Is(err, tv.ErrSeriesNotFound) {
		t.Errorf("GetSeries() error = %v, want ErrSeriesNotFound", err)
	}
	if _, err := service.Episodes(ctx, 999); !errors.Is(err, tv.ErrSeriesNotFound) {
		t.Errorf("Episodes() error = %v, want ErrSeriesNotFound", err)
	}
	if _, err := service.UpdateTags(ctx, 999, []int64{1}); !errors.Is(err, tv.ErrSeriesNotFound) {
		t.Errorf("UpdateTags() error = %v, want ErrSeriesNotFound", err)
	}
}

func TestTVService_UpdateTags(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := tv.NewService(tdb.Conn, tdb.Logger)
	ctx := context.Background()

	series, err := service.CreateSeries(ctx, tv.CreateSeriesInput{Title: "Andor", QualityProfileID: tdb.CreateQualityProfile(t, "HD")})
	if err != nil {
		t.Fatalf("CreateSeries() error = %v", err)
	}
	if len(series.Tags) != 0 {
		t.Errorf("new series tags = %v, want empty", series.Tags)
	}

	updated, err := service.UpdateTags(ctx, series.ID, []int64{7})
	if err != nil {
		t.Fatalf("UpdateTags() error = %v", err)
	}
	if len(updated.Tags) != 1 || updated.Tags[0] != 7 {
		t.Errorf("UpdateTags() tags = %v, want [7]", updated.Tags)
	}
}

func TestTVService_EpisodesAndFiles(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := tv.NewService(tdb.Conn, tdb.Logger)
	ctx := context.Background()

	series, err := service.CreateSeries(ctx, tv.CreateSeriesInput{Title: "Severance", QualityProfileID: tdb.CreateQualityProfile(t, "HD")})
	if err != nil {
		t.Fatalf("CreateSeries() error = %v", err)
	}

	e1, err := service.AddEpisode(ctx, series.ID, tv.CreateEpisodeInput{SeasonNumber: 1, EpisodeNumber: 1, Title: "Good News About Hell"})
	if err != nil {
		t.Fatalf("AddEpisode() error = %v", err)
	}
	e2, err := service.AddEpisode(ctx, series.ID, tv.CreateEpisodeInput{SeasonNumber: 1, EpisodeNumber: 2})
	if err != nil {
		t.Fatalf("AddEpisode() error = %v", err)
	}
	if e1.HasFile() {
		t.Error("new episode should not have a file")
	}

	proper := quality.ModelByID(1)
	proper.Revision.Version = 2
	if err := service.SetEpisodeFile(ctx, e1.ID, &proper); err != nil {
		t.Fatalf("SetEpisodeFile() error = %v", err)
	}

	got, err := service.Episodes(ctx, series.ID, e1.ID)
	if err != nil {
		t.Fatalf("Episodes() error = %v", err)
	}
	if len(got) != 1 || !got[0].HasFile() {
		t.Fatalf("Episodes() = %+v, want one episode with a file", got)
	}
	if got[0].File.Quality.ID != 1 || got[0].File.Revision.Version != 2 {
		t.Errorf("episode file = %v, want SDTV Proper", got[0].File)
	}

	all, err := service.Episodes(ctx, series.ID)
	if err != nil {
		t.Fatalf("Episodes() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Episodes() returned %d episodes, want 2", len(all))
	}

	if _, err := service.Episodes(ctx, series.ID, e2.ID, 12345); !errors.Is(err, tv.ErrEpisodeNotFound) {
		t.Errorf("Episodes() with a foreign id error = %v, want ErrEpisodeNotFound", err)
	}

	byNumber, err := service.GetEpisodeByNumber(ctx, series.ID, 1, 2)
	if err != nil {
		t.Fatalf("GetEpisodeByNumber() error = %v", err)
	}
	if byNumber.ID != e2.ID {
		t.Errorf("GetEpisodeByNumber() = %d, want %d", byNumber.ID, e2.ID)
	}

	if err := service.SetEpisodeFile(ctx, e1.ID, nil); err != nil {
		t.Fatalf("SetEpisodeFile(nil) error = %v", err)
	}
	if err := service.SetEpisodeFile(ctx, 9999, nil); !errors.Is(err, tv.ErrEpisodeNotFound) {
		t.Errorf("SetEpisodeFile() unknown episode error = %v, want ErrEpisodeNotFound", err)
	}
}
