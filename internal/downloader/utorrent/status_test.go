package utorrent

import (
	"testing"

	"github.com/slipstream/delaygate/internal/downloader/types"
)

func TestStatusFlags_Has(t *testing.T) {
	f := FlagLoaded.With(FlagChecked, FlagQueued)

	if !f.Has(FlagLoaded) || !f.Has(FlagChecked) || !f.Has(FlagQueued) {
		t.Errorf("%v should contain loaded, checked and queued", f)
	}
	if f.Has(FlagStarted) {
		t.Errorf("%v should not contain started", f)
	}
	if !f.Has(FlagLoaded | FlagChecked) {
		t.Error("Has() should accept a combined flag")
	}
	if f.Has(FlagLoaded | FlagPaused) {
		t.Error("Has() with a combined flag requires every bit")
	}
	if got := f.String(); got != "checked|queued|loaded" {
		t.Errorf("String() = %q", got)
	}
	if got := StatusFlags(0).String(); got != "none" {
		t.Errorf("String() of empty set = %q", got)
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		name         string
		flags        StatusFlags
		remaining    int64
		progress     float64
		wantStatus   types.Status
		wantReadOnly bool
	}{
		// queued item
		{"loaded", FlagLoaded, 1000, 0, types.StatusQueued, false},
		{"loaded checking", FlagLoaded.With(FlagChecking), 1000, 0, types.StatusQueued, false},
		{"loaded queued", FlagLoaded.With(FlagQueued), 1000, 0, types.StatusQueued, false},
		{"loaded started", FlagLoaded.With(FlagStarted), 1000, 0, types.StatusDownloading, false},
		{"loaded queued started", FlagLoaded.With(FlagQueued, FlagStarted), 1000, 0, types.StatusDownloading, false},

		// downloading item
		{"downloading checking", FlagLoaded.With(FlagChecking), 100, 90, types.StatusQueued, false},
		{"downloading checked queued", FlagLoaded.With(FlagChecked, FlagQueued), 100, 90, types.StatusQueued, false},
		{"downloading started", FlagLoaded.With(FlagStarted), 100, 90, types.StatusDownloading, false},
		{"downloading queued started", FlagLoaded.With(FlagQueued, FlagStarted), 100, 90, types.StatusDownloading, false},

		// completed item
		{"completed checking", FlagLoaded.With(FlagChecking), 0, 100, types.StatusQueued, false},
		{"completed checked", FlagLoaded.With(FlagChecked), 0, 100, types.StatusCompleted, false},
		{"completed checked queued", FlagLoaded.With(FlagChecked, FlagQueued), 0, 100, types.StatusCompleted, true},
		{"completed checked started", FlagLoaded.With(FlagChecked, FlagStarted), 0, 100, types.StatusCompleted, true},
		{"completed checked queued paused", FlagLoaded.With(FlagChecked, FlagQueued, FlagPaused), 0, 100, types.StatusCompleted, true},

		// failed item
		{"error", FlagError, 100, 90, types.StatusWarning, false},
		{"error wins over completion", FlagLoaded.With(FlagChecked, FlagError), 0, 100, types.StatusWarning, false},

		{"paused", FlagLoaded.With(FlagPaused, FlagStarted), 500, 50, types.StatusPaused, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, readOnly := NormalizeStatus(tt.flags, tt.remaining, tt.progress)
			if status != tt.wantStatus {
				t.Errorf("NormalizeStatus(%v) status = %s, want %s", tt.flags, status, tt.wantStatus)
			}
			if readOnly != tt.wantReadOnly {
				t.Errorf("NormalizeStatus(%v) readOnly = %v, want %v", tt.flags, readOnly, tt.wantReadOnly)
			}
		})
	}
}

func TestDownloadItem_IsReadOnly(t *testing.T) {
	status, readOnly := NormalizeStatus(FlagLoaded.With(FlagChecked, FlagStarted), 0, 100)
	item := types.DownloadItem{Status: status, ReadOnly: readOnly}
	if !item.IsReadOnly() {
		t.Error("completed seeding torrent should be read-only")
	}

	item = types.DownloadItem{Status: types.StatusDownloading, ReadOnly: true}
	if item.IsReadOnly() {
		t.Error("only completed items can be read-only")
	}
}
