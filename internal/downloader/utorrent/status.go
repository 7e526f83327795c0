package utorrent

import (
	"strings"

	"github.com/slipstream/delaygate/internal/downloader/types"
)

// StatusFlags is the set of state bits uTorrent reports per torrent.
type StatusFlags int

const (
	FlagStarted         StatusFlags = 1
	FlagChecking        StatusFlags = 2
	FlagStartAfterCheck StatusFlags = 4
	FlagChecked         StatusFlags = 8
	FlagError           StatusFlags = 16
	FlagPaused          StatusFlags = 32
	FlagQueued          StatusFlags = 64
	FlagLoaded          StatusFlags = 128
)

var flagNames = []struct {
	flag StatusFlags
	name string
}{
	{FlagStarted, "started"},
	{FlagChecking, "checking"},
	{FlagStartAfterCheck, "startAfterCheck"},
	{FlagChecked, "checked"},
	{FlagError, "error"},
	{FlagPaused, "paused"},
	{FlagQueued, "queued"},
	{FlagLoaded, "loaded"},
}

// Has reports whether every bit of flag is set.
func (f StatusFlags) Has(flag StatusFlags) bool {
	return f&flag == flag
}

// With returns f with flags added.
func (f StatusFlags) With(flags ...StatusFlags) StatusFlags {
	for _, flag := range flags {
		f |= flag
	}
	return f
}

func (f StatusFlags) String() string {
	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// NormalizeStatus maps uTorrent flags and transfer state onto the common
// download status. readOnly is true for a completed torrent uTorrent is
// still working with (queued or started for seeding).
func NormalizeStatus(flags StatusFlags, remaining int64, progress float64) (status types.Status, readOnly bool) {
	if flags.Has(FlagError) {
		return types.StatusWarning, false
	}

	if flags.Has(FlagLoaded) && flags.Has(FlagChecked) && remaining == 0 && progress >= 100 {
		return types.StatusCompleted, flags.Has(FlagQueued) || flags.Has(FlagStarted)
	}

	if flags.Has(FlagPaused) {
		return types.StatusPaused, false
	}

	if flags.Has(FlagStarted) {
		return types.StatusDownloading, false
	}

	return types.StatusQueued, false
}
