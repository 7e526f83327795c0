package rsssync

// WebSocket event types for release processing.
const (
	EventDecisionAccepted = "decision:accepted"
	EventDecisionHeld     = "decision:held"
	EventPendingGrabbed   = "pending:grabbed"
	EventCycleCompleted   = "processor:completed"
)

type DecisionEvent struct {
	CycleID  string `json:"cycleId"`
	SeriesID int64  `json:"seriesId"`
	GUID     string `json:"guid"`
	Title    string `json:"title"`
	Rule     string `json:"rule"`
	Reason   string `json:"reason,omitempty"`
	Grabbed  bool   `json:"grabbed"`
}

type PendingGrabbedEvent struct {
	CycleID    string  `json:"cycleId"`
	SeriesID   int64   `json:"seriesId"`
	GUID       string  `json:"guid"`
	Title      string  `json:"title"`
	EpisodeIDs []int64 `json:"episodeIds"`
	Removed    int     `json:"removed"`
}

type CycleCompletedEvent struct {
	CycleStatus
}
