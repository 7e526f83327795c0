// Package types defines shared types for download clients.
package types

import (
	"context"
	"errors"
	"time"
)

// Common errors for download clients.
var (
	ErrNotConnected = errors.New("client not connected")
	ErrAuthFailed   = errors.New("authentication failed")
	ErrNotFound     = errors.New("download not found")
)

// Protocol represents the download protocol.
type Protocol string

const (
	ProtocolTorrent Protocol = "torrent"
	ProtocolUsenet  Protocol = "usenet"
)

// Valid reports whether p is a known protocol.
func (p Protocol) Valid() bool {
	return p == ProtocolTorrent || p == ProtocolUsenet
}

// ClientType represents the type of download client.
type ClientType string

const (
	ClientTypeUTorrent ClientType = "utorrent"
)

// ClientConfig holds common configuration for download clients.
type ClientConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseSSL   bool
	URLBase  string
	Category string
}

// Client is a download client that can accept admitted releases and
// report the state of its downloads.
type Client interface {
	Type() ClientType
	Protocol() Protocol

	Test(ctx context.Context) error
	Add(ctx context.Context, opts *AddOptions) (string, error)
	List(ctx context.Context) ([]DownloadItem, error)
	Get(ctx context.Context, id string) (*DownloadItem, error)

	// DownloadDir reports where the client stores active downloads.
	DownloadDir(ctx context.Context) (string, error)
}

// AddOptions specifies options for adding a download.
type AddOptions struct {
	URL      string // torrent URL or magnet link
	Name     string
	Category string
	Paused   bool
}

// DownloadItem represents a download in progress or completed.
type DownloadItem struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Status        Status    `json:"status"`
	ReadOnly      bool      `json:"readOnly"`
	Progress      float64   `json:"progress"` // 0-100
	Size          int64     `json:"size"`
	RemainingSize int64     `json:"remainingSize"`
	DownloadSpeed int64     `json:"downloadSpeed"` // bytes/sec
	UploadSpeed   int64     `json:"uploadSpeed"`   // bytes/sec
	ETA           int64     `json:"eta"`           // seconds, -1 if unavailable
	DownloadDir   string    `json:"downloadDir"`
	Category      string    `json:"category,omitempty"`
	AddedAt       time.Time `json:"addedAt,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// IsReadOnly reports whether the client still owns the item's files.
// Only completed items can be read-only.
func (d *DownloadItem) IsReadOnly() bool {
	return d.Status == StatusCompleted && d.ReadOnly
}

// Status is the client-independent download state.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusPaused      Status = "paused"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusWarning     Status = "warning"
)
