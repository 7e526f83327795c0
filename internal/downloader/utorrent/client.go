// Package utorrent implements the uTorrent WebUI client.
package utorrent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/slipstream/delaygate/internal/downloader/types"
)

var _ types.Client = (*Client)(nil)

type Client struct {
	config     *types.ClientConfig
	httpClient *http.Client
	baseURL    string
	token      string
	tokenMu    sync.RWMutex
}

func NewFromConfig(cfg *types.ClientConfig) *Client {
	jar, _ := cookiejar.New(nil)

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}

	urlBase := cfg.URLBase
	if urlBase == "" {
		urlBase = "/gui/"
	}
	urlBase = "/" + strings.Trim(urlBase, "/") + "/"

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		baseURL: fmt.Sprintf("%s://%s:%d%s", scheme, cfg.Host, cfg.Port, urlBase),
	}
}

func (c *Client) Type() types.ClientType {
	return types.ClientTypeUTorrent
}

func (c *Client) Protocol() types.Protocol {
	return types.ProtocolTorrent
}

// Test verifies the credentials and that the settings endpoint answers.
func (c *Client) Test(ctx context.Context) error {
	if err := c.fetchToken(ctx); err != nil {
		return err
	}
	_, err := c.settings(ctx)
	return err
}

// Add sends a torrent URL or magnet link to uTorrent.
func (c *Client) Add(ctx context.Context, opts *types.AddOptions) (string, error) {
	if opts == nil || opts.URL == "" {
		return "", fmt.Errorf("a download URL is required")
	}
	if strings.HasPrefix(opts.URL, "magnet:") {
		return c.AddMagnet(ctx, opts.URL, opts)
	}
	return c.AddURL(ctx, opts.URL, opts)
}

// AddMagnet adds a magnet link and returns its info hash.
func (c *Client) AddMagnet(ctx context.Context, magnetURL string, opts *types.AddOptions) (string, error) {
	hash := extractMagnetHash(magnetURL)
	if hash == "" {
		return "", fmt.Errorf("invalid magnet URL: no info hash found")
	}

	if err := c.addURL(ctx, magnetURL); err != nil {
		return "", err
	}
	if err := c.setLabel(ctx, hash, opts); err != nil {
		return "", err
	}
	return hash, nil
}

// AddURL adds a .torrent URL. uTorrent does not report the hash of torrents
// added this way, so the returned id is empty.
func (c *Client) AddURL(ctx context.Context, torrentURL string, _ *types.AddOptions) (string, error) {
	if err := c.addURL(ctx, torrentURL); err != nil {
		return "", err
	}
	return "", nil
}

func (c *Client) addURL(ctx context.Context, target string) error {
	params := url.Values{}
	params.Set("action", "add-url")
	params.Set("s", target)
	_, err := c.doRequest(ctx, params)
	return err
}

func (c *Client) setLabel(ctx context.Context, hash string, opts *types.AddOptions) error {
	category := c.config.Category
	if opts != nil && opts.Category != "" {
		category = opts.Category
	}
	if category == "" {
		return nil
	}

	params := url.Values{}
	params.Set("action", "setprops")
	params.Set("hash", hash)
	params.Set("s", "label")
	params.Set("v", category)
	_, err := c.doRequest(ctx, params)
	return err
}

// List returns every torrent with its normalized status.
func (c *Client) List(ctx context.Context) ([]types.DownloadItem, error) {
	params := url.Values{}
	params.Set("list", "1")

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Torrents [][]any `json:"torrents"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	items := make([]types.DownloadItem, 0, len(resp.Torrents))
	for _, t := range resp.Torrents {
		if len(t) < 19 {
			continue
		}
		items = append(items, parseTorrentArray(t))
	}

	return items, nil
}

// Get returns a single torrent by hash.
func (c *Client) Get(ctx context.Context, id string) (*types.DownloadItem, error) {
	items, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range items {
		if strings.EqualFold(items[i].ID, id) {
			return &items[i], nil
		}
	}
	return nil, types.ErrNotFound
}

// DownloadDir returns the directory uTorrent places active downloads in.
func (c *Client) DownloadDir(ctx context.Context) (string, error) {
	settings, err := c.settings(ctx)
	if err != nil {
		return "", err
	}
	dir, ok := settings[settingActiveDir].(string)
	if !ok || dir == "" {
		return "", fmt.Errorf("setting %s not reported", settingActiveDir)
	}
	return dir, nil
}

const settingActiveDir = "dir_active_download"

// settings fetches the WebUI settings. Each entry is reported as a
// [name, type, value, access] row; only the values are kept.
func (c *Client) settings(ctx context.Context) (map[string]any, error) {
	params := url.Values{}
	params.Set("action", "getsettings")

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Settings [][]any `json:"settings"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}

	values := make(map[string]any, len(resp.Settings))
	for _, row := range resp.Settings {
		if len(row) < 3 {
			continue
		}
		if name, ok := row[0].(string); ok {
			values[name] = row[2]
		}
	}
	return values, nil
}

func (c *Client) fetchToken(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"token.html", http.NoBody)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.config.Username, c.config.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return types.ErrAuthFailed
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token fetch failed: %d", resp.StatusCode)
	}

	token, err := parseToken(resp.Body)
	if err != nil {
		return err
	}

	c.tokenMu.Lock()
	c.token = token
	c.tokenMu.Unlock()

	return nil
}

func (c *Client) getToken(ctx context.Context) (string, error) {
	c.tokenMu.RLock()
	token := c.token
	c.tokenMu.RUnlock()

	if token == "" {
		if err := c.fetchToken(ctx); err != nil {
			return "", err
		}
		c.tokenMu.RLock()
		token = c.token
		c.tokenMu.RUnlock()
	}

	return token, nil
}

func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	return c.doRequestRetry(ctx, params, true)
}

func (c *Client) doRequestRetry(ctx context.Context, params url.Values, retry bool) ([]byte, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	params.Set("token", token)
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.config.Username, c.config.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		if !retry {
			return nil, types.ErrAuthFailed
		}
		if err := c.fetchToken(ctx); err != nil {
			return nil, err
		}
		return c.doRequestRetry(ctx, params, false)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request failed: %s", string(body))
	}

	return io.ReadAll(resp.Body)
}

// parseToken extracts the CSRF token from token.html.
func parseToken(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse token page: %w", err)
	}

	token := strings.TrimSpace(doc.Find("#token").First().Text())
	if token == "" {
		return "", fmt.Errorf("token not found in response")
	}
	return token, nil
}

func extractMagnetHash(magnetURL string) string {
	u, err := url.Parse(magnetURL)
	if err != nil || u.Scheme != "magnet" {
		return ""
	}

	xt := u.Query().Get("xt")
	if !strings.HasPrefix(xt, "urn:btih:") {
		return ""
	}

	return strings.ToUpper(strings.TrimPrefix(xt, "urn:btih:"))
}

// Torrent list columns used from the WebUI list response.
const (
	colHash          = 0
	colStatus        = 1
	colName          = 2
	colSize          = 3
	colProgress      = 4 // per mille
	colUploadSpeed   = 8
	colDownloadSpeed = 9
	colETA           = 10
	colLabel         = 11
	colRemaining     = 18
	colDownloadDir   = 26
)

func parseTorrentArray(t []any) types.DownloadItem {
	getString := func(idx int) string {
		if idx >= len(t) {
			return ""
		}
		s, _ := t[idx].(string)
		return s
	}

	getInt64 := func(idx int) int64 {
		if idx >= len(t) {
			return 0
		}
		switch v := t[idx].(type) {
		case float64:
			return int64(v)
		case int64:
			return v
		case int:
			return int64(v)
		}
		return 0
	}

	flags := StatusFlags(getInt64(colStatus))
	progress := float64(getInt64(colProgress)) / 10.0
	remaining := getInt64(colRemaining)
	status, readOnly := NormalizeStatus(flags, remaining, progress)

	return types.DownloadItem{
		ID:            strings.ToUpper(getString(colHash)),
		Name:          getString(colName),
		Status:        status,
		ReadOnly:      readOnly,
		Progress:      progress,
		Size:          getInt64(colSize),
		RemainingSize: remaining,
		DownloadSpeed: getInt64(colDownloadSpeed),
		UploadSpeed:   getInt64(colUploadSpeed),
		ETA:           getInt64(colETA),
		Category:      getString(colLabel),
		DownloadDir:   getString(colDownloadDir),
	}
}
