package ingest

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/kilianp07/orplan/auth"
	"github.com/kilianp07/orplan/core/model"
)

// RemoteConfig describes an HTTP task feed, typically the export endpoint
// of a hospital scheduling system.
type RemoteConfig struct {
	Auth auth.Conf `json:"auth"`
	// TimeoutSeconds bounds every request. Defaults to 30.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Remote downloads task lists over HTTP.
type Remote struct {
	client *http.Client
	auth   *auth.ClientCred
}

// NewRemote returns a Remote. Requests carry a bearer token when cfg.Auth
// is enabled.
func NewRemote(cfg RemoteConfig) *Remote {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	r := &Remote{client: &http.Client{Timeout: timeout}}
	if cfg.Auth.Enabled() {
		r.auth = auth.NewClientCred(cfg.Auth)
	}
	return r
}

// IsRemote reports whether src is an http or https URL.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Fetch downloads and decodes the tasks at rawURL. The format comes from
// opts.Format, then the response Content-Type, then the URL path extension.
func (r *Remote) Fetch(ctx context.Context, rawURL string, opts Options) ([]model.Task, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/csv, application/yaml")
	if r.auth != nil {
		if err := r.auth.SetAuthHeader(ctx, req); err != nil {
			return nil, fmt.Errorf("failed to set auth header: %w", err)
		}
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	if opts.Format == "" {
		opts.Format = contentFormat(resp.Header.Get("Content-Type"))
	}
	if opts.Format == "" {
		opts.Format = formatOf(path.Base(u.Path))
	}
	tasks, err := Decode(resp.Body, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u.Redacted(), err)
	}
	return tasks, nil
}

func contentFormat(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch {
	case mt == "text/csv":
		return "csv"
	case mt == "application/json" || strings.HasSuffix(mt, "+json"):
		return "json"
	case strings.Contains(mt, "yaml"):
		return "yaml"
	default:
		return ""
	}
}
