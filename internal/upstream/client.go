// Package upstream talks to the campus REST API that owns locations,
// comments and the accessibility icon catalog.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joeblew999/plat-campus/internal/campus"
)

const (
	defaultTimeout = 10 * time.Second
	// maxErrorBody caps how much of a failed response ends up in an error.
	maxErrorBody = 512
)

// Client implements campus.LocationSource and campus.CommentSource over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	_ campus.LocationSource = (*Client)(nil)
	_ campus.CommentSource  = (*Client)(nil)
)

// All lists every location.
func (c *Client) All(ctx context.Context) ([]campus.Location, error) {
	var out []campus.Location
	if err := c.getList(ctx, &out, "locations"); err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	return out, nil
}

// ByLocation lists every comment of a location.
func (c *Client) ByLocation(ctx context.Context, id campus.ID) ([]campus.Comment, error) {
	var out []campus.Comment
	if err := c.getList(ctx, &out, "comments", "location", string(id)); err != nil {
		return nil, fmt.Errorf("listing comments of %s: %w", id, err)
	}
	return out, nil
}

// ApprovedByLocation lists the moderated comments of a location.
func (c *Client) ApprovedByLocation(ctx context.Context, id campus.ID) ([]campus.Comment, error) {
	var out []campus.Comment
	if err := c.getList(ctx, &out, "comments", "location", string(id), "approved"); err != nil {
		return nil, fmt.Errorf("listing approved comments of %s: %w", id, err)
	}
	return out, nil
}

// Icons returns the accessibility icon catalog.
func (c *Client) Icons(ctx context.Context) ([]campus.AccessibilityIcon, error) {
	var out []campus.AccessibilityIcon
	if err := c.getList(ctx, &out, "comments", "icons"); err != nil {
		return nil, fmt.Errorf("listing accessibility icons: %w", err)
	}
	return out, nil
}

// Create posts a comment as multipart form data. A non-2xx answer is
// reported as (false, nil).
func (c *Client) Create(ctx context.Context, p campus.CommentPayload) (bool, error) {
	endpoint, err := url.JoinPath(c.baseURL, "comments")
	if err != nil {
		return false, err
	}
	body, contentType, err := encodePayload(p)
	if err != nil {
		return false, fmt.Errorf("encoding comment: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("creating comment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("comment rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("location", string(p.LocationID)),
			zap.String("body", drainError(resp.Body)))
		return false, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return true, nil
}

// timestampLayout matches JavaScript's Date.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

func encodePayload(p campus.CommentPayload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"user_name", p.UserName},
		{"rating", fmt.Sprint(p.Rating)},
		{"comment", p.Comment},
		{"created_at", p.CreatedAt.UTC().Format(timestampLayout)},
		{"location_id", string(p.LocationID)},
		{"status", p.Status},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if len(p.IconIDs) > 0 {
		ids, err := json.Marshal(p.IconIDs)
		if err != nil {
			return nil, "", err
		}
		if err := w.WriteField("comment_icon_ids", string(ids)); err != nil {
			return nil, "", err
		}
	}
	for _, img := range p.Images {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, img.Name))
		ct := img.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) getList(ctx context.Context, dst any, segments ...string) error {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	endpoint, err := url.JoinPath(c.baseURL, escaped...)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	c.logger.Debug("upstream request",
		zap.String("url", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: drainError(resp.Body)}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return decodeList(raw, dst)
}

// decodeList accepts a bare JSON array or an object wrapping it under
// "comments", "data" or "items". Anything else decodes to an empty list.
func decodeList(raw []byte, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '[':
		return json.Unmarshal(raw, dst)
	case '{':
		var env map[string]json.RawMessage
		if err := json.Unmarshal(raw, &env); err != nil {
			return err
		}
		for _, key := range []string{"comments", "data", "items"} {
			if inner := bytes.TrimSpace(env[key]); len(inner) > 0 && inner[0] == '[' {
				return json.Unmarshal(inner, dst)
			}
		}
	}
	return nil
}

// StatusError is a non-2xx upstream answer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream status %d", e.Code)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Code, e.Body)
}

func drainError(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}
