// Package files is the client for the platform's file storage gateway
// (/api/files-proxy). Marketplace apps use it for all file operations instead
// of talking to the storage service directly.
package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ciyex-org/ciyex-platform-sdk/config"
	"github.com/ciyex-org/ciyex-platform-sdk/pkg/identity"
)

const (
	basePath = "/api/files-proxy"

	HeaderFilePath         = "X-File-Path"
	HeaderSourceService    = "X-Source-Service"
	HeaderOrgID            = "X-Org-Id"
	HeaderReferenceID      = "X-Reference-Id"
	HeaderOriginalFilename = "X-Original-Filename"

	DefaultSourceService = "unknown"
)

// Client is safe for concurrent use; it holds no mutable state besides the
// shared *http.Client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     identity.TokenSource
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient sets the transport used for every request.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTokenSource sets where the caller's bearer token comes from.
// Defaults to identity.FromContext.
func WithTokenSource(tokens identity.TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the gateway at baseURL, e.g.
// "http://localhost:8080". A single trailing slash is ignored.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		tokens:  identity.FromContext,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = NewHTTPClient(TransportConfig{Logger: c.logger})
	}
	return c
}

// NewFromConfig wires a client from the platform and transport settings.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	tc := TransportConfigFrom(cfg.Transport)
	opts = append([]Option{WithHTTPClient(NewHTTPClient(tc))}, opts...)
	return NewClient(cfg.Platform.APIURL, opts...)
}

// UploadRequest describes an object to store. Optional fields are nil when unset.
type UploadRequest struct {
	Data             []byte
	ContentType      string
	Key              string
	OrgID            *string
	SourceService    *string
	ReferenceID      *string
	OriginalFilename *string
}

// UploadBytes stores req.Data at req.Key.
func (c *Client) UploadBytes(ctx context.Context, req UploadRequest) error {
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/store-bytes", nil, bytes.NewReader(req.Data))
	if err != nil {
		return err
	}

	sourceService := DefaultSourceService
	if req.SourceService != nil {
		sourceService = *req.SourceService
	}
	orgID := ""
	if req.OrgID != nil {
		orgID = *req.OrgID
	}

	httpReq.Header.Set("Content-Type", req.ContentType)
	httpReq.Header.Set(HeaderFilePath, req.Key)
	httpReq.Header.Set(HeaderSourceService, sourceService)
	httpReq.Header.Set(HeaderOrgID, orgID)
	if req.ReferenceID != nil {
		httpReq.Header.Set(HeaderReferenceID, *req.ReferenceID)
	}
	if req.OriginalFilename != nil {
		httpReq.Header.Set(HeaderOriginalFilename, *req.OriginalFilename)
	}

	if err := c.doBodiless(httpReq); err != nil {
		return err
	}
	c.logger.DebugContext(ctx, "uploaded bytes via platform", "key", req.Key, "size", len(req.Data))
	return nil
}

// UploadStream drains r into memory and uploads it. contentLength is checked
// against the bytes read unless it is negative (unknown). The gateway is not
// contacted when the stream cannot be read in full.
func (c *Client) UploadStream(ctx context.Context, r io.Reader, contentLength int64, req UploadRequest) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("upload stream %s: read: %w", req.Key, err)
	}
	if contentLength >= 0 && int64(len(data)) != contentLength {
		return fmt.Errorf("upload stream %s: %w: declared %d, read %d", req.Key, ErrLengthMismatch, contentLength, len(data))
	}

	req.Data = data
	if err := c.UploadBytes(ctx, req); err != nil {
		return fmt.Errorf("upload stream %s: %w", req.Key, err)
	}
	return nil
}

// GetPresignedURL asks the gateway for a time-limited download URL. The bool
// is false when the response carries no URL.
func (c *Client) GetPresignedURL(ctx context.Context, key string, expirySeconds int) (string, bool, error) {
	if expirySeconds <= 0 {
		return "", false, ErrInvalidExpiry
	}

	query := url.Values{}
	query.Set("key", key)
	query.Set("expiry", strconv.Itoa(expirySeconds))

	req, err := c.newRequest(ctx, http.MethodGet, "/by-key/presigned-url", query, nil)
	if err != nil {
		return "", false, err
	}

	env, err := c.doEnvelope(req)
	if err != nil {
		return "", false, err
	}

	u, ok := env.String("url")
	return u, ok, nil
}

// Presence is the outcome of an existence probe.
type Presence int

const (
	// Indeterminate means the gateway could not be asked or gave no clear answer.
	Indeterminate Presence = iota
	Present
	Absent
)

func (p Presence) String() string {
	switch p {
	case Present:
		return "present"
	case Absent:
		return "absent"
	default:
		return "indeterminate"
	}
}

// Stat probes key. A 404 or 410 is Absent with a nil error; any other failure
// is Indeterminate and returns the error.
func (c *Client) Stat(ctx context.Context, key string) (Presence, error) {
	query := url.Values{}
	query.Set("key", key)

	req, err := c.newRequest(ctx, http.MethodHead, "/by-key/exists", query, nil)
	if err != nil {
		return Indeterminate, err
	}

	if err := c.doBodiless(req); err != nil {
		if IsNotFound(err) {
			return Absent, nil
		}
		return Indeterminate, err
	}
	return Present, nil
}

// Exists reports whether key is stored. Every failure, including network
// errors, reads as false; use Stat to tell them apart.
func (c *Client) Exists(ctx context.Context, key string) bool {
	presence, err := c.Stat(ctx, key)
	if err != nil {
		c.logger.DebugContext(ctx, "exists check failed", "key", key, "error", err)
	}
	return presence == Present
}

// GetObjectSize returns the stored size of key in bytes. A missing size
// field reads as 0.
func (c *Client) GetObjectSize(ctx context.Context, key string) (int64, error) {
	query := url.Values{}
	query.Set("key", key)

	req, err := c.newRequest(ctx, http.MethodGet, "/by-key/size", query, nil)
	if err != nil {
		return 0, err
	}

	env, err := c.doEnvelope(req)
	if err != nil {
		return 0, err
	}

	size, ok := env.Int64("size")
	if !ok || size < 0 {
		return 0, nil
	}
	return size, nil
}

// Delete removes key. It is sent once even when retries are enabled and is
// not assumed idempotent.
func (c *Client) Delete(ctx context.Context, key string) error {
	query := url.Values{}
	query.Set("key", key)

	req, err := c.newRequest(ctx, http.MethodDelete, "/by-key", query, nil)
	if err != nil {
		return err
	}

	if err := c.doBodiless(req); err != nil {
		return err
	}
	c.logger.DebugContext(ctx, "deleted via platform", "key", key)
	return nil
}

// Download returns the full contents of key.
func (c *Client) Download(ctx context.Context, key string) ([]byte, error) {
	req, err := c.downloadRequest(ctx, key)
	if err != nil {
		return nil, err
	}
	return c.doBytes(req)
}

// DownloadTo streams the contents of key into dst without buffering them.
func (c *Client) DownloadTo(ctx context.Context, key string, dst io.Writer) (int64, error) {
	req, err := c.downloadRequest(ctx, key)
	if err != nil {
		return 0, err
	}

	resp, err := c.send(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return n, fmt.Errorf("stream download %s: %w", key, err)
	}
	return n, nil
}

func (c *Client) downloadRequest(ctx context.Context, key string) (*http.Request, error) {
	query := url.Values{}
	query.Set("key", key)
	return c.newRequest(ctx, http.MethodGet, "/by-key/download", query, nil)
}

// resolveAuthToken never fails: without a caller identity the request goes
// out with an empty bearer and the gateway decides.
func (c *Client) resolveAuthToken(ctx context.Context) string {
	token, err := c.tokens.Token(ctx)
	if err != nil || token == "" {
		if err != nil && !errors.Is(err, identity.ErrNoIdentity) {
			c.logger.WarnContext(ctx, "token source failed for platform API call", "error", err)
		} else {
			c.logger.WarnContext(ctx, "no JWT available for platform API call")
		}
		return ""
	}
	return token
}
