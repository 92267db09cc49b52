// Package source loads resume documents and job postings from local files and
// HTTP(S) URLs.
package source

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spigell/talentscore/internal/document"
	"github.com/spigell/talentscore/internal/logger"
	"go.uber.org/zap"
)

const (
	userAgent       = "talentscore/1.0"
	acceptEncoding  = "gzip"
	DefaultTimeout  = 10 * time.Second
	DefaultMaxBytes = 10 << 20
)

// ErrTooLarge is returned when a document exceeds the configured size limit.
var ErrTooLarge = errors.New("document exceeds size limit")

// Client fetches documents. The zero value is not usable, call New.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	MaxBytes   int64
	logger     *zap.Logger
}

// New returns a Client with a bounded HTTP timeout and size limit.
func New(log *zap.Logger) *Client {
	return &Client{
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		UserAgent: userAgent,
		MaxBytes:  DefaultMaxBytes,
		logger:    logger.OrNop(log),
	}
}

// NewID returns a fresh identifier for documents that do not carry one.
func NewID() string {
	return uuid.NewString()
}

// IsURL reports whether ref should be fetched over HTTP.
func IsURL(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Fetch loads ref, a local path or an http(s) URL.
func (c *Client) Fetch(ctx context.Context, ref string) (document.Document, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return document.Document{}, errors.New("empty document reference")
	}
	if IsURL(ref) {
		return c.fetchURL(ctx, ref)
	}
	return c.readFile(ref)
}

func (c *Client) readFile(name string) (document.Document, error) {
	f, err := os.Open(name)
	if err != nil {
		return document.Document{}, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	data, err := c.readLimited(f)
	if err != nil {
		return document.Document{}, fmt.Errorf("read %s: %w", name, err)
	}

	mediaType, _, _ := mime.ParseMediaType(mime.TypeByExtension(strings.ToLower(filepath.Ext(name))))

	return document.Document{Data: data, MediaType: mediaType, Name: filepath.Base(name)}, nil
}

func (c *Client) fetchURL(ctx context.Context, rawURL string) (document.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return document.Document{}, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", acceptEncoding)

	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return document.Document{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return document.Document{}, fmt.Errorf("fetch %s: bad status: %s", rawURL, resp.Status)
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return document.Document{}, fmt.Errorf("fetch %s: %w", rawURL, err)
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := c.readLimited(reader)
	if err != nil {
		return document.Document{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	name := path.Base(req.URL.Path)
	if name == "/" || name == "." {
		name = req.URL.Host
	}

	return document.Document{Data: data, MediaType: mediaType, Name: name}, nil
}

func (c *Client) readLimited(r io.Reader) ([]byte, error) {
	limit := c.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, limit)
	}
	return data, nil
}
