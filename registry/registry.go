package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/paulzierep/micoreca/domain"
)

var (
	DefaultTimeout    = 30 * time.Second
	DefaultCacheTTL   = 10 * time.Minute
	DefaultMaxRetries = uint64(3)

	ErrNotConfigured = errors.New("no package index configured")
)

// NotFoundError indicates the index has no such package.
type NotFoundError struct {
	Package string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("package %q not found in index", e.Package)
}

// Config parameterizes an index client.
type Config struct {
	BaseURL    string
	Token      string // Optional bearer token.
	Timeout    time.Duration
	CacheTTL   time.Duration
	MaxRetries uint64
}

func NewConfig(baseURL string) *Config {
	cfg := &Config{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Timeout:    DefaultTimeout,
		CacheTTL:   DefaultCacheTTL,
		MaxRetries: DefaultMaxRetries,
	}
	return cfg
}

// Client resolves package names to installable releases against a package
// index.  Lookups prefer the JSON release listing and fall back to the HTML
// simple index.  Listings are cached so one invocation never refetches.
type Client struct {
	config     *Config
	httpClient *http.Client
	releases   *cache.Cache
}

func NewClient(config *Config) *Client {
	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		releases: cache.New(config.CacheTTL, 0),
	}
	return c
}

// Releases returns all advertised releases of the named package.
func (c *Client) Releases(name string) (domain.Releases, error) {
	if c.config.BaseURL == "" {
		return nil, ErrNotConfigured
	}

	if cached, found := c.releases.Get(name); found {
		return cached.(domain.Releases), nil
	}

	rels, err := c.fetchJSONListing(name)
	if err != nil {
		if _, notFound := errors.Cause(err).(*NotFoundError); !notFound {
			return nil, err
		}
		log.WithField("package", name).Debug("No JSON listing, falling back to simple index")
		if rels, err = c.fetchSimpleIndex(name); err != nil {
			return nil, err
		}
	}

	c.releases.Set(name, rels, cache.DefaultExpiration)
	return rels, nil
}

// Download fetches a release artifact and returns its content along with the
// hex-encoded sha256 of what was actually received.
func (c *Client) Download(rel *domain.Release) ([]byte, string, error) {
	body, err := c.fetch(rel.URL, rel.Package)
	if err != nil {
		return nil, "", errors.Wrapf(err, "downloading %s %s", rel.Package, rel.Version)
	}

	h := sha256.New()
	h.Write(body)
	digest := hex.EncodeToString(h.Sum(nil))

	return body, digest, nil
}

func (c *Client) fetchJSONListing(name string) (domain.Releases, error) {
	body, err := c.fetch(fmt.Sprintf("%s/api/packages/%s", c.config.BaseURL, url.PathEscape(name)), name)
	if err != nil {
		return nil, err
	}
	return parseJSONListing(name, body, c.config.BaseURL)
}

func (c *Client) fetchSimpleIndex(name string) (domain.Releases, error) {
	indexURL := fmt.Sprintf("%s/simple/%s/", c.config.BaseURL, url.PathEscape(name))
	body, err := c.fetch(indexURL, name)
	if err != nil {
		return nil, err
	}
	return parseSimpleIndex(name, body, indexURL)
}

// fetch GETs a URL with bounded retries for transient failures.  4xx
// responses are never retried; 404 surfaces as *NotFoundError for pkg.
func (c *Client) fetch(rawURL string, pkg string) ([]byte, error) {
	var body []byte

	op := func() error {
		req, err := http.NewRequest("GET", rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if c.config.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.config.Token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(&NotFoundError{Package: pkg})
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return backoff.Permanent(fmt.Errorf("GET %v: %v", rawURL, resp.Status))
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("GET %v: %v", rawURL, resp.Status)
		}

		if body, err = io.ReadAll(resp.Body); err != nil {
			return err
		}
		return nil
	}

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.config.MaxRetries)
	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}
	return body, nil
}
