// Package prestoclient implements the client side of Presto's
// /v1/statement HTTP protocol.
//
// A Client submits SQL text and drives the long-poll follow-up loop; the
// column schema and every result row are handed to caller-supplied
// callbacks while the server is still producing them, so result sets of
// any size stream through a fixed amount of memory. Cell values are
// delivered as text; the client performs no type conversion.
package prestoclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/user"
	"strings"
	"sync"
	"time"
)

// Version is the client version, reported to the server in the User-Agent.
const Version = "0.4.0"

// defaultSource is reported in X-Presto-Source when Config.Source is empty.
const defaultSource = "prestoclient"

// ErrClosed is returned by Query after the client has been closed.
var ErrClosed = errors.New("prestoclient: client closed")

// Config holds the connection parameters for a Presto server.
// Zero values fall back to defaults: port 8080, catalog "hive", schema
// "default", user = the operating-system user name.
type Config struct {
	Server  string
	Port    int
	Catalog string
	Schema  string
	User    string
	// Source is the client name sent in X-Presto-Source and as the
	// User-Agent prefix.
	Source string
}

// QueryOptions adjusts a single query.
type QueryOptions struct {
	// Schema overrides the client's default schema for this query.
	Schema string
	// OnDescribe is called exactly once, as soon as the column schema is
	// known. OnRow is called once per result row, after its last cell is
	// written; cells are read through the Result accessors. Both run
	// synchronously on the goroutine that called Query and must not
	// re-enter the same Result.
	OnDescribe func(*Result)
	OnRow      func(*Result)
}

// Client is a handle to one Presto server. It is immutable after New
// except for the roster of live results, which is internally synchronized;
// concurrent queries are supported when each is driven from its own
// goroutine.
type Client struct {
	cfg       Config
	userAgent string
	debug     bool
	httpc     *http.Client
	sleep     func(ctx context.Context, d time.Duration)

	mu      sync.Mutex
	results []*Result
	closed  bool
}

// New creates a Client for the given server. Server is required; all other
// fields default as documented on Config.
func New(cfg Config) (*Client, error) {
	if cfg.Server == "" {
		return nil, &ClientError{Code: ErrBadRequestData}
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		cfg.Port = 8080
	}
	if cfg.Catalog == "" {
		cfg.Catalog = "hive"
	}
	if cfg.Schema == "" {
		cfg.Schema = "default"
	}
	if cfg.User == "" {
		cfg.User = currentUser()
	}
	if cfg.Source == "" {
		cfg.Source = defaultSource
	}

	return &Client{
		cfg:       cfg,
		userAgent: cfg.Source + "/" + Version,
		debug:     os.Getenv("PRESTO_DEBUG") == "http",
		httpc: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		},
		sleep: sleepContext,
	}, nil
}

// Query executes sql and blocks until the query reaches a terminal state.
// Schema and the describe/row callbacks come from opts, which may be nil.
// Once the query has been submitted, the returned Result carries the full
// query state regardless of the error: a *QueryError when the server
// failed the query, a *ClientError for client-side failures, nil on
// success. An empty statement (a *ClientError) or a closed client
// (ErrClosed) returns a nil Result. Cancelling ctx is equivalent to
// calling Result.Cancel.
func (c *Client) Query(ctx context.Context, sql string, opts *QueryOptions) (*Result, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, &ClientError{Code: ErrBadRequestData}
	}

	var o QueryOptions
	if opts != nil {
		o = *opts
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	r := newResult(c, o.OnDescribe, o.OnRow)
	c.results = append(c.results, r)
	c.mu.Unlock()

	schema := o.Schema
	if schema == "" {
		schema = c.cfg.Schema
	}
	return r, r.run(ctx, sql, schema)
}

// Close cancels any still-running queries and releases transport
// resources. The client accepts no further queries. Safe to call more
// than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	results := c.results
	c.results = nil
	c.mu.Unlock()

	for _, r := range results {
		r.Cancel()
	}
	c.httpc.CloseIdleConnections()
	return nil
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// currentUser returns the operating-system user name, falling back to the
// USER environment variable.
func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	return "presto"
}
