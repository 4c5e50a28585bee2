package prestoclient

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/easydatawarehousing/prestoclient/internal/metrics"
)

const (
	statementPath = "/v1/statement"

	connectTimeout = 5000 * time.Millisecond
	// poll interval before any row arrived, and once rows are flowing
	updateWait   = 1500 * time.Millisecond
	retrieveWait = 50 * time.Millisecond
	// base wait before retrying a busy server; multiplied by the attempt
	retryWait  = 100 * time.Millisecond
	maxRetries = 5

	busyCode = http.StatusServiceUnavailable
)

// run drives the query to completion: one POST to /v1/statement, then
// follow-up GETs while the server keeps returning a nextUri. It returns
// the terminal error of the query, nil on success.
func (r *Result) run(ctx context.Context, sql, schema string) error {
	metrics.ObserveQueryStart()

	endpoint := fmt.Sprintf("http://%s:%d%s", r.client.cfg.Server, r.client.cfg.Port, statementPath)
	err := r.do(ctx, http.MethodPost, endpoint, sql, schema)
	if err == nil {
		r.afterReply()
		err = r.poll(ctx)
	}

	if r.cancelled() {
		r.sendCancel()
	}
	r.classify()
	metrics.ObserveQueryFinished(r.status.String())

	if err != nil {
		return err
	}
	if r.serverError != "" {
		return &QueryError{Message: r.serverError, State: r.lastState}
	}
	return nil
}

// poll follows the nextUri chain. Between polls it waits 1500ms until the
// first row arrives, 50ms once rows are flowing.
func (r *Result) poll(ctx context.Context) error {
	for r.nextURI != "" && !r.cancelled() {
		wait := updateWait
		if r.rowDelivered {
			wait = retrieveWait
		}
		r.client.sleep(ctx, wait)
		if ctx.Err() != nil {
			r.Cancel()
		}
		if r.cancelled() {
			return nil
		}

		uri := r.nextURI
		r.nextURI = ""
		metrics.ObservePoll()
		if err := r.do(ctx, http.MethodGet, uri, "", ""); err != nil {
			return err
		}
		r.afterReply()
	}
	return nil
}

// do issues one logical request, retrying on 503 with a linearly growing
// wait. A 200 response is streamed through the JSON pipeline.
func (r *Result) do(ctx context.Context, method, url, body, schema string) error {
	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			r.Cancel()
		}
		if r.cancelled() {
			return nil
		}

		req, err := r.newRequest(ctx, method, url, body, schema)
		if err != nil {
			return r.failTransport(err)
		}
		if r.client.debug {
			_, _ = fmt.Fprintf(os.Stderr, "http out: %s %s\n", method, url)
		}

		resp, err := r.client.httpc.Do(req)
		if err != nil {
			if r.cancelled() || ctx.Err() != nil {
				r.Cancel()
				return nil
			}
			return r.failTransport(err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			err := r.consume(ctx, resp.Body)
			_ = resp.Body.Close()
			return err

		case resp.StatusCode == busyCode:
			drain(resp.Body)
			_ = resp.Body.Close()
			if attempt > maxRetries {
				r.errorCode = ErrMaxRetriesReached
				return &ClientError{Code: ErrMaxRetriesReached}
			}
			metrics.ObserveRetry()
			r.client.sleep(ctx, retryWait*time.Duration(attempt))

		default:
			drain(resp.Body)
			_ = resp.Body.Close()
			r.errorCode = ErrServerError
			r.transportErr = fmt.Sprintf("Http-code: %d", resp.StatusCode)
			return &ClientError{Code: ErrServerError, Transport: r.transportErr}
		}
	}
}

// newRequest builds a request carrying the Presto protocol headers. The
// catalog and schema headers are sent on the initial POST only.
func (r *Result) newRequest(ctx context.Context, method, url, body, schema string) (*http.Request, error) {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, err
	}
	c := r.client
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Presto-Source", c.cfg.Source)
	req.Header.Set("X-Presto-User", c.cfg.User)
	if method == http.MethodPost {
		req.Header.Set("X-Presto-Catalog", c.cfg.Catalog)
		req.Header.Set("X-Presto-Schema", schema)
	}
	return req, nil
}

// consume streams the response body through the byte source. It stops
// early, aborting the in-flight request, when the pipeline reports a
// fatal parse failure or a pending cancellation.
func (r *Result) consume(ctx context.Context, body io.Reader) error {
	chunk := make([]byte, 32*1024)
	for {
		if r.cancelled() {
			return nil
		}
		n, err := body.Read(chunk)
		if n > 0 {
			if r.client.debug {
				_, _ = fmt.Fprintf(os.Stderr, "http in: %d bytes cols=%s\n%s", n, r.joinedColumnNames(), hex.Dump(chunk[:n]))
			}
			if !r.feed(chunk[:n]) {
				if r.errorCode == ErrParseJSON {
					return &ClientError{Code: ErrParseJSON}
				}
				return nil
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if r.cancelled() || ctx.Err() != nil {
				r.Cancel()
				return nil
			}
			return r.failTransport(err)
		}
	}
}

// afterReply folds one completed reply into the driver state: status,
// column freeze, the once-only describe callback, and a pipeline reset for
// the next reply document.
func (r *Result) afterReply() {
	if r.nextURI != "" {
		r.status = StatusRunning
	}
	if len(r.columns) > 0 && !r.columnsFrozen {
		r.columnsFrozen = true
	}
	if r.columnsFrozen {
		r.fireDescribe()
	}
	r.resetPipeline()
}

// classify settles the terminal status once no further requests will be
// issued. Server-reported errors win over a clean nextUri drain; any
// client-side error fails the query outright.
func (r *Result) classify() {
	if r.errorCode != ErrOK || r.serverError != "" {
		r.status = StatusFailed
		return
	}
	r.status = StatusSucceeded
}

// sendCancel issues the best-effort DELETE to the partial-cancel URI, at
// most once. The outcome is discarded. A fresh bounded context is used
// because the query context is usually already cancelled at this point.
func (r *Result) sendCancel() {
	if r.deleteSent || r.cancelURI == "" {
		return
	}
	r.deleteSent = true

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.cancelURI, nil)
	if err != nil {
		return
	}
	req.Header.Set("User-Agent", r.client.userAgent)
	req.Header.Set("X-Presto-Source", r.client.cfg.Source)
	req.Header.Set("X-Presto-User", r.client.cfg.User)

	resp, err := r.client.httpc.Do(req)
	if err == nil {
		drain(resp.Body)
		_ = resp.Body.Close()
	}
}

// failTransport records a transport-level failure on the result.
func (r *Result) failTransport(err error) error {
	r.errorCode = ErrTransportError
	r.transportErr = err.Error()
	return &ClientError{Code: ErrTransportError, Transport: r.transportErr}
}

// drain discards a bounded amount of an error response body so the
// connection can be reused.
func drain(body io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
}
